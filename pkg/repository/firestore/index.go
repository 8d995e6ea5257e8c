package firestore

import (
	"github.com/m-mizutani/fireconf"
)

// IndexConfig returns the composite indexes required by the queries of this
// package, for collections named with prefix.
func IndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: collectionName(prefix, "audit_logs"),
				Indexes: []fireconf.Index{
					// ListByEntity: entity_type ASC, entity_id ASC, timestamp DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "entity_type", Order: fireconf.OrderAscending},
							{Path: "entity_id", Order: fireconf.OrderAscending},
							{Path: "timestamp", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
