package auth

import (
	"context"
	"sort"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// Principal is the authenticated actor of a request. Its capability set is
// resolved once at construction time.
type Principal struct {
	UserID types.UserID
	Email  string
	Name   string
	Role   types.Role

	capabilities map[types.Capability]struct{}
}

// NewPrincipal builds a principal whose capabilities are the defaults of its
// role plus any extra grants.
func NewPrincipal(id types.UserID, email, name string, role types.Role, extra ...types.Capability) *Principal {
	caps := make(map[types.Capability]struct{})
	for _, c := range role.DefaultCapabilities() {
		caps[c] = struct{}{}
	}
	for _, c := range extra {
		if c.IsValid() {
			caps[c] = struct{}{}
		}
	}

	return &Principal{
		UserID:       id,
		Email:        email,
		Name:         name,
		Role:         role,
		capabilities: caps,
	}
}

// NewSystemPrincipal returns a PMO principal used by CLI commands and no-auth mode
func NewSystemPrincipal() *Principal {
	return NewPrincipal("system", "system@localhost", "System", types.RolePMO)
}

// Can reports whether the principal holds the capability
func (p *Principal) Can(c types.Capability) bool {
	if p == nil {
		return false
	}
	_, ok := p.capabilities[c]
	return ok
}

// Capabilities returns the capability set in a stable order
func (p *Principal) Capabilities() []types.Capability {
	caps := make([]types.Capability, 0, len(p.capabilities))
	for c := range p.capabilities {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// Initials returns the initials derived from the principal's name
func (p *Principal) Initials() string {
	return model.Initials(p.Name)
}

// CanAccessProject reports whether the principal may see the project.
// Principals without view_all_projects only see projects they manage.
func (p *Principal) CanAccessProject(project *model.Project) bool {
	if p.Can(types.CapViewAllProjects) {
		return true
	}
	return project.PMID != "" && project.PMID == p.UserID
}

type ctxPrincipalKey struct{}

// ContextWithPrincipal stores the principal in the context
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey{}, p)
}

// PrincipalFromContext returns the principal of the context, or nil
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxPrincipalKey{}).(*Principal)
	return p
}
