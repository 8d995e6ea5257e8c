package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type riskRepository struct {
	mu    sync.RWMutex
	risks map[types.RiskID]*model.Risk
}

func newRiskRepository() *riskRepository {
	return &riskRepository{
		risks: make(map[types.RiskID]*model.Risk),
	}
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if risk.ID == "" {
		return nil, goerr.New("risk ID is required")
	}
	if _, exists := r.risks[risk.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "risk already exists", goerr.V("id", risk.ID))
	}

	now := time.Now().UTC()
	created := risk.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.risks[created.ID] = created
	return created.Clone(), nil
}

func (r *riskRepository) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", id))
	}

	return risk.Clone(), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.risks))
	for _, risk := range r.risks {
		risks = append(risks, risk.Clone())
	}

	return risks, nil
}

func (r *riskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0)
	for _, risk := range r.risks {
		if risk.ProjectID == projectID {
			risks = append(risks, risk.Clone())
		}
	}

	return risks, nil
}

func (r *riskRepository) CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, risk := range r.risks {
		if risk.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.risks[risk.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", risk.ID))
	}

	updated := risk.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.risks[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *riskRepository) Delete(ctx context.Context, id types.RiskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.risks[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", id))
	}

	delete(r.risks, id)
	return nil
}
