package model

import (
	"time"

	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// Risk is an uncertain event that may affect a project. Score and Level are
// derived from Probability and Impact and must never be stale.
type Risk struct {
	ID             types.RiskID
	Code           string // RISK-NNN, unique within the project
	ProjectID      types.ProjectID
	Title          string
	Description    string
	Category       types.RiskCategory
	Probability    types.Rating
	Impact         types.Rating
	Score          int
	Level          types.RiskLevel
	Status         types.RiskStatus
	MitigationPlan string
	OwnerID        types.UserID
	CreatedBy      types.UserID
	IdentifiedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyScore recomputes Score and Level from the current Probability and Impact
func (r *Risk) ApplyScore() error {
	score, err := ScoreRisk(r.Probability, r.Impact)
	if err != nil {
		return err
	}
	r.Score = score.Score
	r.Level = score.Level
	return nil
}

// Clone returns a copy of the risk
func (r *Risk) Clone() *Risk {
	copied := *r
	return &copied
}
