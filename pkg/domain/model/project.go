package model

import (
	"time"

	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// DefaultCurrency is applied to budgets that do not name one
const DefaultCurrency = "USD"

// Project is the aggregate root owning risks, issues and milestones.
// RiskSummary, IssueSummary and the milestone counters are denormalized and
// rewritten from scratch by the summary usecase.
type Project struct {
	ID             types.ProjectID
	CaseID         string // PRJ-<year>-NNN
	Name           string
	Description    string
	PMID           types.UserID
	Status         types.ProjectStatus
	Health         types.ProjectHealth
	Priority       string
	Type           string
	Branch         string
	Progress       int
	PlannedStart   *time.Time
	PlannedEnd     *time.Time
	Milestones     []Milestone
	Budget         Budget
	Legacy         *LegacyBudget // set only on records that predate the structured budget
	CreatedBy      types.UserID
	LastModifiedBy types.UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time

	TotalMilestones     int
	CompletedMilestones int
	RiskSummary         RiskSummary
	IssueSummary        IssueSummary

	// RiskSeq, IssueSeq and TaskSeq hold the last sequence number handed
	// out for a child code. They only grow, so codes of deleted children are
	// never reused. Zero means not yet allocated.
	RiskSeq  int64
	IssueSeq int64
	TaskSeq  int64

	// Version is incremented on every write. Update succeeds only when the
	// stored version equals this value.
	Version int64
}

// Milestone is embedded in its project
type Milestone struct {
	Name       string
	DueDate    *time.Time
	Status     types.MilestoneStatus
	AssignedTo types.UserID
}

// RiskSummary counts a project's risks by level
type RiskSummary struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}

// IssueSummary counts a project's issues by status
type IssueSummary struct {
	Total    int
	Open     int
	Resolved int
}

// Budget is the structured budget record of a project
type Budget struct {
	Total     float64
	Allocated float64
	Spent     float64
	Variance  float64
	Currency  string
}

// LegacyBudget holds the scalar budget and spent fields of pre-v3 records
type LegacyBudget struct {
	Budget float64
	Spent  float64
}

// ProjectSummaries is the full set of derived counters of a project
type ProjectSummaries struct {
	RiskSummary         RiskSummary
	IssueSummary        IssueSummary
	TotalMilestones     int
	CompletedMilestones int
}

// Summaries returns the derived counters currently stored on the project
func (p *Project) Summaries() ProjectSummaries {
	return ProjectSummaries{
		RiskSummary:         p.RiskSummary,
		IssueSummary:        p.IssueSummary,
		TotalMilestones:     p.TotalMilestones,
		CompletedMilestones: p.CompletedMilestones,
	}
}

// ApplySummaries overwrites the derived counters of the project
func (p *Project) ApplySummaries(s ProjectSummaries) {
	p.RiskSummary = s.RiskSummary
	p.IssueSummary = s.IssueSummary
	p.TotalMilestones = s.TotalMilestones
	p.CompletedMilestones = s.CompletedMilestones
}

// Clone returns a deep copy of the project
func (p *Project) Clone() *Project {
	copied := *p
	if p.Milestones != nil {
		copied.Milestones = make([]Milestone, len(p.Milestones))
		copy(copied.Milestones, p.Milestones)
	}
	if p.Legacy != nil {
		legacy := *p.Legacy
		copied.Legacy = &legacy
	}
	if p.PlannedStart != nil {
		t := *p.PlannedStart
		copied.PlannedStart = &t
	}
	if p.PlannedEnd != nil {
		t := *p.PlannedEnd
		copied.PlannedEnd = &t
	}
	return &copied
}
