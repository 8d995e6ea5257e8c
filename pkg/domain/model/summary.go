package model

import "github.com/secmon-lab/pmotracker/pkg/domain/types"

// ComputeRiskSummary counts risks by level. Risks with an unknown level are
// counted in Total only.
func ComputeRiskSummary(risks []*Risk) RiskSummary {
	var s RiskSummary
	for _, r := range risks {
		s.Total++
		switch r.Level {
		case types.RiskLevelCritical:
			s.Critical++
		case types.RiskLevelHigh:
			s.High++
		case types.RiskLevelMedium:
			s.Medium++
		case types.RiskLevelLow:
			s.Low++
		}
	}
	return s
}

// ComputeIssueSummary counts issues by status. Open and Resolved count the
// exact status; In_Progress and Closed issues contribute to Total only.
func ComputeIssueSummary(issues []*Issue) IssueSummary {
	var s IssueSummary
	for _, i := range issues {
		s.Total++
		switch i.Status.Normalize() {
		case types.IssueStatusOpen:
			s.Open++
		case types.IssueStatusResolved:
			s.Resolved++
		}
	}
	return s
}

// ComputeMilestoneCounts returns the number of milestones and how many are completed
func ComputeMilestoneCounts(milestones []Milestone) (total, completed int) {
	for _, m := range milestones {
		if m.Status == types.MilestoneStatusCompleted {
			completed++
		}
	}
	return len(milestones), completed
}

// ComputeProjectSummaries derives every counter of a project from its children
func ComputeProjectSummaries(p *Project, risks []*Risk, issues []*Issue) ProjectSummaries {
	total, completed := ComputeMilestoneCounts(p.Milestones)
	return ProjectSummaries{
		RiskSummary:         ComputeRiskSummary(risks),
		IssueSummary:        ComputeIssueSummary(issues),
		TotalMilestones:     total,
		CompletedMilestones: completed,
	}
}
