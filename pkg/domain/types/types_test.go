package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		input   string
		want    types.Rating
		value   int
		wantErr bool
	}{
		{"Very_Low", types.RatingVeryLow, 1, false},
		{"Low", types.RatingLow, 2, false},
		{"Medium", types.RatingMedium, 3, false},
		{"High", types.RatingHigh, 4, false},
		{"Very_High", types.RatingVeryHigh, 5, false},
		{"very_high", "", 0, true},
		{"Very High", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseRating(tt.input)
			if tt.wantErr {
				gt.Error(t, err).Is(types.ErrInvalidEnum)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
			gt.Value(t, got.Value()).Equal(tt.value)
		})
	}
}

func TestRating_ValueOfInvalid(t *testing.T) {
	gt.Value(t, types.Rating("Extreme").Value()).Equal(0)
}

func TestProjectStatus_Normalize(t *testing.T) {
	tests := []struct {
		input types.ProjectStatus
		want  types.ProjectStatus
	}{
		{"", types.ProjectStatusPlanning},
		{"In Progress", types.ProjectStatusInProgress},
		{types.ProjectStatusOnHold, types.ProjectStatusOnHold},
		{types.ProjectStatusCompleted, types.ProjectStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			gt.Value(t, tt.input.Normalize()).Equal(tt.want)
		})
	}

	// The legacy spelling is normalized but never valid on its own
	gt.Bool(t, types.ProjectStatus("In Progress").IsValid()).False()
}

func TestStatusDefaults(t *testing.T) {
	gt.Value(t, types.RiskStatus("").Normalize()).Equal(types.RiskStatusIdentified)
	gt.Value(t, types.IssueStatus("").Normalize()).Equal(types.IssueStatusOpen)
	gt.Value(t, types.ProjectHealth("").Normalize()).Equal(types.ProjectHealthOnTrack)
	gt.Value(t, types.MilestoneStatus("").Normalize()).Equal(types.MilestoneStatusPending)
}

func TestIssueStatus_IsTerminal(t *testing.T) {
	gt.Bool(t, types.IssueStatusResolved.IsTerminal()).True()
	gt.Bool(t, types.IssueStatusClosed.IsTerminal()).True()
	gt.Bool(t, types.IssueStatusOpen.IsTerminal()).False()
	gt.Bool(t, types.IssueStatusInProgress.IsTerminal()).False()
}

func TestParseEnums_RejectUnknown(t *testing.T) {
	_, err := types.ParseRiskCategory("Legal")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseRiskStatus("Closed")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseIssueSeverity("Blocker")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseIssuePriority("P0")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseProjectHealth("Green")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseMilestoneStatus("Done")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseRole("Admin")
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = types.ParseEntityType("Milestone")
	gt.Error(t, err).Is(types.ErrInvalidEnum)
}

func TestIssueCategory_EmptyIsValid(t *testing.T) {
	got, err := types.ParseIssueCategory("")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(types.IssueCategory(""))

	_, err = types.ParseIssueCategory("Security")
	gt.Error(t, err).Is(types.ErrInvalidEnum)
}

func TestRole_DefaultCapabilities(t *testing.T) {
	has := func(caps []types.Capability, c types.Capability) bool {
		for _, x := range caps {
			if x == c {
				return true
			}
		}
		return false
	}

	t.Run("PMO holds every capability", func(t *testing.T) {
		caps := types.RolePMO.DefaultCapabilities()
		gt.Array(t, caps).Length(len(types.AllCapabilities()))
	})

	t.Run("PM manages budget and risks but cannot delete", func(t *testing.T) {
		caps := types.RolePM.DefaultCapabilities()
		gt.Bool(t, has(caps, types.CapCreateProjects)).True()
		gt.Bool(t, has(caps, types.CapManageBudget)).True()
		gt.Bool(t, has(caps, types.CapManageRisks)).True()
		gt.Bool(t, has(caps, types.CapManageTasks)).True()
		gt.Bool(t, has(caps, types.CapDeleteProjects)).False()
		gt.Bool(t, has(caps, types.CapViewAllProjects)).False()
	})

	t.Run("Team member only uploads", func(t *testing.T) {
		caps := types.RoleTeamMember.DefaultCapabilities()
		gt.Array(t, caps).Length(1)
		gt.Value(t, caps[0]).Equal(types.CapUploadDocuments)
	})
}

func TestTaskStatus(t *testing.T) {
	gt.Value(t, types.TaskStatus("").Normalize()).Equal(types.TaskStatusToDo)
	gt.Value(t, types.TaskStatusInReview.Normalize()).Equal(types.TaskStatusInReview)

	gt.Bool(t, types.TaskStatusToDo.IsActive()).True()
	gt.Bool(t, types.TaskStatusInProgress.IsActive()).True()
	gt.Bool(t, types.TaskStatusInReview.IsActive()).False()
	gt.Bool(t, types.TaskStatusCompleted.IsActive()).False()

	for _, s := range types.AllTaskStatuses() {
		got, err := types.ParseTaskStatus(string(s))
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(s)
	}
	_, err := types.ParseTaskStatus("Done")
	gt.Error(t, err).Is(types.ErrInvalidEnum)
}

func TestTaskPriority(t *testing.T) {
	gt.Value(t, types.TaskPriority("").Normalize()).Equal(types.TaskPriorityMedium)

	got, err := types.ParseTaskPriority("Critical")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(types.TaskPriorityCritical)

	_, err = types.ParseTaskPriority("Urgent")
	gt.Error(t, err).Is(types.ErrInvalidEnum)
}
