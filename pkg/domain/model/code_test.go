package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
)

func TestCodes(t *testing.T) {
	gt.Value(t, model.ProjectCode(2026, 7)).Equal("PRJ-2026-007")
	gt.Value(t, model.ProjectCode(2026, 1234)).Equal("PRJ-2026-1234")
	gt.Value(t, model.RiskCode(1)).Equal("RISK-001")
	gt.Value(t, model.IssueCode(42)).Equal("ISS-042")
	gt.Value(t, model.TaskCode(3)).Equal("TSK-0003")
}

func TestCodeSeq(t *testing.T) {
	tests := []struct {
		code   string
		prefix string
		want   int64
		ok     bool
	}{
		{"RISK-007", model.RiskCodePrefix, 7, true},
		{"ISS-1234", model.IssueCodePrefix, 1234, true},
		{"PRJ-2026-012", model.ProjectCodePrefix(2026), 12, true},
		{"PRJ-2025-012", model.ProjectCodePrefix(2026), 0, false},
		{"RISK-", model.RiskCodePrefix, 0, false},
		{"RISK-abc", model.RiskCodePrefix, 0, false},
		{"ISS-003", model.RiskCodePrefix, 0, false},
		{"TSK-0042", model.TaskCodePrefix, 42, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			seq, ok := model.CodeSeq(tt.code, tt.prefix)
			gt.Value(t, ok).Equal(tt.ok)
			gt.Value(t, seq).Equal(tt.want)
		})
	}
}

func TestMaxCodeSeq(t *testing.T) {
	gt.Value(t, model.MaxCodeSeq(model.RiskCodePrefix, "RISK-002", "RISK-010", "ISS-099", "")).Equal(int64(10))
	gt.Value(t, model.MaxCodeSeq(model.RiskCodePrefix)).Equal(int64(0))
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jane Doe", "JD"},
		{"  ada   lovelace  ", "AL"},
		{"Prince", "P"},
		{"élise martin", "ÉM"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.Initials(tt.name)).Equal(tt.want)
		})
	}
}

func TestProject_CloneIsDeep(t *testing.T) {
	p := &model.Project{
		Milestones: []model.Milestone{{Name: "a"}},
		Legacy:     &model.LegacyBudget{Budget: 1},
	}

	c := p.Clone()
	c.Milestones[0].Name = "b"
	c.Legacy.Budget = 2

	gt.Value(t, p.Milestones[0].Name).Equal("a")
	gt.Value(t, p.Legacy.Budget).Equal(1.0)
}

func TestIssue_CloneCopiesComments(t *testing.T) {
	i := &model.Issue{Comments: []model.IssueComment{{Comment: "first"}}}

	c := i.Clone()
	c.Comments[0].Comment = "changed"
	c.Comments = append(c.Comments, model.IssueComment{Comment: "second"})

	gt.Array(t, i.Comments).Length(1)
	gt.Value(t, i.Comments[0].Comment).Equal("first")
}

func TestTask_CloneIsDeep(t *testing.T) {
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	task := &model.Task{DueDate: &due}

	c := task.Clone()
	*c.DueDate = due.AddDate(0, 0, 1)

	gt.Value(t, *task.DueDate).Equal(due)
}
