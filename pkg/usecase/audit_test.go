package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

func TestAuditUseCase(t *testing.T) {
	uc, _ := newTestUseCases(t)
	ctx := pmoContext()
	project := createTestProject(t, ctx, uc, "Audited")
	risk := createTestRisk(t, ctx, uc, project.ID, types.RatingHigh, types.RatingHigh)
	gt.NoError(t, uc.Risk.DeleteRisk(ctx, risk.ID)).Required()

	t.Run("writes are recorded newest first", func(t *testing.T) {
		logs, err := uc.Audit.List(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(3)

		byAction := map[types.AuditAction]types.EntityType{}
		for _, l := range logs {
			gt.Value(t, l.UserID).Equal(types.UserID("pmo-1"))
			gt.Value(t, l.UserRole).Equal(types.RolePMO)
			byAction[l.Action] = l.EntityType
		}
		gt.Value(t, byAction[types.AuditActionCreate]).NotEqual("")
		gt.Value(t, byAction[types.AuditActionDelete]).Equal(types.EntityTypeRisk)

		for i := 1; i < len(logs); i++ {
			gt.Bool(t, logs[i].Timestamp.After(logs[i-1].Timestamp)).False()
		}
	})

	t.Run("limit", func(t *testing.T) {
		logs, err := uc.Audit.List(ctx, 1)
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(1)
	})

	t.Run("history of one risk", func(t *testing.T) {
		logs, err := uc.Audit.History(ctx, types.EntityTypeRisk, string(risk.ID), 0)
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(2)

		actions := []types.AuditAction{logs[0].Action, logs[1].Action}
		gt.Array(t, actions).Has(types.AuditActionCreate)
		gt.Array(t, actions).Has(types.AuditActionDelete)
		for _, l := range logs {
			gt.Value(t, l.EntityID).Equal(string(risk.ID))
		}
	})

	t.Run("history validates input", func(t *testing.T) {
		_, err := uc.Audit.History(ctx, types.EntityType("Milestone"), "x", 0)
		gt.Error(t, err).Is(types.ErrInvalidEnum)

		_, err = uc.Audit.History(ctx, types.EntityTypeRisk, "", 0)
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("requires manage_users", func(t *testing.T) {
		_, err := uc.Audit.List(pmContext("pm-1"), 10)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		_, err = uc.Audit.History(pmContext("pm-1"), types.EntityTypeRisk, string(risk.ID), 10)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})
}
