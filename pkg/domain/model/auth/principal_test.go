package auth_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

func TestPrincipal_Can(t *testing.T) {
	pm := auth.NewPrincipal("u1", "pm@example.com", "Pat Morgan", types.RolePM)
	gt.Bool(t, pm.Can(types.CapManageRisks)).True()
	gt.Bool(t, pm.Can(types.CapDeleteProjects)).False()

	granted := auth.NewPrincipal("u2", "", "", types.RoleTeamMember, types.CapManageRisks, "not_a_capability")
	gt.Bool(t, granted.Can(types.CapManageRisks)).True()
	gt.Bool(t, granted.Can(types.CapUploadDocuments)).True()
	gt.Array(t, granted.Capabilities()).Length(2)

	var nobody *auth.Principal
	gt.Bool(t, nobody.Can(types.CapUploadDocuments)).False()
}

func TestPrincipal_CanAccessProject(t *testing.T) {
	pm := auth.NewPrincipal("u1", "", "", types.RolePM)
	pmo := auth.NewPrincipal("u9", "", "", types.RolePMO)

	own := &model.Project{PMID: "u1"}
	other := &model.Project{PMID: "u2"}
	unassigned := &model.Project{}

	gt.Bool(t, pm.CanAccessProject(own)).True()
	gt.Bool(t, pm.CanAccessProject(other)).False()
	gt.Bool(t, pm.CanAccessProject(unassigned)).False()
	gt.Bool(t, pmo.CanAccessProject(other)).True()
	gt.Bool(t, pmo.CanAccessProject(unassigned)).True()
}

func TestPrincipal_Context(t *testing.T) {
	ctx := context.Background()
	gt.Value(t, auth.PrincipalFromContext(ctx)).Nil()

	p := auth.NewSystemPrincipal()
	ctx = auth.ContextWithPrincipal(ctx, p)
	gt.Value(t, auth.PrincipalFromContext(ctx)).Equal(p)
	gt.Value(t, p.Initials()).Equal("S")
	gt.Value(t, p.Role).Equal(types.RolePMO)
}
