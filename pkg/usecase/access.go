package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// principal returns the principal of the request, failing when the request
// is unauthenticated.
func principal(ctx context.Context) (*auth.Principal, error) {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return nil, goerr.Wrap(ErrPermissionDenied, "no authenticated principal")
	}
	return p, nil
}

// require returns the principal if it holds the capability
func require(ctx context.Context, c types.Capability) (*auth.Principal, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Can(c) {
		return nil, goerr.Wrap(ErrPermissionDenied, "missing capability",
			goerr.V(CapabilityKey, c),
			goerr.V("user_id", p.UserID),
			goerr.V("role", p.Role))
	}
	return p, nil
}

func checkProjectAccess(p *auth.Principal, project *model.Project) error {
	if !p.CanAccessProject(project) {
		return goerr.Wrap(ErrPermissionDenied, "project is not visible to principal",
			goerr.V(ProjectIDKey, project.ID),
			goerr.V("user_id", p.UserID))
	}
	return nil
}

// checkProjectAccessByID resolves the project only when the principal is
// scoped to its own projects.
func checkProjectAccessByID(ctx context.Context, repo interfaces.Repository, p *auth.Principal, projectID types.ProjectID) error {
	if p.Can(types.CapViewAllProjects) {
		return nil
	}
	project, err := getProject(ctx, repo, projectID)
	if err != nil {
		return err
	}
	return checkProjectAccess(p, project)
}
