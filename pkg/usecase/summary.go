package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/utils/errutil"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// SummaryUseCase keeps the denormalized counters of a project in line with
// its persisted risks, issues and milestones.
type SummaryUseCase struct {
	repo interfaces.Repository
}

func NewSummaryUseCase(repo interfaces.Repository) *SummaryUseCase {
	return &SummaryUseCase{repo: repo}
}

// RecomputeProjectSummaries rebuilds every counter of the project from
// scratch and stores them with one conditional write. The project is read
// before its children so that a concurrent recomputation invalidates this
// one instead of being overwritten by older counts.
func (uc *SummaryUseCase) RecomputeProjectSummaries(ctx context.Context, projectID types.ProjectID) (model.ProjectSummaries, error) {
	var summaries model.ProjectSummaries

	_, err := mutateProject(ctx, uc.repo, projectID, func(ctx context.Context, p *model.Project) (bool, error) {
		computed, err := uc.compute(ctx, p)
		if err != nil {
			return false, err
		}
		summaries = computed

		if computed == p.Summaries() {
			return false, nil
		}
		p.ApplySummaries(computed)
		return true, nil
	})
	if err != nil {
		return model.ProjectSummaries{}, err
	}

	logging.From(ctx).Debug("project summaries recomputed",
		"project_id", projectID,
		"risks", summaries.RiskSummary.Total,
		"issues", summaries.IssueSummary.Total)

	return summaries, nil
}

// RecomputeAll rebuilds the summaries of every project and returns how many
// were recomputed. Projects deleted after the listing are skipped. A failing
// project does not stop the pass; all failures are joined into the returned
// error.
func (uc *SummaryUseCase) RecomputeAll(ctx context.Context) (int, error) {
	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list projects")
	}

	var (
		recomputed int
		errs       []error
	)
	for _, p := range projects {
		if _, err := uc.RecomputeProjectSummaries(ctx, p.ID); err != nil {
			if errors.Is(err, ErrProjectNotFound) {
				logging.From(ctx).Info("project deleted before recompute, skipped", "project_id", p.ID)
				continue
			}
			errs = append(errs, goerr.Wrap(err, "failed to recompute project", goerr.V(ProjectIDKey, p.ID)))
			continue
		}
		recomputed++
	}
	return recomputed, errors.Join(errs...)
}

// refreshAfterChildWrite recomputes the project's summaries once a risk or
// issue write is committed. A failure is logged and reported instead of
// returned; the refresh worker repairs the counters on its next pass.
func (uc *SummaryUseCase) refreshAfterChildWrite(ctx context.Context, projectID types.ProjectID) {
	if _, err := uc.RecomputeProjectSummaries(ctx, projectID); err != nil {
		errutil.Handle(ctx, err, "failed to refresh project summary")
	}
}

func (uc *SummaryUseCase) compute(ctx context.Context, p *model.Project) (model.ProjectSummaries, error) {
	risks, err := uc.repo.Risk().ListByProject(ctx, p.ID)
	if err != nil {
		return model.ProjectSummaries{}, goerr.Wrap(err, "failed to list risks", goerr.V(ProjectIDKey, p.ID))
	}

	issues, err := uc.repo.Issue().ListByProject(ctx, p.ID)
	if err != nil {
		return model.ProjectSummaries{}, goerr.Wrap(err, "failed to list issues", goerr.V(ProjectIDKey, p.ID))
	}

	return model.ComputeProjectSummaries(p, risks, issues), nil
}
