package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// codeCounter describes one per-project code sequence
type codeCounter struct {
	entity string
	prefix string
	seq    func(p *model.Project) *int64
	// stored lists the codes already in use, to seed projects written
	// before the counter existed
	stored func(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) ([]string, error)
	format func(seq int64) string
}

var (
	riskCounter = codeCounter{
		entity: "risks",
		prefix: model.RiskCodePrefix,
		seq:    func(p *model.Project) *int64 { return &p.RiskSeq },
		stored: func(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) ([]string, error) {
			risks, err := repo.Risk().ListByProject(ctx, projectID)
			if err != nil {
				return nil, err
			}
			codes := make([]string, 0, len(risks))
			for _, r := range risks {
				codes = append(codes, r.Code)
			}
			return codes, nil
		},
		format: model.RiskCode,
	}

	issueCounter = codeCounter{
		entity: "issues",
		prefix: model.IssueCodePrefix,
		seq:    func(p *model.Project) *int64 { return &p.IssueSeq },
		stored: func(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) ([]string, error) {
			issues, err := repo.Issue().ListByProject(ctx, projectID)
			if err != nil {
				return nil, err
			}
			codes := make([]string, 0, len(issues))
			for _, i := range issues {
				codes = append(codes, i.Code)
			}
			return codes, nil
		},
		format: model.IssueCode,
	}

	taskCounter = codeCounter{
		entity: "tasks",
		prefix: model.TaskCodePrefix,
		seq:    func(p *model.Project) *int64 { return &p.TaskSeq },
		stored: func(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) ([]string, error) {
			tasks, err := repo.Task().ListByProject(ctx, projectID)
			if err != nil {
				return nil, err
			}
			codes := make([]string, 0, len(tasks))
			for _, t := range tasks {
				codes = append(codes, t.Code)
			}
			return codes, nil
		},
		format: model.TaskCode,
	}
)

// allocate hands out the next code of the project. The counter lives on the
// project and is bumped with a conditional write, so concurrent creates never
// share a code and the code of a deleted entity is never handed out again.
func (c codeCounter) allocate(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) (string, error) {
	var next int64
	_, err := mutateProject(ctx, repo, projectID, func(ctx context.Context, project *model.Project) (bool, error) {
		seq := c.seq(project)
		if *seq == 0 {
			codes, err := c.stored(ctx, repo, project.ID)
			if err != nil {
				return false, goerr.Wrap(err, "failed to list "+c.entity, goerr.V(ProjectIDKey, project.ID))
			}
			*seq = model.MaxCodeSeq(c.prefix, codes...)
		}

		*seq++
		next = *seq
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return c.format(next), nil
}

func allocateRiskCode(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) (string, error) {
	return riskCounter.allocate(ctx, repo, projectID)
}

func allocateIssueCode(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) (string, error) {
	return issueCounter.allocate(ctx, repo, projectID)
}

func allocateTaskCode(ctx context.Context, repo interfaces.Repository, projectID types.ProjectID) (string, error) {
	return taskCounter.allocate(ctx, repo, projectID)
}
