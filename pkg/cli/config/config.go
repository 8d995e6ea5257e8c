package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// SeedFile is the TOML document loaded by --seed
type SeedFile struct {
	Projects []SeedProject `toml:"project"`
}

// SeedProject is a project together with its risks and issues
type SeedProject struct {
	Name         string          `toml:"name"`
	Description  string          `toml:"description"`
	PMID         string          `toml:"pm_id"`
	Status       string          `toml:"status"`
	Health       string          `toml:"health"`
	Priority     string          `toml:"priority"`
	Type         string          `toml:"type"`
	Branch       string          `toml:"branch"`
	Progress     int             `toml:"progress"`
	PlannedStart *time.Time      `toml:"planned_start"`
	PlannedEnd   *time.Time      `toml:"planned_end"`
	Budget       *SeedBudget     `toml:"budget"`
	Milestones   []SeedMilestone `toml:"milestone"`
	Risks        []SeedRisk      `toml:"risk"`
	Issues       []SeedIssue     `toml:"issue"`
	Tasks        []SeedTask      `toml:"task"`
}

// SeedBudget is the structured budget of a seeded project
type SeedBudget struct {
	Total     float64 `toml:"total"`
	Allocated float64 `toml:"allocated"`
	Spent     float64 `toml:"spent"`
	Currency  string  `toml:"currency"`
}

// SeedMilestone is a milestone of a seeded project
type SeedMilestone struct {
	Name    string     `toml:"name"`
	Status  string     `toml:"status"`
	DueDate *time.Time `toml:"due_date"`
}

// SeedRisk is a risk of a seeded project
type SeedRisk struct {
	Title          string `toml:"title"`
	Description    string `toml:"description"`
	Category       string `toml:"category"`
	Probability    string `toml:"probability"`
	Impact         string `toml:"impact"`
	Status         string `toml:"status"`
	MitigationPlan string `toml:"mitigation_plan"`
	Owner          string `toml:"owner"`
}

// SeedIssue is an issue of a seeded project
type SeedIssue struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Category    string `toml:"category"`
	Severity    string `toml:"severity"`
	Priority    string `toml:"priority"`
	Status      string `toml:"status"`
	AssignedTo  string `toml:"assigned_to"`
}

// SeedTask is a task of a seeded project
type SeedTask struct {
	Title          string     `toml:"title"`
	Description    string     `toml:"description"`
	Status         string     `toml:"status"`
	Priority       string     `toml:"priority"`
	AssignedTo     string     `toml:"assigned_to"`
	DueDate        *time.Time `toml:"due_date"`
	EstimatedHours float64    `toml:"estimated_hours"`
}

// Validate checks if the SeedRisk is valid
func (r *SeedRisk) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return goerr.Wrap(ErrMissingName, "risk title is required")
	}
	if _, err := types.ParseRiskCategory(r.Category); err != nil {
		return goerr.Wrap(err, "invalid risk category", goerr.V(SeedTitleKey, r.Title))
	}
	if _, err := model.ScoreRisk(types.Rating(r.Probability), types.Rating(r.Impact)); err != nil {
		return goerr.Wrap(err, "invalid risk rating", goerr.V(SeedTitleKey, r.Title))
	}
	if _, err := types.ParseRiskStatus(string(types.RiskStatus(r.Status).Normalize())); err != nil {
		return goerr.Wrap(err, "invalid risk status", goerr.V(SeedTitleKey, r.Title))
	}
	return nil
}

// Validate checks if the SeedIssue is valid
func (i *SeedIssue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return goerr.Wrap(ErrMissingName, "issue title is required")
	}
	if _, err := types.ParseIssueCategory(i.Category); err != nil {
		return goerr.Wrap(err, "invalid issue category", goerr.V(SeedTitleKey, i.Title))
	}
	if _, err := types.ParseIssueSeverity(i.Severity); err != nil {
		return goerr.Wrap(err, "invalid issue severity", goerr.V(SeedTitleKey, i.Title))
	}
	if _, err := types.ParseIssuePriority(i.Priority); err != nil {
		return goerr.Wrap(err, "invalid issue priority", goerr.V(SeedTitleKey, i.Title))
	}
	if _, err := types.ParseIssueStatus(string(types.IssueStatus(i.Status).Normalize())); err != nil {
		return goerr.Wrap(err, "invalid issue status", goerr.V(SeedTitleKey, i.Title))
	}
	return nil
}

// Validate checks if the SeedTask is valid
func (t *SeedTask) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return goerr.Wrap(ErrMissingName, "task title is required")
	}
	if _, err := types.ParseTaskStatus(string(types.TaskStatus(t.Status).Normalize())); err != nil {
		return goerr.Wrap(err, "invalid task status", goerr.V(SeedTitleKey, t.Title))
	}
	if _, err := types.ParseTaskPriority(string(types.TaskPriority(t.Priority).Normalize())); err != nil {
		return goerr.Wrap(err, "invalid task priority", goerr.V(SeedTitleKey, t.Title))
	}
	if t.EstimatedHours < 0 {
		return goerr.Wrap(ErrInvalidConfig, "estimated hours must not be negative", goerr.V(SeedTitleKey, t.Title))
	}
	return nil
}

// Validate checks if the SeedProject is valid
func (p *SeedProject) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return goerr.Wrap(ErrMissingName, "project name is required")
	}
	if _, err := types.ParseProjectStatus(string(types.ProjectStatus(p.Status).Normalize())); err != nil {
		return goerr.Wrap(err, "invalid project status", goerr.V(SeedTitleKey, p.Name))
	}
	if _, err := types.ParseProjectHealth(string(types.ProjectHealth(p.Health).Normalize())); err != nil {
		return goerr.Wrap(err, "invalid project health", goerr.V(SeedTitleKey, p.Name))
	}
	if p.Progress < 0 || p.Progress > 100 {
		return goerr.Wrap(ErrInvalidConfig, "progress must be between 0 and 100",
			goerr.V(SeedTitleKey, p.Name),
			goerr.V("progress", p.Progress))
	}

	for i, m := range p.Milestones {
		if strings.TrimSpace(m.Name) == "" {
			return goerr.Wrap(ErrMissingName, "milestone name is required",
				goerr.V(SeedTitleKey, p.Name),
				goerr.V(SeedIndexKey, i))
		}
		if _, err := types.ParseMilestoneStatus(string(types.MilestoneStatus(m.Status).Normalize())); err != nil {
			return goerr.Wrap(err, "invalid milestone status", goerr.V(SeedTitleKey, p.Name))
		}
	}
	for i := range p.Risks {
		if err := p.Risks[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid risk", goerr.V(SeedTitleKey, p.Name), goerr.V(SeedIndexKey, i))
		}
	}
	for i := range p.Issues {
		if err := p.Issues[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid issue", goerr.V(SeedTitleKey, p.Name), goerr.V(SeedIndexKey, i))
		}
	}
	for i := range p.Tasks {
		if err := p.Tasks[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid task", goerr.V(SeedTitleKey, p.Name), goerr.V(SeedIndexKey, i))
		}
	}
	return nil
}

// Validate checks if the SeedFile is valid
func (s *SeedFile) Validate() error {
	names := make(map[string]bool)
	for i := range s.Projects {
		p := &s.Projects[i]
		if err := p.Validate(); err != nil {
			return goerr.Wrap(err, "invalid project", goerr.V(SeedIndexKey, i))
		}
		if names[p.Name] {
			return goerr.Wrap(ErrDuplicateName, "duplicate project name", goerr.V(SeedTitleKey, p.Name))
		}
		names[p.Name] = true
	}
	return nil
}

// LoadSeedFile loads and validates a seed TOML file
func LoadSeedFile(path string) (*SeedFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "seed file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V(ConfigPathKey, path))
	}

	var seed SeedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML seed file",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := seed.Validate(); err != nil {
		return nil, goerr.Wrap(err, "seed validation failed", goerr.V(ConfigPathKey, path))
	}

	return &seed, nil
}

// SeedResult counts the records created by Apply
type SeedResult struct {
	Projects int
	Risks    int
	Issues   int
	Tasks    int
	Skipped  bool
}

// Apply writes the seed through the usecases so that codes, scores, budgets
// and summaries are derived exactly as for API writes. A store that already
// holds projects is left untouched. ctx must carry a principal allowed to
// create projects, risks, tasks and budgets.
func (s *SeedFile) Apply(ctx context.Context, uc *usecase.UseCases) (*SeedResult, error) {
	count, err := uc.Project.CountProjects(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count projects")
	}
	if count > 0 {
		logging.From(ctx).Info("Store is not empty, skipping seed", "projects", count)
		return &SeedResult{Skipped: true}, nil
	}

	result := &SeedResult{}
	for _, sp := range s.Projects {
		project, err := uc.Project.CreateProject(ctx, sp.toInput())
		if err != nil {
			return result, goerr.Wrap(err, "failed to seed project", goerr.V(SeedTitleKey, sp.Name))
		}
		result.Projects++

		for _, sr := range sp.Risks {
			if _, err := uc.Risk.CreateRisk(ctx, sr.toInput(project.ID)); err != nil {
				return result, goerr.Wrap(err, "failed to seed risk", goerr.V(SeedTitleKey, sr.Title))
			}
			result.Risks++
		}
		for _, si := range sp.Issues {
			if _, err := uc.Issue.CreateIssue(ctx, si.toInput(project.ID)); err != nil {
				return result, goerr.Wrap(err, "failed to seed issue", goerr.V(SeedTitleKey, si.Title))
			}
			result.Issues++
		}
		for _, st := range sp.Tasks {
			if _, err := uc.Task.CreateTask(ctx, st.toInput(project.ID)); err != nil {
				return result, goerr.Wrap(err, "failed to seed task", goerr.V(SeedTitleKey, st.Title))
			}
			result.Tasks++
		}
	}

	logging.From(ctx).Info("Seed applied",
		"projects", result.Projects,
		"risks", result.Risks,
		"issues", result.Issues,
		"tasks", result.Tasks)
	return result, nil
}

func (p *SeedProject) toInput() usecase.ProjectInput {
	in := usecase.ProjectInput{
		Name:         p.Name,
		Description:  p.Description,
		PMID:         types.UserID(p.PMID),
		Status:       types.ProjectStatus(p.Status),
		Health:       types.ProjectHealth(p.Health),
		Priority:     p.Priority,
		Type:         p.Type,
		Branch:       p.Branch,
		Progress:     p.Progress,
		PlannedStart: p.PlannedStart,
		PlannedEnd:   p.PlannedEnd,
	}
	for _, m := range p.Milestones {
		in.Milestones = append(in.Milestones, model.Milestone{
			Name:    m.Name,
			Status:  types.MilestoneStatus(m.Status),
			DueDate: m.DueDate,
		})
	}
	if p.Budget != nil {
		in.Budget = &model.Budget{
			Total:     p.Budget.Total,
			Allocated: p.Budget.Allocated,
			Spent:     p.Budget.Spent,
			Currency:  p.Budget.Currency,
		}
	}
	return in
}

func (r *SeedRisk) toInput(projectID types.ProjectID) usecase.RiskInput {
	return usecase.RiskInput{
		ProjectID:      projectID,
		Title:          r.Title,
		Description:    r.Description,
		Category:       types.RiskCategory(r.Category),
		Probability:    types.Rating(r.Probability),
		Impact:         types.Rating(r.Impact),
		Status:         types.RiskStatus(r.Status),
		MitigationPlan: r.MitigationPlan,
		OwnerID:        types.UserID(r.Owner),
	}
}

func (i *SeedIssue) toInput(projectID types.ProjectID) usecase.IssueInput {
	return usecase.IssueInput{
		ProjectID:   projectID,
		Title:       i.Title,
		Description: i.Description,
		Category:    types.IssueCategory(i.Category),
		Severity:    types.IssueSeverity(i.Severity),
		Priority:    types.IssuePriority(i.Priority),
		Status:      types.IssueStatus(i.Status),
		AssignedTo:  types.UserID(i.AssignedTo),
	}
}

func (t *SeedTask) toInput(projectID types.ProjectID) usecase.TaskInput {
	return usecase.TaskInput{
		ProjectID:      projectID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         types.TaskStatus(t.Status),
		Priority:       types.TaskPriority(t.Priority),
		AssignedTo:     types.UserID(t.AssignedTo),
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
	}
}

// Seed holds the CLI flag naming a seed file
type Seed struct {
	path string
}

// Flags returns CLI flags for seed configuration
func (s *Seed) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "seed",
			Usage:       "TOML file with projects, risks and issues loaded into an empty store",
			Sources:     cli.EnvVars("PMOTRACKER_SEED"),
			Destination: &s.path,
		},
	}
}

// Path returns the configured seed file path
func (s *Seed) Path() string {
	return s.path
}

// Configure loads the seed file, or returns nil when none is configured
func (s *Seed) Configure() (*SeedFile, error) {
	if s.path == "" {
		return nil, nil
	}
	return LoadSeedFile(s.path)
}
