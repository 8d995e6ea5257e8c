package http

import (
	"time"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

type milestoneJSON struct {
	Name       string     `json:"name"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Status     string     `json:"status"`
	AssignedTo string     `json:"assignedTo,omitempty"`
}

type budgetJSON struct {
	Total     float64 `json:"total"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
	Variance  float64 `json:"variance"`
	Currency  string  `json:"currency"`
}

type riskSummaryJSON struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

type issueSummaryJSON struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}

type projectRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PMID         string          `json:"pmId"`
	Status       string          `json:"status"`
	Health       string          `json:"health"`
	Priority     string          `json:"priority"`
	Type         string          `json:"type"`
	Branch       string          `json:"branch"`
	Progress     int             `json:"progress"`
	PlannedStart *time.Time      `json:"plannedStartDate"`
	PlannedEnd   *time.Time      `json:"plannedEndDate"`
	Milestones   []milestoneJSON `json:"milestones"`
	Budget       *budgetJSON     `json:"budget"`
}

type projectResponse struct {
	ID                  string           `json:"id"`
	CaseID              string           `json:"caseId"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	PMID                string           `json:"pmId"`
	Status              string           `json:"status"`
	Health              string           `json:"health"`
	Priority            string           `json:"priority"`
	Type                string           `json:"type"`
	Branch              string           `json:"branch"`
	Progress            int              `json:"progress"`
	PlannedStart        *time.Time       `json:"plannedStartDate,omitempty"`
	PlannedEnd          *time.Time       `json:"plannedEndDate,omitempty"`
	Milestones          []milestoneJSON  `json:"milestones"`
	Budget              budgetJSON       `json:"budget"`
	TotalMilestones     int              `json:"totalMilestones"`
	CompletedMilestones int              `json:"completedMilestones"`
	RiskSummary         riskSummaryJSON  `json:"riskSummary"`
	IssueSummary        issueSummaryJSON `json:"issueSummary"`
	CreatedBy           string           `json:"createdBy"`
	LastModifiedBy      string           `json:"lastModifiedBy"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	Version             int64            `json:"version"`
}

type riskRequest struct {
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Probability    string     `json:"probability"`
	Impact         string     `json:"impact"`
	Status         string     `json:"status"`
	MitigationPlan string     `json:"mitigationPlan"`
	OwnerID        string     `json:"owner"`
	IdentifiedAt   *time.Time `json:"identifiedDate"`
}

type riskResponse struct {
	ID             string    `json:"id"`
	Code           string    `json:"riskId"`
	ProjectID      string    `json:"projectId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Probability    string    `json:"probability"`
	Impact         string    `json:"impact"`
	Score          int       `json:"riskScore"`
	Level          string    `json:"riskLevel"`
	Status         string    `json:"status"`
	MitigationPlan string    `json:"mitigationPlan"`
	OwnerID        string    `json:"owner"`
	CreatedBy      string    `json:"createdBy"`
	IdentifiedAt   time.Time `json:"identifiedDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type scoreResponse struct {
	Score int    `json:"riskScore"`
	Level string `json:"riskLevel"`
}

type issueRequest struct {
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Severity    string     `json:"severity"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assignedTo"`
	Resolution  string     `json:"resolution"`
	DueDate     *time.Time `json:"dueDate"`
}

type issueResponse struct {
	ID          string     `json:"id"`
	Code        string     `json:"issueId"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Severity    string     `json:"severity"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	ReportedBy  string     `json:"reportedBy"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Comments []issueCommentJSON `json:"comments"`
}

type issueCommentJSON struct {
	UserID    string    `json:"userId"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type taskRequest struct {
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssignedTo     string     `json:"assignedTo"`
	DueDate        *time.Time `json:"dueDate"`
	EstimatedHours float64    `json:"estimatedHours"`
	ActualHours    float64    `json:"actualHours"`
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

type taskResponse struct {
	ID             string     `json:"id"`
	Code           string     `json:"taskId"`
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssignedTo     string     `json:"assignedTo,omitempty"`
	AssignedBy     string     `json:"assignedBy,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	EstimatedHours float64    `json:"estimatedHours"`
	ActualHours    float64    `json:"actualHours"`
	CompletedAt    *time.Time `json:"completedDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type meResponse struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Initials     string   `json:"initials"`
	Capabilities []string `json:"permissions"`
}

type dashboardResponse struct {
	TotalProjects      int `json:"totalProjects"`
	CompletedProjects  int `json:"completedProjects"`
	PlanningProjects   int `json:"planningProjects"`
	InProgressProjects int `json:"inProgressProjects"`
	OnHoldProjects     int `json:"onHoldProjects"`
	CancelledProjects  int `json:"cancelledProjects"`
	AtRiskProjects     int `json:"atRiskProjects"`
	TotalRisks         int `json:"totalRisks"`
	CriticalRisks      int `json:"criticalRisks"`
	OpenIssues         int `json:"openIssues"`
	TotalTasks         int `json:"totalTasks"`
	MyTasks            int `json:"myTasks"`
}

type auditLogResponse struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	UserEmail  string         `json:"userEmail"`
	UserName   string         `json:"userName"`
	UserRole   string         `json:"userRole"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Changes    map[string]any `json:"changes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

func (req *projectRequest) toInput() usecase.ProjectInput {
	in := usecase.ProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		PMID:         types.UserID(req.PMID),
		Status:       types.ProjectStatus(req.Status),
		Health:       types.ProjectHealth(req.Health),
		Priority:     req.Priority,
		Type:         req.Type,
		Branch:       req.Branch,
		Progress:     req.Progress,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
	}
	for _, m := range req.Milestones {
		in.Milestones = append(in.Milestones, model.Milestone{
			Name:       m.Name,
			DueDate:    m.DueDate,
			Status:     types.MilestoneStatus(m.Status),
			AssignedTo: types.UserID(m.AssignedTo),
		})
	}
	if req.Budget != nil {
		in.Budget = &model.Budget{
			Total:     req.Budget.Total,
			Allocated: req.Budget.Allocated,
			Spent:     req.Budget.Spent,
			Variance:  req.Budget.Variance,
			Currency:  req.Budget.Currency,
		}
	}
	return in
}

func toProjectResponse(p *model.Project) projectResponse {
	milestones := make([]milestoneJSON, len(p.Milestones))
	for i, m := range p.Milestones {
		milestones[i] = milestoneJSON{
			Name:       m.Name,
			DueDate:    m.DueDate,
			Status:     m.Status.String(),
			AssignedTo: string(m.AssignedTo),
		}
	}

	return projectResponse{
		ID:           p.ID.String(),
		CaseID:       p.CaseID,
		Name:         p.Name,
		Description:  p.Description,
		PMID:         string(p.PMID),
		Status:       p.Status.String(),
		Health:       p.Health.String(),
		Priority:     p.Priority,
		Type:         p.Type,
		Branch:       p.Branch,
		Progress:     p.Progress,
		PlannedStart: p.PlannedStart,
		PlannedEnd:   p.PlannedEnd,
		Milestones:   milestones,
		Budget: budgetJSON{
			Total:     p.Budget.Total,
			Allocated: p.Budget.Allocated,
			Spent:     p.Budget.Spent,
			Variance:  p.Budget.Variance,
			Currency:  p.Budget.Currency,
		},
		TotalMilestones:     p.TotalMilestones,
		CompletedMilestones: p.CompletedMilestones,
		RiskSummary: riskSummaryJSON{
			Total:    p.RiskSummary.Total,
			Critical: p.RiskSummary.Critical,
			High:     p.RiskSummary.High,
			Medium:   p.RiskSummary.Medium,
			Low:      p.RiskSummary.Low,
		},
		IssueSummary: issueSummaryJSON{
			Total:    p.IssueSummary.Total,
			Open:     p.IssueSummary.Open,
			Resolved: p.IssueSummary.Resolved,
		},
		CreatedBy:      string(p.CreatedBy),
		LastModifiedBy: string(p.LastModifiedBy),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}

func (req *riskRequest) toInput() usecase.RiskInput {
	return usecase.RiskInput{
		ProjectID:      types.ProjectID(req.ProjectID),
		Title:          req.Title,
		Description:    req.Description,
		Category:       types.RiskCategory(req.Category),
		Probability:    types.Rating(req.Probability),
		Impact:         types.Rating(req.Impact),
		Status:         types.RiskStatus(req.Status),
		MitigationPlan: req.MitigationPlan,
		OwnerID:        types.UserID(req.OwnerID),
		IdentifiedAt:   req.IdentifiedAt,
	}
}

func toRiskResponse(r *model.Risk) riskResponse {
	return riskResponse{
		ID:             r.ID.String(),
		Code:           r.Code,
		ProjectID:      r.ProjectID.String(),
		Title:          r.Title,
		Description:    r.Description,
		Category:       string(r.Category),
		Probability:    r.Probability.String(),
		Impact:         r.Impact.String(),
		Score:          r.Score,
		Level:          string(r.Level),
		Status:         string(r.Status),
		MitigationPlan: r.MitigationPlan,
		OwnerID:        string(r.OwnerID),
		CreatedBy:      string(r.CreatedBy),
		IdentifiedAt:   r.IdentifiedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (req *issueRequest) toInput() usecase.IssueInput {
	return usecase.IssueInput{
		ProjectID:   types.ProjectID(req.ProjectID),
		Title:       req.Title,
		Description: req.Description,
		Category:    types.IssueCategory(req.Category),
		Severity:    types.IssueSeverity(req.Severity),
		Priority:    types.IssuePriority(req.Priority),
		Status:      types.IssueStatus(req.Status),
		AssignedTo:  types.UserID(req.AssignedTo),
		Resolution:  req.Resolution,
		DueDate:     req.DueDate,
	}
}

func toIssueResponse(i *model.Issue) issueResponse {
	comments := make([]issueCommentJSON, len(i.Comments))
	for n, c := range i.Comments {
		comments[n] = issueCommentJSON{
			UserID:    string(c.UserID),
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		}
	}
	return issueResponse{
		ID:          i.ID.String(),
		Code:        i.Code,
		ProjectID:   i.ProjectID.String(),
		Title:       i.Title,
		Description: i.Description,
		Category:    string(i.Category),
		Severity:    string(i.Severity),
		Priority:    string(i.Priority),
		Status:      string(i.Status),
		AssignedTo:  string(i.AssignedTo),
		ReportedBy:  string(i.ReportedBy),
		Resolution:  i.Resolution,
		ResolvedAt:  i.ResolvedAt,
		DueDate:     i.DueDate,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Comments:    comments,
	}
}

func (req *taskRequest) toInput() usecase.TaskInput {
	return usecase.TaskInput{
		ProjectID:      types.ProjectID(req.ProjectID),
		Title:          req.Title,
		Description:    req.Description,
		Status:         types.TaskStatus(req.Status),
		Priority:       types.TaskPriority(req.Priority),
		AssignedTo:     types.UserID(req.AssignedTo),
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:             t.ID.String(),
		Code:           t.Code,
		ProjectID:      t.ProjectID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status.String(),
		Priority:       t.Priority.String(),
		AssignedTo:     string(t.AssignedTo),
		AssignedBy:     string(t.AssignedBy),
		CreatedBy:      string(t.CreatedBy),
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toTaskResponses(tasks []*model.Task) []taskResponse {
	resp := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = toTaskResponse(t)
	}
	return resp
}

func toMeResponse(p *auth.Principal) meResponse {
	caps := make([]string, 0)
	for _, c := range p.Capabilities() {
		caps = append(caps, c.String())
	}
	return meResponse{
		ID:           string(p.UserID),
		Email:        p.Email,
		Name:         p.Name,
		Role:         p.Role.String(),
		Initials:     p.Initials(),
		Capabilities: caps,
	}
}

func toDashboardResponse(s *usecase.DashboardStats) dashboardResponse {
	return dashboardResponse{
		TotalProjects:      s.TotalProjects,
		CompletedProjects:  s.CompletedProjects,
		PlanningProjects:   s.PlanningProjects,
		InProgressProjects: s.InProgressProjects,
		OnHoldProjects:     s.OnHoldProjects,
		CancelledProjects:  s.CancelledProjects,
		AtRiskProjects:     s.AtRiskProjects,
		TotalRisks:         s.TotalRisks,
		CriticalRisks:      s.CriticalRisks,
		OpenIssues:         s.OpenIssues,
		TotalTasks:         s.TotalTasks,
		MyTasks:            s.MyTasks,
	}
}

func toAuditLogResponse(l *model.AuditLog) auditLogResponse {
	return auditLogResponse{
		ID:         l.ID,
		UserID:     string(l.UserID),
		UserEmail:  l.UserEmail,
		UserName:   l.UserName,
		UserRole:   l.UserRole.String(),
		Action:     string(l.Action),
		EntityType: string(l.EntityType),
		EntityID:   l.EntityID,
		Changes:    l.Changes,
		Timestamp:  l.Timestamp,
	}
}
