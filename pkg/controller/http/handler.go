package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/errutil"
)

const maxRequestBodySize = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.uc.Repository().Name(),
	})
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("authentication required"), http.StatusUnauthorized)
		return
	}
	writeJSON(w, r, http.StatusOK, toMeResponse(p))
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.uc.Dashboard.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDashboardResponse(stats))
}

func (s *Server) auditLogsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("invalid limit", goerr.V("limit", v)), http.StatusBadRequest)
			return
		}
		limit = n
	}

	// entityType and entityId narrow the listing to one record's history
	var (
		logs []*model.AuditLog
		err  error
	)
	q := r.URL.Query()
	if q.Get("entityType") != "" || q.Get("entityId") != "" {
		logs, err = s.uc.Audit.History(r.Context(), types.EntityType(q.Get("entityType")), q.Get("entityId"), limit)
	} else {
		logs, err = s.uc.Audit.List(r.Context(), limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]auditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = toAuditLogResponse(l)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := s.uc.Project.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]projectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toProjectResponse(p)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := s.uc.Project.CreateProject(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toProjectResponse(project))
}

func (s *Server) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := s.uc.Project.GetProject(r.Context(), types.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProjectResponse(project))
}

func (s *Server) updateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := s.uc.Project.UpdateProject(r.Context(), types.ProjectID(chi.URLParam(r, "id")), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProjectResponse(project))
}

func (s *Server) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Project.DeleteProject(r.Context(), types.ProjectID(chi.URLParam(r, "id"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recomputeProjectHandler(w http.ResponseWriter, r *http.Request) {
	id := types.ProjectID(chi.URLParam(r, "id"))
	// Resolve through the scoped getter so that hidden projects stay hidden
	if _, err := s.uc.Project.GetProject(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.uc.Summary.RecomputeProjectSummaries(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	project, err := s.uc.Project.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProjectResponse(project))
}

func (s *Server) listRisksHandler(w http.ResponseWriter, r *http.Request) {
	risks, err := s.uc.Risk.ListRisks(r.Context(), types.ProjectID(r.URL.Query().Get("projectId")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]riskResponse, len(risks))
	for i, risk := range risks {
		resp[i] = toRiskResponse(risk)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) scoreRiskHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	score, err := s.uc.Risk.ScoreRisk(types.Rating(q.Get("probability")), types.Rating(q.Get("impact")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, scoreResponse{Score: score.Score, Level: score.Level.String()})
}

func (s *Server) createRiskHandler(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	risk, err := s.uc.Risk.CreateRisk(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toRiskResponse(risk))
}

func (s *Server) getRiskHandler(w http.ResponseWriter, r *http.Request) {
	risk, err := s.uc.Risk.GetRisk(r.Context(), types.RiskID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) updateRiskHandler(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	risk, err := s.uc.Risk.UpdateRisk(r.Context(), types.RiskID(chi.URLParam(r, "id")), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) deleteRiskHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Risk.DeleteRisk(r.Context(), types.RiskID(chi.URLParam(r, "id"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listIssuesHandler(w http.ResponseWriter, r *http.Request) {
	issues, err := s.uc.Issue.ListIssues(r.Context(), types.ProjectID(r.URL.Query().Get("projectId")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]issueResponse, len(issues))
	for i, issue := range issues {
		resp[i] = toIssueResponse(issue)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) createIssueHandler(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issue, err := s.uc.Issue.CreateIssue(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toIssueResponse(issue))
}

func (s *Server) getIssueHandler(w http.ResponseWriter, r *http.Request) {
	issue, err := s.uc.Issue.GetIssue(r.Context(), types.IssueID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toIssueResponse(issue))
}

func (s *Server) updateIssueHandler(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issue, err := s.uc.Issue.UpdateIssue(r.Context(), types.IssueID(chi.URLParam(r, "id")), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toIssueResponse(issue))
}

func (s *Server) deleteIssueHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Issue.DeleteIssue(r.Context(), types.IssueID(chi.URLParam(r, "id"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addIssueCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issue, err := s.uc.Issue.AddComment(r.Context(), types.IssueID(chi.URLParam(r, "id")), req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toIssueResponse(issue))
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.uc.Task.ListTasks(r.Context(), usecase.TaskFilter{
		ProjectID:  types.ProjectID(q.Get("projectId")),
		AssignedTo: types.UserID(q.Get("assignedTo")),
		Status:     types.TaskStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTaskResponses(tasks))
}

func (s *Server) myTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.uc.Task.MyTasks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTaskResponses(tasks))
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.uc.Task.CreateTask(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toTaskResponse(task))
}

func (s *Server) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := s.uc.Task.GetTask(r.Context(), types.TaskID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTaskResponse(task))
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.uc.Task.UpdateTask(r.Context(), types.TaskID(chi.URLParam(r, "id")), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTaskResponse(task))
}

func (s *Server) setTaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req taskStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.uc.Task.SetTaskStatus(r.Context(), types.TaskID(chi.URLParam(r, "id")), types.TaskStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTaskResponse(task))
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Task.DeleteTask(r.Context(), types.TaskID(chi.URLParam(r, "id"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
