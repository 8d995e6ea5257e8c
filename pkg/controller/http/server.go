package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// TokenVerifier resolves a bearer token into a principal
type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	verifier TokenVerifier
	noAuth   bool
}

type Options func(*Server)

// WithTokenVerifier enables bearer token authentication
func WithTokenVerifier(v TokenVerifier) Options {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithNoAuth makes every request run as the system principal
func WithNoAuth() Options {
	return func(s *Server) {
		s.noAuth = true
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.verifier, s.noAuth))

		r.Get("/me", s.meHandler)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjectsHandler)
			r.With(requireCapability(types.CapCreateProjects)).Post("/", s.createProjectHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getProjectHandler)
				r.With(requireCapability(types.CapCreateProjects)).Put("/", s.updateProjectHandler)
				r.With(requireCapability(types.CapDeleteProjects)).Delete("/", s.deleteProjectHandler)
				r.With(requireCapability(types.CapManageRisks)).Post("/recompute", s.recomputeProjectHandler)
			})
		})

		r.Route("/risks", func(r chi.Router) {
			r.Get("/", s.listRisksHandler)
			r.Get("/score", s.scoreRiskHandler)
			r.With(requireCapability(types.CapManageRisks)).Post("/", s.createRiskHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getRiskHandler)
				r.With(requireCapability(types.CapManageRisks)).Put("/", s.updateRiskHandler)
				r.With(requireCapability(types.CapManageRisks)).Delete("/", s.deleteRiskHandler)
			})
		})

		r.Route("/issues", func(r chi.Router) {
			r.Get("/", s.listIssuesHandler)
			r.Post("/", s.createIssueHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getIssueHandler)
				r.Put("/", s.updateIssueHandler)
				r.With(requireCapability(types.CapManageRisks)).Delete("/", s.deleteIssueHandler)
				r.Post("/comments", s.addIssueCommentHandler)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.listTasksHandler)
			r.Get("/my-tasks", s.myTasksHandler)
			r.With(requireCapability(types.CapManageTasks)).Post("/", s.createTaskHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTaskHandler)
				r.With(requireCapability(types.CapManageTasks)).Put("/", s.updateTaskHandler)
				r.With(requireCapability(types.CapManageTasks)).Delete("/", s.deleteTaskHandler)
				r.Patch("/status", s.setTaskStatusHandler)
			})
		})

		r.Get("/stats/dashboard", s.dashboardHandler)
		r.With(requireCapability(types.CapManageUsers)).Get("/audit-logs", s.auditLogsHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
