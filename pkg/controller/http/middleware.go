package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/utils/errutil"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// authMiddleware resolves the principal of the request from its bearer token
func authMiddleware(verifier TokenVerifier, noAuth bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if noAuth {
				ctx := auth.ContextWithPrincipal(r.Context(), auth.NewSystemPrincipal())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if verifier == nil {
				errutil.HandleHTTP(r.Context(), w, goerr.New("authentication is not configured"), http.StatusUnauthorized)
				return
			}

			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				errutil.HandleHTTP(r.Context(), w, goerr.New("authentication required"), http.StatusUnauthorized)
				return
			}

			p, err := verifier.Verify(strings.TrimSpace(tokenStr))
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid authentication token"), http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), p)
			ctx = logging.With(ctx, logging.From(ctx).With("user_id", p.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireCapability rejects requests whose principal lacks the capability
func requireCapability(c types.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFromContext(r.Context())
			if !p.Can(c) {
				errutil.HandleHTTP(r.Context(), w, goerr.New("missing capability",
					goerr.V("capability", c)), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
