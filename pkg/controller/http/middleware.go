package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

// requestLogger attaches a logger carrying the request id to the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.With(r.Context(), logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// authMiddleware resolves the request user from the bearer token. In no-auth mode every request
// runs as the anonymous user.
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil || authUC.IsNoAuthn() {
				ctx := auth.ContextWithUser(r.Context(), auth.NewAnonymousUser())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			user, err := authUC.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				logging.From(r.Context()).Warn("authentication failed", "error", err, "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="caseflow"`)
				respondFailure(w, r, http.StatusUnauthorized, "Authentication required", nil)
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			ctx = logging.With(ctx, logging.From(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type ctxCaseIDKey struct{}

func contextWithCaseID(ctx context.Context, caseID int64) context.Context {
	return context.WithValue(ctx, ctxCaseIDKey{}, caseID)
}

// caseIDFromContext returns the case resolved by caseScope
func caseIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(ctxCaseIDKey{}).(int64); ok {
		return id
	}
	return model.DefaultCaseID
}

// caseScope resolves the case of the request from the {caseid} path parameter or the cid query
// parameter, defaulting to the default case. Unknown cases are rejected.
func caseScope(caseUC *usecase.CaseUseCase, legacy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, "caseid")
			if raw == "" {
				raw = r.URL.Query().Get("cid")
			}

			caseID := model.DefaultCaseID
			if raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || id < 1 {
					respondCaseError(w, r, legacy, model.NotFoundError(usecase.MsgCaseNotFound, nil))
					return
				}
				caseID = id
			}

			if _, err := caseUC.Get(r.Context(), caseID); err != nil {
				respondCaseError(w, r, legacy, err)
				return
			}

			ctx := contextWithCaseID(r.Context(), caseID)
			ctx = logging.With(ctx, logging.From(ctx).With("case_id", caseID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondCaseError(w http.ResponseWriter, r *http.Request, legacy bool, err error) {
	if legacy {
		legacyError(w, r, err)
		return
	}
	apiError(w, r, err)
}

// deprecated marks a legacy route and points clients to its successor
func deprecated(method, successor string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Deprecation", "true")
			w.Header().Set("Link", "<"+successor+`>; rel="successor-version"`)
			logging.From(r.Context()).Warn("deprecated endpoint called",
				"path", r.URL.Path,
				"successor_method", method,
				"successor", successor,
			)
			next.ServeHTTP(w, r)
		})
	}
}
