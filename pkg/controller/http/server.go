package http

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	gqlHandler     http.Handler
	enableGraphiQL bool
	metrics        *Metrics
}

type Options func(*Server)

// WithGraphQL mounts the GraphQL endpoint on /graphql
func WithGraphQL(handler http.Handler) Options {
	return func(s *Server) {
		s.gqlHandler = handler
	}
}

func WithGraphiQL(enabled bool) Options {
	return func(s *Server) {
		s.enableGraphiQL = enabled
	}
}

// WithMetrics records request metrics and serves them on /metrics
func WithMetrics(m *Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

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
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	}

	if s.enableGraphiQL && s.gqlHandler != nil {
		r.Get("/graphiql", playground.Handler("caseflow GraphQL", "/graphql").ServeHTTP)
	}

	iocs := &iocHandler{ioc: uc.IOC, upload: uc.Import}
	comments := &commentHandler{comment: uc.Comment}
	alerts := &alertHandler{alert: uc.Alert, catalog: uc.Catalog()}
	cases := &caseHandler{cases: uc.Case}

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(uc.Auth))

		if s.gqlHandler != nil {
			r.Post("/graphql", s.gqlHandler.ServeHTTP)
			r.Get("/graphql", s.gqlHandler.ServeHTTP)
		}

		r.Route("/api/v2", func(r chi.Router) {
			r.Get("/me", meHandler)

			r.Route("/cases", func(r chi.Router) {
				r.Get("/", cases.list)
				r.Post("/", cases.create)
				r.Route("/{caseid}", func(r chi.Router) {
					r.Get("/", cases.get)
					r.Delete("/", cases.delete)
					r.With(caseScope(uc.Case, false)).Post("/iocs", iocs.create)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(caseScope(uc.Case, false))
				r.Get("/iocs", iocs.list)
				r.Get("/iocs/{id}", iocs.get)
				r.Put("/iocs/{id}", iocs.update)
				r.Delete("/iocs/{id}", iocs.delete)
			})

			r.Get("/alerts", alerts.list)
			r.Post("/alerts", alerts.create)
			r.Get("/alerts/{id}", alerts.get)
		})

		r.Route("/case/ioc", func(r chi.Router) {
			r.Use(caseScope(uc.Case, true))

			r.With(deprecated(http.MethodGet, "/api/v2/iocs")).Get("/list", iocs.legacyList)
			r.With(deprecated(http.MethodGet, "/api/v2/iocs")).Get("/state", iocs.legacyState)
			r.With(deprecated(http.MethodPost, "/api/v2/cases/{caseid}/iocs")).Post("/add", iocs.legacyCreate)
			r.Post("/upload", iocs.legacyUpload)
			r.With(deprecated(http.MethodDelete, "/api/v2/iocs/{id}")).Post("/delete/{id}", iocs.legacyDelete)
			r.With(deprecated(http.MethodGet, "/api/v2/iocs/{id}")).Get("/{id}", iocs.legacyGet)
			r.With(deprecated(http.MethodPut, "/api/v2/iocs/{id}")).Post("/update/{id}", iocs.legacyUpdate)

			r.Get("/{id}/comments/list", comments.list)
			r.Post("/{id}/comments/add", comments.add)
			r.Get("/{id}/comments/{commentID}", comments.get)
			r.Post("/{id}/comments/{commentID}/edit", comments.edit)
			r.Post("/{id}/comments/{commentID}/delete", comments.delete)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.With(deprecated(http.MethodPost, "/api/v2/alerts")).Post("/add", alerts.legacyCreate)
			r.With(deprecated(http.MethodGet, "/api/v2/alerts")).Get("/filter", alerts.legacyFilter)
		})
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
