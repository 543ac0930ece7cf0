// Package webserver exposes the sirene facade and the company lists over
// an HTTP JSON API.
package webserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tpgainz/sirene-search/postgres"
	"github.com/tpgainz/sirene-search/sirene"
)

// CompanyFacade is the slice of the sirene service the HTTP layer needs.
type CompanyFacade interface {
	SearchByText(ctx context.Context, text string, criteria sirene.SearchCriteria, page, pageSize int) (*sirene.SearchPage, error)
	SearchBySiren(ctx context.Context, siren string) (*sirene.SearchPage, error)
	LookupUnit(ctx context.Context, siren, date string) (*sirene.CompanyRecord, error)
}

// Config carries the dependencies of the server. Lists, History and
// Enqueue may be nil when no database is configured, the corresponding
// endpoints then answer 503.
type Config struct {
	Facade    CompanyFacade
	Lists     *postgres.ListStore
	History   *postgres.HistoryStore
	Enqueue   EnqueueFunc
	APIToken  string
	Analytics *Analytics
	Metrics   *Metrics
}

// EnqueueFunc pushes one scrapemate job. Kept as a func so the web runner
// can bind it to provider.Push without importing scrapemate here.
type EnqueueFunc func(ctx context.Context, listID, ownerID string, sirens []string) (jobID string, err error)

// Server handles the HTTP API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds the server and mounts all routes.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(s.authenticate)

		api.Get("/company-search", s.handleCompanySearch)
		api.Get("/sirene-unit/{siren}", s.handleSireneUnit)

		api.Route("/company-lists", func(lists chi.Router) {
			lists.Use(s.requireStore)

			lists.Get("/", s.handleListLists)
			lists.Post("/", s.handleCreateList)
			lists.Get("/{listID}", s.handleGetList)
			lists.Delete("/{listID}", s.handleDeleteList)
			lists.Post("/{listID}/archive", s.handleArchiveList)
			lists.Get("/{listID}/companies", s.handleListCompanies)
			lists.Post("/{listID}/companies", s.handleAddCompany)
			lists.Delete("/{listID}/companies/{siren}", s.handleRemoveCompany)
			lists.Post("/{listID}/import", s.handleImport)
		})

		api.With(s.requireStore).Get("/search-history", s.handleSearchHistory)
	})

	s.router = r

	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// authenticate guards the API with a static bearer token. An empty
// configured token disables the check.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken != "" {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")

			if !ok || token != s.cfg.APIToken {
				writeJSON(w, http.StatusUnauthorized, errorBody("jeton d'API invalide"))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requireStore rejects list endpoints when no database is wired.
func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Lists == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("aucune base de données configurée"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
