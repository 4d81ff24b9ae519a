package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/squatter/internal/analysis"
	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/storage"
)

// Store is the persistence the HTTP API needs. *storage.DB satisfies it.
type Store interface {
	SaveSession(ctx context.Context, s models.SessionRow, reps []models.RepetitionRow) (uuid.UUID, error)
	ListSessions(ctx context.Context, userID int, exercise string, limit int) ([]models.SessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID, userID int) (*storage.SessionDetail, error)
	DeleteSession(ctx context.Context, id uuid.UUID, userID int) error
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      Store
	analyzer   *analysis.Analyzer
	defaultFPS float64
	log        *slog.Logger
	apiKey     string
	router     chi.Router

	whois WhoIser
	users UserStore
}

// New creates a new Server with all routes configured.
func New(store Store, analyzer *analysis.Analyzer, defaultFPS float64, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:      store,
		analyzer:   analyzer,
		defaultFPS: defaultFPS,
		log:        log,
		apiKey:     apiKey,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identify)

	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Get("/api/v1/exercises", s.handleExercises)
	s.router.Post("/api/v1/analyze", s.handleAnalyze)

	s.router.Get("/api/v1/sessions", s.handleListSessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Get("/api/v1/stats", s.handleStats)

	// Writes (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
	})
}

// SetTailscale switches request identity from the local dev user to the
// Tailscale login of the caller.
func (s *Server) SetTailscale(whois WhoIser, users UserStore) {
	s.whois = whois
	s.users = users
}

// Mount attaches an extra handler, such as the MCP endpoint, behind the
// same logging and identity middleware.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil || s.users == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.users, s.log)(next).ServeHTTP(w, r)
	})
}
