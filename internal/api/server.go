package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/hermes"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/validator"
)

// maxBodyBytes caps transcript and dataset uploads.
var maxBodyBytes int64 = 32 << 20

// SampleReader is the read side of the sample store.
type SampleReader interface {
	ListSamples(ctx context.Context, limit int) ([]store.Sample, error)
	StepsForSample(ctx context.Context, id uuid.UUID) ([]store.StepRow, error)
}

type Server struct {
	router    *chi.Mux
	port      int
	samples   SampleReader
	publisher hermes.Publisher
	logger    *slog.Logger
}

// NewServer builds the HTTP API. samples and publisher may be nil; apiToken
// empty disables bearer auth on the sample routes.
func NewServer(port int, apiToken string, samples SampleReader, publisher hermes.Publisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		samples:   samples,
		publisher: publisher,
		logger:    logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/samples", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Get("/", s.listSamples)
			r.Get("/{id}/steps", s.sampleSteps)
		})
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Use(middleware.RequestSize(maxBodyBytes))
			r.Post("/extract", s.extract)
			r.Post("/validate", s.validate)
		})
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "samplesd",
		"rules":   validator.RequiredParams,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
