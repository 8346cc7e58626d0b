package backend

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/storypath/storypath-cli/internal/model"
)

// Server exposes the Store over the backend's REST surface. Filters follow
// the PostgREST convention the hosted API uses: `field=eq.value` query
// parameters, and a `select` parameter for column projection on tracking.
type Server struct {
	store Store
	log   *zap.Logger
}

// NewServer creates a dev backend server.
func NewServer(store Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, log: log}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(s.requireBearer)

	r.Get("/project", s.handleListProjects)
	r.Get("/location", s.handleListLocations)
	r.Get("/tracking", s.handleListTracking)
	r.Post("/tracking", s.handleCreateTracking)

	return r
}

// requireBearer rejects requests without a bearer token. The dev server does
// not validate the JWT; it only exercises the client's auth-error path when
// the header is missing.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	publishedOnly := r.URL.Query().Get("is_published") == "eq.true"

	if raw := r.URL.Query().Get("id"); raw != "" {
		id, ok := parseEqInt(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad id filter")
			return
		}
		project, err := s.store.GetProject(r.Context(), id)
		if err != nil {
			s.internalError(w, err)
			return
		}
		out := []model.Project{}
		if project != nil && (!publishedOnly || project.IsPublished) {
			out = append(out, *project)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	projects, err := s.store.ListProjects(r.Context(), publishedOnly)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseEqInt(r.URL.Query().Get("project_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or bad project_id filter")
		return
	}

	locations, err := s.store.ListLocations(r.Context(), projectID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	writeJSON(w, http.StatusOK, locations)
}

func (s *Server) handleListTracking(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseEqInt(r.URL.Query().Get("project_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or bad project_id filter")
		return
	}

	filter := TrackingFilter{ProjectID: projectID}
	if raw := r.URL.Query().Get("participant_username"); raw != "" {
		filter.Participant = strings.TrimPrefix(raw, "eq.")
	}

	tracking, err := s.store.ListTracking(r.Context(), filter)
	if err != nil {
		s.internalError(w, err)
		return
	}

	// select=location_id projects rows down to the one column, matching the
	// PostgREST projection the client uses for visited-id queries.
	if r.URL.Query().Get("select") == "location_id" {
		out := make([]map[string]int, 0, len(tracking))
		for _, t := range tracking {
			out = append(out, map[string]int{"location_id": t.LocationID})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	if tracking == nil {
		tracking = []model.Tracking{}
	}
	writeJSON(w, http.StatusOK, tracking)
}

func (s *Server) handleCreateTracking(w http.ResponseWriter, r *http.Request) {
	var t model.Tracking
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if t.ProjectID == 0 || t.LocationID == 0 || t.ParticipantUsername == "" {
		writeError(w, http.StatusBadRequest, "project_id, location_id and participant_username are required")
		return
	}

	id, err := s.store.InsertTracking(r.Context(), t)
	if err != nil {
		s.internalError(w, err)
		return
	}

	s.log.Info("tracking recorded",
		zap.Int("id", id),
		zap.Int("project_id", t.ProjectID),
		zap.Int("location_id", t.LocationID),
		zap.String("participant", t.ParticipantUsername))

	// The hosted API answers writes with an empty body; keep that contract so
	// the client's empty-body-is-success handling stays exercised.
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("store failure", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// parseEqInt parses a PostgREST "eq.N" filter value.
func parseEqInt(raw string) (int, bool) {
	value, found := strings.CutPrefix(raw, "eq.")
	if !found {
		return 0, false
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
