package server

import (
	"encoding/json"
	"net/http"

	"habbo-tracker/internal/config"
	"habbo-tracker/internal/hotel"
	"habbo-tracker/internal/middleware"
	"habbo-tracker/internal/monitoring"
	"habbo-tracker/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Router serves the REST endpoints and the connect procedures on one mux.
func (s *TrackerServer) Router(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}).Handler)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/hotels", s.handleHotels)
	r.Get("/profile", s.handleProfile)
	r.Get("/groups", s.handleGroups)
	r.Get("/ranking", s.handleRanking)
	r.Handle("/metrics", promhttp.Handler())

	for procedure, h := range s.RPCHandlers() {
		r.Handle(procedure, h)
	}

	return r
}

func (s *TrackerServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"ranking": s.rankings.Available(),
	})
}

func (s *TrackerServer) handleHotels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hotel.All())
}

func (s *TrackerServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	hotelID, playerID := lookupParams(r)

	view, err := s.profiles.GetProfile(r.Context(), hotelID, playerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *TrackerServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	hotelID, playerID := lookupParams(r)

	groups, err := s.profiles.GetGroups(r.Context(), hotelID, playerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *TrackerServer) handleRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hotelID := firstNonEmpty(q.Get("deployment"), q.Get("hotel"))
	limit := service.ParseLimit(q.Get("limit"))

	entries, err := s.rankings.RankByBadgeCount(r.Context(), hotelID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankingResponse{Items: entries})
}

// lookupParams accepts both the deployment/playerId names and the shorter
// hotel/id pair.
func lookupParams(r *http.Request) (hotelID, playerID string) {
	q := r.URL.Query()
	return firstNonEmpty(q.Get("deployment"), q.Get("hotel")), firstNonEmpty(q.Get("playerId"), q.Get("id"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		if status == http.StatusInternalServerError {
			monitoring.CaptureError(err, map[string]string{
				"path":       r.URL.Path,
				"request_id": middleware.GetRequestID(r.Context()),
			})
		}
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
