package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
)

// Predictions older than this fall back to the moderate band.
const recommendationWindow = 7 * 24 * time.Hour

type RecommendationEndpoints struct {
	repo *repository.GORMRepository
}

func NewRecommendationEndpoints(repo *repository.GORMRepository) *RecommendationEndpoints {
	return &RecommendationEndpoints{repo: repo}
}

func (e *RecommendationEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/recommendations", func(r chi.Router) {
		r.Get("/", e.GetRecommendationsHandler)
		r.Get("/band/{band}", e.GetBandHandler)
	})
}

// GetRecommendationsHandler returns the catalogue entries for the band of
// the user's most recent prediction.
func (e *RecommendationEndpoints) GetRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	band := models.BandModerate
	latest, err := e.repo.GetLatestMoodLog(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get latest mood log", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get recommendations", http.StatusInternalServerError)
		return
	}
	if latest != nil && lastActivityWithin(latest.CreatedAt, recommendationWindow) {
		band = latest.Band()
	}

	recommendations, err := e.repo.GetRecommendationsByBand(r.Context(), band)
	if err != nil {
		slog.Error("Failed to get recommendations", "error", err, "band", band, "user_id", user.ID)
		http.Error(w, "Failed to get recommendations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"band":            band,
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}

// GetBandHandler returns the catalogue entries for an explicit band.
func (e *RecommendationEndpoints) GetBandHandler(w http.ResponseWriter, r *http.Request) {
	band := chi.URLParam(r, "band")
	switch band {
	case models.BandLow, models.BandModerate, models.BandHigh:
	default:
		http.Error(w, "Unknown stress band", http.StatusBadRequest)
		return
	}

	recommendations, err := e.repo.GetRecommendationsByBand(r.Context(), band)
	if err != nil {
		slog.Error("Failed to get recommendations", "error", err, "band", band)
		http.Error(w, "Failed to get recommendations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"band":            band,
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}
