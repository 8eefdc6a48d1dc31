package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/predictor"
	"github.com/mindhaven/backend/repository"
)

const maxNoteLength = 2000

type MoodEndpoints struct {
	repo      *repository.GORMRepository
	predictor *predictor.Predictor
}

func NewMoodEndpoints(repo *repository.GORMRepository, pred *predictor.Predictor) *MoodEndpoints {
	return &MoodEndpoints{
		repo:      repo,
		predictor: pred,
	}
}

type CreateMoodRequest struct {
	Level int    `json:"level"`
	Note  string `json:"note"`
}

type CreateMoodResponse struct {
	Entry          models.MoodLog         `json:"entry"`
	Prediction     predictor.Prediction   `json:"prediction"`
	Recommendation *models.Recommendation `json:"recommendation,omitempty"`
}

type GetMoodsResponse struct {
	Entries []models.MoodLog `json:"entries"`
	Count   int              `json:"count"`
}

func (e *MoodEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/moods", func(r chi.Router) {
		r.Post("/", e.CreateMoodHandler)
		r.Get("/", e.GetMoodsHandler)
		r.Get("/{id}", e.GetMoodHandler)
		r.Delete("/{id}", e.DeleteMoodHandler)
	})
}

func (e *MoodEndpoints) CreateMoodHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Level < 1 || req.Level > 5 {
		http.Error(w, "Mood level must be between 1 and 5", http.StatusBadRequest)
		return
	}
	req.Note = strings.TrimSpace(req.Note)
	if len(req.Note) > maxNoteLength {
		http.Error(w, "Note is too long", http.StatusBadRequest)
		return
	}

	// Score synchronously; the network is tiny and inference is a few
	// microseconds of matrix math.
	prediction := e.predictor.Score(req.Level, req.Note)

	entry := models.MoodLog{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Level:       req.Level,
		Note:        req.Note,
		StressScore: prediction.StressScore,
		Confidence:  prediction.Probability,
	}

	if err := e.repo.CreateMoodLog(r.Context(), &entry); err != nil {
		slog.Error("Failed to create mood log", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create mood entry", http.StatusInternalServerError)
		return
	}

	response := CreateMoodResponse{
		Entry:      entry,
		Prediction: prediction,
	}

	// A missing recommendation never fails the request.
	if recommendations, err := e.repo.GetRecommendationsByBand(r.Context(), prediction.Band); err == nil && len(recommendations) > 0 {
		response.Recommendation = &recommendations[pickIndex(entry.ID, len(recommendations))]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)

	slog.Info("Mood entry created", "mood_log_id", entry.ID, "user_id", user.ID, "stress_score", prediction.StressScore, "band", prediction.Band)
}

// pickIndex deterministically selects one recommendation per entry, so a
// refresh of the same entry shows the same tip.
func pickIndex(id string, n int) int {
	var sum int
	for _, c := range id {
		sum += int(c)
	}
	return sum % n
}

func (e *MoodEndpoints) GetMoodsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	entries, err := e.repo.GetMoodLogs(r.Context(), user.ID, limit)
	if err != nil {
		slog.Error("Failed to get mood logs", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get mood entries", http.StatusInternalServerError)
		return
	}

	response := GetMoodsResponse{
		Entries: entries,
		Count:   len(entries),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (e *MoodEndpoints) GetMoodHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		http.Error(w, "Mood entry ID is required", http.StatusBadRequest)
		return
	}

	entry, err := e.repo.GetMoodLogByID(r.Context(), entryID, user.ID)
	if err != nil {
		slog.Error("Failed to get mood log", "error", err, "mood_log_id", entryID, "user_id", user.ID)
		http.Error(w, "Failed to get mood entry", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "Mood entry not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entry": entry,
	})
}

func (e *MoodEndpoints) DeleteMoodHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		http.Error(w, "Mood entry ID is required", http.StatusBadRequest)
		return
	}

	entry, err := e.repo.GetMoodLogByID(r.Context(), entryID, user.ID)
	if err != nil {
		slog.Error("Failed to get mood log for deletion", "error", err, "mood_log_id", entryID, "user_id", user.ID)
		http.Error(w, "Failed to delete mood entry", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "Mood entry not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteMoodLog(r.Context(), entryID, user.ID); err != nil {
		slog.Error("Failed to delete mood log", "error", err, "mood_log_id", entryID, "user_id", user.ID)
		http.Error(w, "Failed to delete mood entry", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	slog.Info("Mood entry deleted", "mood_log_id", entryID, "user_id", user.ID)
}

// lastActivityWithin reports whether t is within the given window of now.
// Used by the recommendation endpoint to decide if the latest prediction is
// still worth surfacing.
func lastActivityWithin(t time.Time, window time.Duration) bool {
	return time.Since(t) <= window
}
