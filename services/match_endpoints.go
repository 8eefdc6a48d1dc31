package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
)

type MatchEndpoints struct {
	matchmaking *MatchmakingService
	repo        *repository.GORMRepository
}

func NewMatchEndpoints(matchmaking *MatchmakingService, repo *repository.GORMRepository) *MatchEndpoints {
	return &MatchEndpoints{
		matchmaking: matchmaking,
		repo:        repo,
	}
}

func (e *MatchEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/match", func(r chi.Router) {
		r.Post("/queue", e.JoinQueueHandler)
		r.Delete("/queue", e.LeaveQueueHandler)
		r.Get("/status", e.StatusHandler)
	})
}

func (e *MatchEndpoints) JoinQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	position, err := e.matchmaking.Join(r.Context(), user)
	if err != nil {
		slog.Error("Failed to join matchmaking queue", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to join queue", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Joined matchmaking queue",
		"position": position,
	})

	slog.Info("User joined matchmaking queue", "user_id", user.ID, "position", position)
}

func (e *MatchEndpoints) LeaveQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	if err := e.matchmaking.Leave(r.Context(), user.ID); err != nil {
		slog.Error("Failed to leave matchmaking queue", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to leave queue", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	slog.Info("User left matchmaking queue", "user_id", user.ID)
}

// StatusHandler reports the queue position and any live session, so a
// client that missed the websocket push can still find its match.
func (e *MatchEndpoints) StatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	position, err := e.matchmaking.Position(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get queue position", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get queue status", http.StatusInternalServerError)
		return
	}

	session, err := e.repo.GetActiveSessionForUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get active session", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get queue status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"waiting":  position >= 0,
		"position": position,
		"session":  session,
	})
}
