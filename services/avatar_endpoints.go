package services

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
	"github.com/nfnt/resize"
)

const maxAvatarUpload = 5 << 20 // 5MB

// AvatarEndpoints stores uploaded avatars on disk, downscaled so the
// largest edge never exceeds the configured size.
type AvatarEndpoints struct {
	repo    *repository.GORMRepository
	dir     string
	maxEdge int
}

func NewAvatarEndpoints(repo *repository.GORMRepository, dir string, maxEdge int) *AvatarEndpoints {
	return &AvatarEndpoints{
		repo:    repo,
		dir:     dir,
		maxEdge: maxEdge,
	}
}

func (e *AvatarEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/auth/avatar", e.UploadHandler)
}

func (e *AvatarEndpoints) UploadHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload)
	if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
		http.Error(w, "Avatar upload too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "Missing avatar file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Unsupported image format", http.StatusBadRequest)
		return
	}

	// Only downscale; small avatars are stored as-is.
	bounds := img.Bounds()
	if bounds.Dx() > e.maxEdge || bounds.Dy() > e.maxEdge {
		img = resize.Thumbnail(uint(e.maxEdge), uint(e.maxEdge), img, resize.Lanczos3)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		slog.Error("Failed to create avatar directory", "error", err, "dir", e.dir)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s.jpg", user.ID)
	path := filepath.Join(e.dir, filename)
	out, err := os.Create(path)
	if err != nil {
		slog.Error("Failed to create avatar file", "error", err, "path", path)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 85}); err != nil {
		slog.Error("Failed to encode avatar", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	user.AvatarURL = "/avatars/" + filename
	if err := e.repo.UpdateUser(r.Context(), user); err != nil {
		slog.Error("Failed to update avatar URL", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"avatar_url": user.AvatarURL,
	})

	slog.Info("Avatar uploaded", "user_id", user.ID, "path", path)
}
