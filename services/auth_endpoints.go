package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mindhaven/backend/models"
)

type AuthEndpoints struct {
	authService *AuthService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func NewAuthEndpoints(authService *AuthService) *AuthEndpoints {
	return &AuthEndpoints{
		authService: authService,
	}
}

// publicUser strips sensitive fields for responses.
func publicUser(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":           user.ID,
		"handle":       user.Handle,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"role":         user.Role,
	}
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	authResponse, err := e.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err, "email", req.Email)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken, authResponse.PermanentToken)

	response := map[string]interface{}{
		"user":    publicUser(authResponse.User),
		"message": "Login successful",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	slog.Info("User logged in", "user_id", authResponse.User.ID, "handle", authResponse.User.Handle)
}

func (e *AuthEndpoints) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || len(req.Password) < 8 {
		http.Error(w, "Email and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	authResponse, err := e.authService.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		slog.Error("Signup failed", "error", err, "email", req.Email)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken, authResponse.PermanentToken)

	response := map[string]interface{}{
		"user":    publicUser(authResponse.User),
		"message": "Signup successful",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)

	slog.Info("User signed up", "user_id", authResponse.User.ID, "handle", authResponse.User.Handle)
}

func (e *AuthEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	refreshToken := e.authService.GetTokenFromCookie(r, "refresh_token")
	if refreshToken == "" {
		http.Error(w, "No refresh token provided", http.StatusUnauthorized)
		return
	}

	authResponse, err := e.authService.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	e.authService.SetAccessCookie(w, authResponse.AccessToken)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Token refreshed successfully",
	})

	slog.Info("Token refreshed", "user_id", authResponse.User.ID)
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	if err := e.authService.Logout(r.Context(), user.ID); err != nil {
		slog.Error("Logout failed", "error", err, "user_id", user.ID)
		http.Error(w, "Logout failed", http.StatusInternalServerError)
		return
	}

	e.authService.ClearAuthCookies(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Logout successful",
	})

	slog.Info("User logged out", "user_id", user.ID)
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user": publicUser(user),
	})
}
