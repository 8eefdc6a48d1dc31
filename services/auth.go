package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	repo            *repository.GORMRepository
	jwtSecret       []byte
	accessExpiry    time.Duration
	refreshExpiry   time.Duration
	permanentExpiry time.Duration
}

type AuthClaims struct {
	UserID string `json:"user_id"`
	Handle string `json:"handle"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthResponse struct {
	User           *models.User `json:"user"`
	AccessToken    string       `json:"access_token,omitempty"`
	RefreshToken   string       `json:"refresh_token,omitempty"`
	PermanentToken string       `json:"permanent_token,omitempty"`
}

func NewAuthService(repo *repository.GORMRepository, jwtSecret string) *AuthService {
	return &AuthService{
		repo:            repo,
		jwtSecret:       []byte(jwtSecret),
		accessExpiry:    5 * time.Minute,
		refreshExpiry:   7 * 24 * time.Hour,
		permanentExpiry: 30 * 24 * time.Hour,
	}
}

// Word lists for anonymous handles. Handles never embed user data.
var (
	handleAdjectives = []string{"calm", "quiet", "bright", "gentle", "steady", "mellow", "warm", "clear", "kind", "soft"}
	handleAnimals    = []string{"otter", "heron", "fox", "lynx", "finch", "seal", "wren", "deer", "crane", "hare"}
)

// generateHandle builds an anonymous handle like "calm-otter-4821", retrying
// on the rare collision with an existing user.
func (s *AuthService) generateHandle(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		adj, err := rand.Int(rand.Reader, big.NewInt(int64(len(handleAdjectives))))
		if err != nil {
			return "", err
		}
		animal, err := rand.Int(rand.Reader, big.NewInt(int64(len(handleAnimals))))
		if err != nil {
			return "", err
		}
		num, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return "", err
		}

		handle := fmt.Sprintf("%s-%s-%d", handleAdjectives[adj.Int64()], handleAnimals[animal.Int64()], num.Int64()+1000)
		existing, err := s.repo.GetUserByHandle(ctx, handle)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return handle, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique handle")
}

// generateSecureToken generates a cryptographically secure random token
func (s *AuthService) generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashToken creates a SHA256 hash of the token for secure storage
func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// issueTokens generates the full token set and stores the opaque ones.
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	permanentToken, err := s.generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate permanent token: %w", err)
	}

	if err := s.repo.CreateRefreshToken(ctx, &models.RefreshToken{
		UserID:    user.ID,
		Token:     s.hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.refreshExpiry),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	if err := s.repo.CreatePermanentToken(ctx, &models.PermanentToken{
		UserID: user.ID,
		Token:  s.hashToken(permanentToken),
	}); err != nil {
		return nil, fmt.Errorf("failed to store permanent token: %w", err)
	}

	return &AuthResponse{
		User:           user,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		PermanentToken: permanentToken,
	}, nil
}

// Login authenticates user and creates tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	response, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.Info("User logged in successfully", "user_id", user.ID, "handle", user.Handle)
	return response, nil
}

// Signup creates a new user with an auto-generated anonymous handle
func (s *AuthService) Signup(ctx context.Context, email, password, displayName string) (*AuthResponse, error) {
	existingUser, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	handle, err := s.generateHandle(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate handle: %w", err)
	}

	user := &models.User{
		Email:       email,
		Password:    string(hashedPassword),
		Handle:      handle,
		DisplayName: displayName,
		Role:        "user",
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	response, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.Info("User signed up successfully", "user_id", user.ID, "handle", user.Handle)
	return response, nil
}

// RefreshToken generates a new access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	tokenRecord, err := s.repo.GetRefreshToken(ctx, s.hashToken(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if tokenRecord == nil {
		return nil, fmt.Errorf("invalid refresh token")
	}
	return s.accessTokenForUser(ctx, tokenRecord.UserID)
}

// VerifyPermanentToken verifies permanent token and generates new access token
func (s *AuthService) VerifyPermanentToken(ctx context.Context, permanentToken string) (*AuthResponse, error) {
	tokenRecord, err := s.repo.GetPermanentToken(ctx, s.hashToken(permanentToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get permanent token: %w", err)
	}
	if tokenRecord == nil {
		return nil, fmt.Errorf("invalid permanent token")
	}
	return s.accessTokenForUser(ctx, tokenRecord.UserID)
}

func (s *AuthService) accessTokenForUser(ctx context.Context, userID string) (*AuthResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: accessToken}, nil
}

// Logout invalidates all tokens for the user
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}

	slog.Info("User logged out", "user_id", userID)
	return nil
}

// VerifyAccessToken verifies and extracts user from access token
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*models.User, error) {
	claims := &AuthClaims{}

	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// Get user from database to ensure they still exist
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// generateAccessToken creates a short-lived access token
func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := &AuthClaims{
		UserID: user.ID,
		Handle: user.Handle,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// SetAuthCookies sets HTTP-only, secure cookies
func (s *AuthService) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken, permanentToken string) {
	isProduction := os.Getenv("ENVIRONMENT") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.accessExpiry.Seconds()),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refreshExpiry.Seconds()),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "permanent_token",
		Value:    permanentToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.permanentExpiry.Seconds()),
	})
}

// SetAccessCookie refreshes only the access token cookie. The refresh and
// permanent cookies keep their values; overwriting them with empty strings
// would end the session at the next access-token expiry.
func (s *AuthService) SetAccessCookie(w http.ResponseWriter, accessToken string) {
	isProduction := os.Getenv("ENVIRONMENT") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.accessExpiry.Seconds()),
	})
}

// ClearAuthCookies clears all authentication cookies
func (s *AuthService) ClearAuthCookies(w http.ResponseWriter) {
	isProduction := os.Getenv("ENVIRONMENT") == "production"
	cookies := []string{"access_token", "refresh_token", "permanent_token"}

	for _, cookieName := range cookies {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   isProduction,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

// GetTokenFromCookie extracts token from request cookies
func (s *AuthService) GetTokenFromCookie(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware for cookie-based authentication
func (s *AuthService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Try to get access token from cookie
		accessToken := s.GetTokenFromCookie(r, "access_token")

		if accessToken != "" {
			user, err := s.VerifyAccessToken(r.Context(), accessToken)
			if err == nil {
				ctx := context.WithValue(r.Context(), "user", user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		// Try to refresh using refresh token
		refreshToken := s.GetTokenFromCookie(r, "refresh_token")
		if refreshToken != "" {
			authResponse, err := s.RefreshToken(r.Context(), refreshToken)
			if err == nil {
				s.SetAccessCookie(w, authResponse.AccessToken)
				ctx := context.WithValue(r.Context(), "user", authResponse.User)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		// Try to use permanent token as last resort
		permanentToken := s.GetTokenFromCookie(r, "permanent_token")
		if permanentToken != "" {
			authResponse, err := s.VerifyPermanentToken(r.Context(), permanentToken)
			if err == nil {
				s.SetAccessCookie(w, authResponse.AccessToken)
				ctx := context.WithValue(r.Context(), "user", authResponse.User)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		// All authentication methods failed
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
