package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/predictor"
	"github.com/mindhaven/backend/repository"
	ws "github.com/mindhaven/backend/websocket"
	"gorm.io/gorm"
)

// Server holds all server dependencies
type Server struct {
	config    *Config
	gormDB    *repository.GORMRepository
	statsRepo *repository.StatsRepository
	rawDB     *gorm.DB
	queue     *repository.MatchQueue
	predictor *predictor.Predictor

	matchmaking      *MatchmakingService
	websocketHandler *WebSocketHandler
	authService      *AuthService
	authEndpoints    *AuthEndpoints
	moodEndpoints    *MoodEndpoints
	statsEndpoints   *StatsEndpoints
	recEndpoints     *RecommendationEndpoints
	matchEndpoints   *MatchEndpoints
	avatarEndpoints  *AvatarEndpoints
	wsHub            *ws.Hub
	upgrader         websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database-backed repositories
func (s *Server) SetDatabase(repo *repository.GORMRepository, stats *repository.StatsRepository, rawDB *gorm.DB) {
	s.gormDB = repo
	s.statsRepo = stats
	s.rawDB = rawDB
}

// SetQueue sets the matchmaking queue store
func (s *Server) SetQueue(queue *repository.MatchQueue) {
	s.queue = queue
}

// SetPredictor sets the trained stress predictor
func (s *Server) SetPredictor(p *predictor.Predictor) {
	s.predictor = p
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	// Initialize WebSocket hub
	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	// Initialize authentication services
	if s.config.JWT.Secret != "" && s.gormDB != nil {
		s.authService = NewAuthService(s.gormDB, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		slog.Info("Authentication service initialized")
	}

	if s.gormDB != nil {
		s.websocketHandler = NewWebSocketHandler(s.gormDB, s.wsHub)

		if s.predictor != nil {
			s.moodEndpoints = NewMoodEndpoints(s.gormDB, s.predictor)
			slog.Info("Mood endpoints initialized")
		}

		s.recEndpoints = NewRecommendationEndpoints(s.gormDB)
		s.avatarEndpoints = NewAvatarEndpoints(s.gormDB, s.config.Avatar.Dir, s.config.Avatar.MaxEdge)
	}

	if s.statsRepo != nil {
		s.statsEndpoints = NewStatsEndpoints(s.statsRepo)
	}

	// Initialize matchmaking loop
	if s.queue != nil && s.gormDB != nil {
		s.matchmaking = NewMatchmakingService(
			s.queue,
			s.gormDB,
			s.wsHub,
			s.config.Matchmaking.SweepInterval,
			s.config.Matchmaking.EntryTTL,
		)
		s.matchEndpoints = NewMatchEndpoints(s.matchmaking, s.gormDB)
		slog.Info("Matchmaking service initialized")
	} else {
		slog.Warn("Matchmaking disabled, no queue store configured")
	}

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// Uploaded avatars
	r.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(http.Dir(s.config.Avatar.Dir))))

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		// WebSocket route (protected)
		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)
				r.Get("/ws", s.websocketHandlerFunc)
			})
		}

		// Authentication routes
		if s.authEndpoints != nil {
			r.Route("/auth", func(r chi.Router) {
				// Public auth routes (no middleware)
				r.Post("/login", s.authEndpoints.LoginHandler)
				r.Post("/signup", s.authEndpoints.SignupHandler)
				r.Post("/refresh", s.authEndpoints.RefreshHandler)

				// Protected auth routes (with middleware)
				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					r.Post("/logout", s.authEndpoints.LogoutHandler)
					r.Get("/me", s.authEndpoints.MeHandler)
				})
			})
		}

		// Everything below requires an authenticated user
		if s.authService == nil {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(s.authService.Middleware)

			if s.moodEndpoints != nil {
				s.moodEndpoints.RegisterRoutes(r)
			}
			if s.statsEndpoints != nil {
				s.statsEndpoints.RegisterRoutes(r)
			}
			if s.recEndpoints != nil {
				s.recEndpoints.RegisterRoutes(r)
			}
			if s.matchEndpoints != nil {
				s.matchEndpoints.RegisterRoutes(r)
			}
			if s.avatarEndpoints != nil {
				s.avatarEndpoints.RegisterRoutes(r)
			}
		})
	})

	return r
}

// Start starts the HTTP server and the matchmaking loop
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.matchmaking != nil {
		go s.matchmaking.Run(ctx)
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	// Parse allowed origins (comma-separated list)
	allowedOrigins := strings.Split(allowedOriginsStr, ",")

	// Trim whitespace from origins
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	// Check if origin is in allowed list
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"
	redisStatus := "not configured"

	if s.rawDB != nil {
		dbStatus = "up"
		if sqlDB, err := s.rawDB.DB(); err != nil {
			dbStatus = "down"
			status = "degraded"
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "down"
			status = "degraded"
		}
	}

	if s.queue != nil {
		redisStatus = "up"
		if err := s.queue.Ping(r.Context()); err != nil {
			redisStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `","redis":"` + redisStatus + `"}`))

	slog.Info("Health check", "status", status, "database", dbStatus, "redis", redisStatus)
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"API v1","version":"1.0.0"}`))

	slog.Info("API v1 accessed")
}

func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	// Get user from context (set by auth middleware)
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		slog.Error("WebSocket connection failed - user not found in context")
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", user.ID, "handle", user.Handle)

	// Register client with hub; the pumps own the connection from here
	client := s.wsHub.RegisterClient(conn, user.ID)
	client.MessageHandler = s.websocketHandler.HandleMessage
	client.CloseHandler = s.websocketHandler.HandleDisconnect

	go client.WritePump()
	go client.ReadPump()

	// Rejoining an existing session skips the explicit session.join message
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		join, err := json.Marshal(ws.Message{Type: ws.MsgSessionJoin, SessionID: sessionID})
		if err == nil {
			s.websocketHandler.HandleMessage(client, join)
		}
	}
}
