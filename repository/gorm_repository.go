package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindhaven/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PermanentToken{},
		&models.MoodLog{},
		&models.Recommendation{},
		&models.ModelSnapshot{},
		&models.VideoSession{},
		&models.SignalingMessage{},
		&models.ChatMessage{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "handle", user.Handle)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by handle", "error", err, "handle", handle)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		slog.Error("Failed to update user", "error", err, "user_id", user.ID)
		return err
	}
	return nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) CreatePermanentToken(ctx context.Context, token *models.PermanentToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create permanent token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetPermanentToken(ctx context.Context, token string) (*models.PermanentToken, error) {
	var permanentToken models.PermanentToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&permanentToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get permanent token", "error", err)
		return nil, err
	}
	return &permanentToken, nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PermanentToken{}).Error; err != nil {
		slog.Error("Failed to delete user permanent tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Mood log operations
func (r *GORMRepository) CreateMoodLog(ctx context.Context, log *models.MoodLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		slog.Error("Failed to create mood log", "error", err, "user_id", log.UserID)
		return err
	}
	slog.Info("Mood log created", "mood_log_id", log.ID, "user_id", log.UserID, "level", log.Level, "stress_score", log.StressScore)
	return nil
}

func (r *GORMRepository) GetMoodLogs(ctx context.Context, userID string, limit int) ([]models.MoodLog, error) {
	var logs []models.MoodLog
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		slog.Error("Failed to get mood logs", "error", err, "user_id", userID)
		return nil, err
	}
	return logs, nil
}

func (r *GORMRepository) GetMoodLogByID(ctx context.Context, id, userID string) (*models.MoodLog, error) {
	var log models.MoodLog
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get mood log", "error", err, "mood_log_id", id, "user_id", userID)
		return nil, err
	}
	return &log, nil
}

func (r *GORMRepository) DeleteMoodLog(ctx context.Context, id, userID string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.MoodLog{}).Error; err != nil {
		slog.Error("Failed to delete mood log", "error", err, "mood_log_id", id, "user_id", userID)
		return err
	}
	slog.Info("Mood log deleted", "mood_log_id", id, "user_id", userID)
	return nil
}

func (r *GORMRepository) GetLatestMoodLog(ctx context.Context, userID string) (*models.MoodLog, error) {
	var log models.MoodLog
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&log).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get latest mood log", "error", err, "user_id", userID)
		return nil, err
	}
	return &log, nil
}

// Recommendation operations
func (r *GORMRepository) GetRecommendationsByBand(ctx context.Context, band string) ([]models.Recommendation, error) {
	var recommendations []models.Recommendation
	if err := r.db.WithContext(ctx).Where("band = ? AND is_active = ?", band, true).Find(&recommendations).Error; err != nil {
		slog.Error("Failed to get recommendations", "error", err, "band", band)
		return nil, err
	}
	return recommendations, nil
}

func (r *GORMRepository) CreateRecommendation(ctx context.Context, rec *models.Recommendation) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		slog.Error("Failed to create recommendation", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) CountRecommendations(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Recommendation{}).Count(&count).Error; err != nil {
		slog.Error("Failed to count recommendations", "error", err)
		return 0, err
	}
	return count, nil
}

// Model snapshot operations
func (r *GORMRepository) LatestModelSnapshot(ctx context.Context) (*models.ModelSnapshot, error) {
	var snapshot models.ModelSnapshot
	if err := r.db.WithContext(ctx).Order("version DESC").First(&snapshot).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get latest model snapshot", "error", err)
		return nil, err
	}
	return &snapshot, nil
}

func (r *GORMRepository) CreateModelSnapshot(ctx context.Context, snapshot *models.ModelSnapshot) error {
	if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		slog.Error("Failed to create model snapshot", "error", err)
		return err
	}
	slog.Info("Model snapshot created", "snapshot_id", snapshot.ID, "version", snapshot.Version)
	return nil
}

// Video session operations
func (r *GORMRepository) CreateVideoSession(ctx context.Context, session *models.VideoSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create video session", "error", err)
		return err
	}
	slog.Info("Video session created", "session_id", session.ID, "caller_id", session.CallerID, "callee_id", session.CalleeID)
	return nil
}

func (r *GORMRepository) GetVideoSession(ctx context.Context, sessionID string) (*models.VideoSession, error) {
	var session models.VideoSession
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get video session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetActiveSessionForUser(ctx context.Context, userID string) (*models.VideoSession, error) {
	var session models.VideoSession
	err := r.db.WithContext(ctx).
		Where("(caller_id = ? OR callee_id = ?) AND status IN ('pending', 'active')", userID, userID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get active session for user", "error", err, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) MarkSessionActive(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Model(&models.VideoSession{}).
		Where("id = ? AND status = ?", sessionID, "pending").
		Update("status", "active").Error; err != nil {
		slog.Error("Failed to mark session active", "error", err, "session_id", sessionID)
		return err
	}
	return nil
}

func (r *GORMRepository) EndVideoSession(ctx context.Context, sessionID string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.VideoSession{}).
		Where("id = ? AND status != ?", sessionID, "ended").
		Updates(map[string]interface{}{"status": "ended", "ended_at": now}).Error; err != nil {
		slog.Error("Failed to end video session", "error", err, "session_id", sessionID)
		return err
	}
	slog.Info("Video session ended", "session_id", sessionID)
	return nil
}

// Chat operations
func (r *GORMRepository) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		slog.Error("Failed to create chat message", "error", err, "session_id", message.SessionID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetChatMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		slog.Error("Failed to get chat messages", "error", err, "session_id", sessionID)
		return nil, err
	}
	return messages, nil
}

// Signaling operations
func (r *GORMRepository) CreateSignalingMessage(ctx context.Context, message *models.SignalingMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		slog.Error("Failed to create signaling message", "error", err, "session_id", message.SessionID)
		return err
	}
	return nil
}

// GetSignalingMessages returns the newest signaling rows of the session in
// chronological order. The limit cuts off the oldest rows, never the newest:
// a rejoining peer must always see the latest offer and candidates.
func (r *GORMRepository) GetSignalingMessages(ctx context.Context, sessionID string, limit int) ([]models.SignalingMessage, error) {
	var messages []models.SignalingMessage
	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		slog.Error("Failed to get signaling messages", "error", err, "session_id", sessionID)
		return nil, err
	}

	// Fetched newest first; replay wants oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
