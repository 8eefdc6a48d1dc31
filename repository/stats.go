package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindhaven/backend/models"
	"gorm.io/gorm"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetMoodStats returns mood aggregates for a user using GORM
func (r *StatsRepository) GetMoodStats(ctx context.Context, userID string) (*models.MoodStats, error) {
	var stats models.MoodStats

	// Get total entries count
	if err := r.db.WithContext(ctx).
		Model(&models.MoodLog{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalEntries).Error; err != nil {
		slog.Error("Failed to get mood entry count", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get mood entry count: %w", err)
	}

	if stats.TotalEntries == 0 {
		return &stats, nil
	}

	// Averages over level and stress score
	row := struct {
		AvgLevel  float64
		AvgStress float64
	}{}
	if err := r.db.WithContext(ctx).
		Model(&models.MoodLog{}).
		Select("AVG(level) as avg_level, AVG(stress_score) as avg_stress").
		Where("user_id = ?", userID).
		Scan(&row).Error; err != nil {
		slog.Error("Failed to get mood averages", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get mood averages: %w", err)
	}
	stats.AverageMood = row.AvgLevel
	stats.AverageStress = row.AvgStress

	// High-stress entry count (stress score 4 and 5)
	if err := r.db.WithContext(ctx).
		Model(&models.MoodLog{}).
		Where("user_id = ? AND stress_score >= ?", userID, 4).
		Count(&stats.HighStress).Error; err != nil {
		slog.Error("Failed to get high stress count", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get high stress count: %w", err)
	}

	// Last entry timestamp
	var lastEntry models.MoodLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&lastEntry).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			slog.Error("Failed to get last mood entry", "error", err, "user_id", userID)
			return nil, fmt.Errorf("failed to get last mood entry: %w", err)
		}
	} else {
		stats.LastEntry = &lastEntry.CreatedAt
	}

	slog.Info("Mood stats retrieved", "user_id", userID, "total_entries", stats.TotalEntries)
	return &stats, nil
}

// GetChatStats returns peer-chat aggregates for a user using GORM
func (r *StatsRepository) GetChatStats(ctx context.Context, userID string) (*models.ChatStats, error) {
	var stats models.ChatStats

	if err := r.db.WithContext(ctx).
		Model(&models.VideoSession{}).
		Where("caller_id = ? OR callee_id = ?", userID, userID).
		Count(&stats.TotalSessions).Error; err != nil {
		slog.Error("Failed to get session count", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get session count: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("sender_id = ?", userID).
		Count(&stats.TotalMessages).Error; err != nil {
		slog.Error("Failed to get message count", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get message count: %w", err)
	}

	var lastSession models.VideoSession
	if err := r.db.WithContext(ctx).
		Where("caller_id = ? OR callee_id = ?", userID, userID).
		Order("created_at DESC").
		First(&lastSession).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			slog.Error("Failed to get last session", "error", err, "user_id", userID)
			return nil, fmt.Errorf("failed to get last session: %w", err)
		}
	} else {
		stats.LastSession = &lastSession.CreatedAt
	}

	return &stats, nil
}

// GetMoodLogsSince returns a user's mood entries newer than the given time,
// oldest first, for daily bucketing and exports.
func (r *StatsRepository) GetMoodLogsSince(ctx context.Context, userID string, since time.Time) ([]models.MoodLog, error) {
	var logs []models.MoodLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		slog.Error("Failed to get mood logs since", "error", err, "user_id", userID, "since", since)
		return nil, fmt.Errorf("failed to get mood logs: %w", err)
	}
	return logs, nil
}
