package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
	"github.com/xuri/excelize/v2"
)

type StatsEndpoints struct {
	stats *repository.StatsRepository
}

func NewStatsEndpoints(stats *repository.StatsRepository) *StatsEndpoints {
	return &StatsEndpoints{stats: stats}
}

func (e *StatsEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.Get("/", e.GetStatsHandler)
		r.Get("/daily", e.GetDailyStatsHandler)
		r.Get("/export", e.ExportHandler)
	})
}

// DailyBucket aggregates a user's entries for one calendar day.
type DailyBucket struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	Entries       int     `json:"entries"`
	AverageMood   float64 `json:"average_mood"`
	AverageStress float64 `json:"average_stress"`
}

// dailyBuckets groups entries by calendar day in the given location,
// oldest day first. Input must already be sorted oldest first.
func dailyBuckets(logs []models.MoodLog, loc *time.Location) []DailyBucket {
	var buckets []DailyBucket
	var moodSum, stressSum int

	flush := func(count int) {
		if count == 0 {
			return
		}
		last := &buckets[len(buckets)-1]
		last.Entries = count
		last.AverageMood = float64(moodSum) / float64(count)
		last.AverageStress = float64(stressSum) / float64(count)
	}

	count := 0
	for _, log := range logs {
		day := log.CreatedAt.In(loc).Format("2006-01-02")
		if len(buckets) == 0 || buckets[len(buckets)-1].Date != day {
			flush(count)
			buckets = append(buckets, DailyBucket{Date: day})
			moodSum, stressSum, count = 0, 0, 0
		}
		moodSum += log.Level
		stressSum += log.StressScore
		count++
	}
	flush(count)
	return buckets
}

func (e *StatsEndpoints) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	moodStats, err := e.stats.GetMoodStats(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get mood stats", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	chatStats, err := e.stats.GetChatStats(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get chat stats", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"mood": moodStats,
		"chat": chatStats,
	})
}

func (e *StatsEndpoints) GetDailyStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	since := time.Now().AddDate(0, 0, -days)
	logs, err := e.stats.GetMoodLogsSince(r.Context(), user.ID, since)
	if err != nil {
		slog.Error("Failed to get mood logs for daily stats", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get daily statistics", http.StatusInternalServerError)
		return
	}

	buckets := dailyBuckets(logs, time.UTC)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"days":    days,
		"buckets": buckets,
	})
}

// ExportHandler streams the user's mood history as an XLSX workbook.
func (e *StatsEndpoints) ExportHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	days := 365
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 3650 {
			days = parsed
		}
	}

	since := time.Now().AddDate(0, 0, -days)
	logs, err := e.stats.GetMoodLogsSince(r.Context(), user.ID, since)
	if err != nil {
		slog.Error("Failed to get mood logs for export", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to export mood history", http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Mood History"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Mood Level", "Stress Score", "Band", "Note"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, log := range logs {
		values := []interface{}{
			log.CreatedAt.Format("2006-01-02 15:04"),
			log.Level,
			log.StressScore,
			log.Band(),
			log.Note,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("mood-history-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(w); err != nil {
		slog.Error("Failed to write XLSX export", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("Mood history exported", "user_id", user.ID, "entries", len(logs))
}
