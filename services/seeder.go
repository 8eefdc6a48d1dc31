package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	if err := s.seedRecommendations(ctx); err != nil {
		return err
	}
	if err := s.seedUsers(ctx); err != nil {
		return err
	}

	slog.Info("Database seeding completed")
	return nil
}

// seedRecommendations fills the static wellness catalogue once.
func (s *DatabaseSeeder) seedRecommendations(ctx context.Context) error {
	count, err := s.repo.CountRecommendations(ctx)
	if err != nil {
		return fmt.Errorf("failed to count recommendations: %w", err)
	}
	if count > 0 {
		slog.Info("Recommendation catalogue already seeded, skipping")
		return nil
	}

	catalogue := []models.Recommendation{
		{
			Band:  models.BandLow,
			Title: "Keep the streak going",
			Body:  "Your recent entries look calm. A short daily check-in keeps the picture accurate even on good weeks.",
		},
		{
			Band:  models.BandLow,
			Title: "Bank the good moments",
			Body:  "Write one thing that went well today into your next note. Looking back at these helps on harder days.",
		},
		{
			Band:  models.BandLow,
			Title: "Share the calm",
			Body:  "Feeling steady is a good time to hop into peer chat and listen. Supporting someone else often lifts both sides.",
		},
		{
			Band:  models.BandModerate,
			Title: "Try a two-minute breathing break",
			Body:  "Four seconds in, hold for four, six out. Two minutes of slow breathing reliably lowers a building stress level.",
		},
		{
			Band:  models.BandModerate,
			Title: "Step away from the screen",
			Body:  "A ten-minute walk without your phone resets focus better than pushing through. Schedule it like a meeting.",
		},
		{
			Band:  models.BandModerate,
			Title: "Split the big thing",
			Body:  "If one task dominates your notes, break it into the smallest next step and do only that step today.",
		},
		{
			Band:  models.BandHigh,
			Title: "Talk it out with a peer",
			Body:  "You do not have to carry this alone. Join the peer chat queue and talk to someone who gets it, anonymously.",
		},
		{
			Band:  models.BandHigh,
			Title: "Ground yourself first",
			Body:  "Name five things you can see, four you can touch, three you can hear. Grounding interrupts a stress spiral before problem-solving starts.",
		},
		{
			Band:  models.BandHigh,
			Title: "Protect tonight's sleep",
			Body:  "High stress and short sleep feed each other. Set a hard stop on work an hour before bed, tonight only, and see how tomorrow reads.",
		},
	}

	for _, rec := range catalogue {
		rec := rec
		if err := s.repo.CreateRecommendation(ctx, &rec); err != nil {
			slog.Error("Failed to seed recommendation", "title", rec.Title, "error", err)
		}
	}

	slog.Info("Recommendation catalogue seeded", "count", len(catalogue))
	return nil
}

// seedUsers creates the demo accounts (no admin users for security).
func (s *DatabaseSeeder) seedUsers(ctx context.Context) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []models.User{
		{
			Email:       "test@example.com",
			Password:    string(hashedPassword),
			Handle:      "calm-otter-1000",
			DisplayName: "Test User",
			Role:        "user",
		},
		{
			Email:       "demo@example.com",
			Password:    string(hashedPassword),
			Handle:      "quiet-heron-1001",
			DisplayName: "Demo User",
			Role:        "user",
		},
	}

	for _, user := range users {
		existing, err := s.repo.GetUserByEmail(ctx, user.Email)
		if err != nil {
			slog.Error("Failed to check existing user", "email", user.Email, "error", err)
			continue
		}
		if existing != nil {
			continue
		}
		user := user
		if err := s.repo.CreateUser(ctx, &user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	return nil
}
