package services

import (
	"math"
	"testing"
	"time"

	"github.com/mindhaven/backend/models"
)

func TestDailyBuckets(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 22, 30, 0, 0, time.UTC)

	logs := []models.MoodLog{
		{Level: 4, StressScore: 2, CreatedAt: day1},
		{Level: 2, StressScore: 4, CreatedAt: day1.Add(6 * time.Hour)},
		{Level: 3, StressScore: 3, CreatedAt: day2},
	}

	buckets := dailyBuckets(logs, time.UTC)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, expected 2", len(buckets))
	}

	first := buckets[0]
	if first.Date != "2026-03-01" {
		t.Errorf("first bucket date = %q, expected 2026-03-01", first.Date)
	}
	if first.Entries != 2 {
		t.Errorf("first bucket entries = %d, expected 2", first.Entries)
	}
	if math.Abs(first.AverageMood-3.0) > 1e-9 {
		t.Errorf("first bucket average mood = %v, expected 3.0", first.AverageMood)
	}
	if math.Abs(first.AverageStress-3.0) > 1e-9 {
		t.Errorf("first bucket average stress = %v, expected 3.0", first.AverageStress)
	}

	second := buckets[1]
	if second.Date != "2026-03-02" {
		t.Errorf("second bucket date = %q, expected 2026-03-02", second.Date)
	}
	if second.Entries != 1 {
		t.Errorf("second bucket entries = %d, expected 1", second.Entries)
	}
	if math.Abs(second.AverageMood-3.0) > 1e-9 {
		t.Errorf("second bucket average mood = %v, expected 3.0", second.AverageMood)
	}
}

func TestDailyBucketsRespectsLocation(t *testing.T) {
	// 23:30 UTC on March 1st is already March 2nd one hour east.
	east := time.FixedZone("east", 3600)
	logs := []models.MoodLog{
		{Level: 3, StressScore: 3, CreatedAt: time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)},
	}

	buckets := dailyBuckets(logs, east)
	if len(buckets) != 1 || buckets[0].Date != "2026-03-02" {
		t.Fatalf("got %+v, expected a single 2026-03-02 bucket", buckets)
	}
}

func TestDailyBucketsEmpty(t *testing.T) {
	if buckets := dailyBuckets(nil, time.UTC); len(buckets) != 0 {
		t.Errorf("got %d buckets for no logs, expected 0", len(buckets))
	}
}
