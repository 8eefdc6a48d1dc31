package services

import (
	"testing"
	"time"
)

func TestPickIndexIsDeterministic(t *testing.T) {
	id := "6b1e7a30-2f4c-4a57-9be1-c4f2b0a1d9ee"
	first := pickIndex(id, 5)
	for i := 0; i < 10; i++ {
		if got := pickIndex(id, 5); got != first {
			t.Fatalf("pickIndex changed between calls: %d then %d", first, got)
		}
	}
	if first < 0 || first >= 5 {
		t.Errorf("pickIndex = %d, expected a value in [0,5)", first)
	}
}

func TestLastActivityWithin(t *testing.T) {
	if !lastActivityWithin(time.Now().Add(-time.Hour), 24*time.Hour) {
		t.Error("an hour-old entry should be within a day")
	}
	if lastActivityWithin(time.Now().Add(-48*time.Hour), 24*time.Hour) {
		t.Error("a two-day-old entry should not be within a day")
	}
}
