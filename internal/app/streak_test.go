package app

import (
	"testing"
	"time"
)

var today = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func TestAdvanceStreak(t *testing.T) {
	cases := []struct {
		name       string
		lastPlayed string
		current    int
		want       int
	}{
		{"never played", "", 4, 1},
		{"same day replay", "2024-03-10", 4, 4},
		{"consecutive day", "2024-03-09", 4, 5},
		{"two day gap", "2024-03-08", 4, 1},
		{"long gap", "2024-02-01", 9, 1},
		{"corrupt date", "not-a-date", 4, 1},
	}
	for _, tc := range cases {
		if got := AdvanceStreak(today, tc.lastPlayed, tc.current); got != tc.want {
			t.Fatalf("%s: AdvanceStreak = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestAdvanceStreakAcrossMonthBoundary(t *testing.T) {
	firstOfMonth := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if got := AdvanceStreak(firstOfMonth, "2024-02-29", 6); got != 7 {
		t.Fatalf("leap-day continuation: got %d, want 7", got)
	}
}

func TestStreakExpired(t *testing.T) {
	cases := []struct {
		name       string
		lastPlayed string
		want       bool
	}{
		{"never played", "", true},
		{"played today", "2024-03-10", false},
		{"played yesterday", "2024-03-09", false},
		{"two days ago", "2024-03-08", true},
		{"three days ago", "2024-03-07", true},
		{"corrupt date", "garbage", true},
	}
	for _, tc := range cases {
		if got := StreakExpired(today, tc.lastPlayed); got != tc.want {
			t.Fatalf("%s: StreakExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}
