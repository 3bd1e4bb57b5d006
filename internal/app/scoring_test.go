package app

import (
	"testing"

	"quizion-service/internal/domain"
)

func TestScore(t *testing.T) {
	for _, current := range []int{0, 10, 50, 990} {
		if got := Score(true, current); got != current+10 {
			t.Fatalf("Score(true, %d) = %d, want %d", current, got, current+10)
		}
		if got := Score(false, current); got != current {
			t.Fatalf("Score(false, %d) = %d, want %d", current, got, current)
		}
	}
}

func TestUpdateTopicStats(t *testing.T) {
	stats := domain.TopicStats{Correct: 2, Total: 5}

	stats = UpdateTopicStats(stats, true)
	if stats.Correct != 3 || stats.Total != 6 {
		t.Fatalf("after correct answer: %+v", stats)
	}

	stats = UpdateTopicStats(stats, false)
	if stats.Correct != 3 || stats.Total != 7 {
		t.Fatalf("after incorrect answer: %+v", stats)
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		xp, level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{-5, 1},
	}
	for _, tc := range cases {
		if got := Level(tc.xp); got != tc.level {
			t.Fatalf("Level(%d) = %d, want %d", tc.xp, got, tc.level)
		}
	}
}
