package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"quizion-service/internal/app"
	"quizion-service/internal/domain"
)

// ProfileStore persists user progress in Redis under per-user keys:
//
//	user:{id}:name          string, guest name generated on first read
//	user:{id}:xp            integer, default 0
//	user:{id}:streak        integer, default 0
//	user:{id}:last_played   yyyy-MM-dd, default empty
//	user:{id}:topics        hash {sanitized topic -> "correct:total"}
//	user:{id}:last_quiz     hash {topic,score,correct,total,xp,date}
//	user:{id}:notifications "1"/"0", default on
//
// A single user writes from a single device, so read-modify-write on the
// topics hash needs no cross-writer coordination.
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) key(userID, suffix string) string {
	return "user:" + userID + ":" + suffix
}

func (s *ProfileStore) Username(ctx context.Context, userID string) (string, error) {
	name, err := s.client.Get(ctx, s.key(userID, "name")).Result()
	if errors.Is(err, redis.Nil) {
		name = domain.GuestName()
		if err := s.client.Set(ctx, s.key(userID, "name"), name, 0).Err(); err != nil {
			return "", fmt.Errorf("persist guest name: %w", err)
		}
		return name, nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *ProfileStore) SetUsername(ctx context.Context, userID, name string) error {
	return s.client.Set(ctx, s.key(userID, "name"), name, 0).Err()
}

func (s *ProfileStore) XP(ctx context.Context, userID string) (int, error) {
	return s.getInt(ctx, s.key(userID, "xp"))
}

func (s *ProfileStore) AddXP(ctx context.Context, userID string, delta int) (int, error) {
	total, err := s.client.IncrBy(ctx, s.key(userID, "xp"), int64(delta)).Result()
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *ProfileStore) StreakState(ctx context.Context, userID string) (domain.StreakState, error) {
	streak, err := s.getInt(ctx, s.key(userID, "streak"))
	if err != nil {
		return domain.StreakState{}, err
	}
	lastPlayed, err := s.client.Get(ctx, s.key(userID, "last_played")).Result()
	if errors.Is(err, redis.Nil) {
		lastPlayed = ""
	} else if err != nil {
		return domain.StreakState{}, err
	}
	return domain.StreakState{CurrentStreak: streak, LastPlayed: lastPlayed}, nil
}

func (s *ProfileStore) SaveStreakState(ctx context.Context, userID string, state domain.StreakState) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(userID, "streak"), state.CurrentStreak, 0)
	pipe.Set(ctx, s.key(userID, "last_played"), state.LastPlayed, 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *ProfileStore) AllTopicStats(ctx context.Context, userID string) (map[string]domain.TopicStats, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID, "topics")).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[string]domain.TopicStats, len(raw))
	for topic, tally := range raw {
		stats[topic] = parseTally(tally)
	}
	return stats, nil
}

func (s *ProfileStore) RecordAnswer(ctx context.Context, userID, topic string, correct bool) (domain.TopicStats, error) {
	key := s.key(userID, "topics")
	field := domain.SanitizeTopic(topic)

	raw, err := s.client.HGet(ctx, key, field).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.TopicStats{}, err
	}
	tally := app.UpdateTopicStats(parseTally(raw), correct)
	if err := s.client.HSet(ctx, key, field, formatTally(tally)).Err(); err != nil {
		return domain.TopicStats{}, err
	}
	return tally, nil
}

func (s *ProfileStore) LastSummary(ctx context.Context, userID string) (domain.QuizSummary, bool, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID, "last_quiz")).Result()
	if err != nil {
		return domain.QuizSummary{}, false, err
	}
	if len(raw) == 0 {
		return domain.QuizSummary{}, false, nil
	}
	return domain.QuizSummary{
		Topic:          raw["topic"],
		Score:          atoiOrZero(raw["score"]),
		CorrectCount:   atoiOrZero(raw["correct"]),
		TotalQuestions: atoiOrZero(raw["total"]),
		XPGained:       atoiOrZero(raw["xp"]),
		Date:           raw["date"],
	}, true, nil
}

func (s *ProfileStore) SaveLastSummary(ctx context.Context, userID string, summary domain.QuizSummary) error {
	return s.client.HSet(ctx, s.key(userID, "last_quiz"),
		"topic", summary.Topic,
		"score", summary.Score,
		"correct", summary.CorrectCount,
		"total", summary.TotalQuestions,
		"xp", summary.XPGained,
		"date", summary.Date,
	).Err()
}

func (s *ProfileStore) NotificationsEnabled(ctx context.Context, userID string) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID, "notifications")).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return raw != "0", nil
}

func (s *ProfileStore) SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	return s.client.Set(ctx, s.key(userID, "notifications"), value, 0).Err()
}

func (s *ProfileStore) getInt(ctx context.Context, key string) (int, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil // corrupt value reads as the default
	}
	return n, nil
}

// parseTally decodes the "correct:total" pair; corrupt values read as 0:0.
func parseTally(raw string) domain.TopicStats {
	correct, total, ok := strings.Cut(raw, ":")
	if !ok {
		return domain.TopicStats{}
	}
	return domain.TopicStats{Correct: atoiOrZero(correct), Total: atoiOrZero(total)}
}

func formatTally(stats domain.TopicStats) string {
	return strconv.Itoa(stats.Correct) + ":" + strconv.Itoa(stats.Total)
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
