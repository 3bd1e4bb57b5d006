package memory

import (
	"context"
	"sync"

	"quizion-service/internal/app"
	"quizion-service/internal/domain"
)

// ProfileStore is a map-backed persistence gateway, useful for tests and
// Redis-less runs. Defaults match the documented key-space contract: XP and
// streak start at 0, the username is a generated guest identifier, and
// notifications are on.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*profile
}

type profile struct {
	username      string
	xp            int
	streak        domain.StreakState
	topics        map[string]domain.TopicStats
	lastSummary   *domain.QuizSummary
	notifications bool
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]*profile)}
}

func (s *ProfileStore) get(userID string) *profile {
	if p, ok := s.profiles[userID]; ok {
		return p
	}
	p := &profile{
		username:      domain.GuestName(),
		topics:        make(map[string]domain.TopicStats),
		notifications: true,
	}
	s.profiles[userID] = p
	return p
}

func (s *ProfileStore) Username(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(userID).username, nil
}

func (s *ProfileStore) SetUsername(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).username = name
	return nil
}

func (s *ProfileStore) XP(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p.xp, nil
	}
	return 0, nil
}

func (s *ProfileStore) AddXP(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(userID)
	p.xp += delta
	return p.xp, nil
}

func (s *ProfileStore) StreakState(_ context.Context, userID string) (domain.StreakState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p.streak, nil
	}
	return domain.StreakState{}, nil
}

func (s *ProfileStore) SaveStreakState(_ context.Context, userID string, state domain.StreakState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).streak = state
	return nil
}

func (s *ProfileStore) AllTopicStats(_ context.Context, userID string) (map[string]domain.TopicStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(map[string]domain.TopicStats)
	if p, ok := s.profiles[userID]; ok {
		for topic, tally := range p.topics {
			stats[topic] = tally
		}
	}
	return stats, nil
}

func (s *ProfileStore) RecordAnswer(_ context.Context, userID, topic string, correct bool) (domain.TopicStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(userID)
	key := domain.SanitizeTopic(topic)
	tally := app.UpdateTopicStats(p.topics[key], correct)
	p.topics[key] = tally
	return tally, nil
}

func (s *ProfileStore) LastSummary(_ context.Context, userID string) (domain.QuizSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok && p.lastSummary != nil {
		return *p.lastSummary, true, nil
	}
	return domain.QuizSummary{}, false, nil
}

func (s *ProfileStore) SaveLastSummary(_ context.Context, userID string, summary domain.QuizSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).lastSummary = &summary
	return nil
}

func (s *ProfileStore) NotificationsEnabled(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p.notifications, nil
	}
	return true, nil
}

func (s *ProfileStore) SetNotificationsEnabled(_ context.Context, userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).notifications = enabled
	return nil
}
