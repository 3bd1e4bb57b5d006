package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"quizion-service/internal/domain"
)

// QuestionSource produces a validated question list for a topic. The only
// implementation that talks to a network lives in internal/genai.
type QuestionSource interface {
	Questions(ctx context.Context, topic string, difficulty domain.Difficulty, count int, stats map[string]domain.TopicStats) ([]domain.QuizQuestion, error)
}

// ProfileStore is the persistence gateway for longitudinal user state.
// Every read supplies a documented default when the key is absent: XP and
// streak default to 0, the username to a generated guest identifier, topic
// tallies to 0:0 and the notification preference to true.
type ProfileStore interface {
	Username(ctx context.Context, userID string) (string, error)
	XP(ctx context.Context, userID string) (int, error)
	AddXP(ctx context.Context, userID string, delta int) (int, error)
	StreakState(ctx context.Context, userID string) (domain.StreakState, error)
	SaveStreakState(ctx context.Context, userID string, state domain.StreakState) error
	AllTopicStats(ctx context.Context, userID string) (map[string]domain.TopicStats, error)
	RecordAnswer(ctx context.Context, userID, topic string, correct bool) (domain.TopicStats, error)
	LastSummary(ctx context.Context, userID string) (domain.QuizSummary, bool, error)
	SaveLastSummary(ctx context.Context, userID string, summary domain.QuizSummary) error
	NotificationsEnabled(ctx context.Context, userID string) (bool, error)
	SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error
}

// SummaryArchive appends completed summaries to long-term storage.
type SummaryArchive interface {
	SaveSummary(ctx context.Context, userID string, summary domain.QuizSummary) error
}

// SessionRepository tracks live sessions by ID (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(id string, session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuizService wires question generation, session lifecycle and the
// persistence gateway together.
type QuizService struct {
	sessions       SessionRepository
	source         QuestionSource
	profiles       ProfileStore
	archive        SummaryArchive
	clock          func() time.Time
	questionBudget time.Duration
	tickEvery      time.Duration
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithArchive enables long-term summary archiving.
func WithArchive(archive SummaryArchive) Option {
	return func(s *QuizService) { s.archive = archive }
}

// WithClock is test-only for deterministic dates.
func WithClock(clock func() time.Time) Option {
	return func(s *QuizService) { s.clock = clock }
}

// WithTickInterval is test-only to run countdowns faster than wall time.
func WithTickInterval(d time.Duration) Option {
	return func(s *QuizService) { s.tickEvery = d }
}

// WithQuestionBudget overrides the per-question answer budget.
func WithQuestionBudget(d time.Duration) Option {
	return func(s *QuizService) { s.questionBudget = d }
}

func NewQuizService(sessions SessionRepository, source QuestionSource, profiles ProfileStore, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:       sessions,
		source:         source,
		profiles:       profiles,
		clock:          time.Now,
		questionBudget: questionBudgetMs * time.Millisecond,
		tickEvery:      time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession generates questions for the topic and, on success, creates a
// session already showing its first question with the countdown running.
// Generation is the only slow call; it is bounded by ctx, so an abandoned
// caller aborts it and no session is ever left half-initialized.
func (s *QuizService) StartSession(ctx context.Context, userID, topic string, difficulty domain.Difficulty, count int) (*Session, error) {
	stats, err := s.profiles.AllTopicStats(ctx, userID)
	if err != nil {
		// Context only biases the prompt; generation proceeds without it.
		log.Printf("app: read topic stats for %s: %v", userID, err)
		stats = nil
	}

	questions, err := s.source.Questions(ctx, topic, difficulty, count, stats)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("%s-%d", userID, s.clock().UnixNano())
	session := newSession(id, userID, topic, questions, s.profiles, s.archive, s.clock, int(s.questionBudget/time.Millisecond), s.tickEvery)
	s.sessions.Put(id, session)
	session.begin()
	return session, nil
}

// Session looks up a live session.
func (s *QuizService) Session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EndSession cancels a session and forgets it. Safe to call on completed or
// unknown sessions.
func (s *QuizService) EndSession(id string) {
	if session, ok := s.sessions.Get(id); ok {
		session.Cancel()
	}
	s.sessions.Delete(id)
}

// Profile is the read model for the home/profile surfaces.
type Profile struct {
	Username    string              `json:"username"`
	XP          int                 `json:"xp"`
	Level       int                 `json:"level"`
	Streak      int                 `json:"streak"`
	LastSummary *domain.QuizSummary `json:"lastSummary,omitempty"`
}

// Profile assembles the user's progress view. Reading the streak applies the
// read-time reset: a streak whose last play is neither today nor yesterday
// is persisted back as 0 before being returned.
func (s *QuizService) Profile(ctx context.Context, userID string) (Profile, error) {
	username, err := s.profiles.Username(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("read username: %w", err)
	}
	xp, err := s.profiles.XP(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("read xp: %w", err)
	}
	streak, err := s.CheckStreak(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		Username: username,
		XP:       xp,
		Level:    Level(xp),
		Streak:   streak,
	}
	if summary, ok, err := s.profiles.LastSummary(ctx, userID); err != nil {
		log.Printf("app: read last summary for %s: %v", userID, err)
	} else if ok {
		profile.LastSummary = &summary
	}
	return profile, nil
}

// CheckStreak returns the current streak after applying the read-time reset.
func (s *QuizService) CheckStreak(ctx context.Context, userID string) (int, error) {
	state, err := s.profiles.StreakState(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read streak state: %w", err)
	}
	if state.CurrentStreak != 0 && StreakExpired(s.clock(), state.LastPlayed) {
		state.CurrentStreak = 0
		if err := s.profiles.SaveStreakState(ctx, userID, state); err != nil {
			log.Printf("app: reset expired streak for %s: %v", userID, err)
		}
	}
	return state.CurrentStreak, nil
}
