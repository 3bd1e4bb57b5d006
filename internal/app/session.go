package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quizion-service/internal/domain"
)

// State enumerates the lifecycle of a running session. Loading happens
// before a Session exists (QuizService.StartSession); a Session is born in
// AwaitingSelection and dies in Completed.
type State string

const (
	StateAwaitingSelection  State = "awaiting_selection"
	StateAwaitingSubmission State = "awaiting_submission"
	StateRevealed           State = "revealed"
	StateCompleted          State = "completed"
)

const (
	// questionBudgetMs is the default per-question time budget.
	questionBudgetMs = 30000
	// tickDecrementMs is how much budget one tick consumes.
	tickDecrementMs = 1000
	// noSelection marks a question with no option picked yet.
	noSelection = -1
)

// EventType tags the event stream a session broadcasts to subscribers.
type EventType string

const (
	EventQuestion EventType = "question"
	EventTick     EventType = "tick"
	EventReveal   EventType = "reveal"
	EventSummary  EventType = "summary"
)

// QuestionView is what subscribers may see of the current question; the
// correct index is withheld until reveal.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// RevealView discloses the outcome of one answered question.
type RevealView struct {
	QuestionIndex int  `json:"questionIndex"`
	CorrectIndex  int  `json:"correctIndex"`
	SelectedIndex *int `json:"selectedIndex,omitempty"`
	Correct       bool `json:"correct"`
	Score         int  `json:"score"`
}

// Event is one session state change pushed to subscribers.
type Event struct {
	Type        EventType           `json:"type"`
	Question    *QuestionView       `json:"question,omitempty"`
	RemainingMs int                 `json:"remainingMs,omitempty"`
	Reveal      *RevealView         `json:"reveal,omitempty"`
	Summary     *domain.QuizSummary `json:"summary,omitempty"`
}

// Session is the quiz state machine for one user's run through a question
// list. All transitions are serialized under its mutex; the countdown runs
// on its own goroutine but mutates state only through tick/expire, which
// carry a generation token so a cancelled countdown can never fire against
// a later question or a torn-down session.
type Session struct {
	id        string
	userID    string
	topic     string
	questions []domain.QuizQuestion

	profiles  ProfileStore
	archive   SummaryArchive
	clock     func() time.Time
	budgetMs  int
	tickEvery time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	idx         int
	score       int
	selected    int
	remainingMs int
	timerGen    int
	summary     *domain.QuizSummary
	subscribers map[chan Event]struct{}
	closed      bool
}

func newSession(id, userID, topic string, questions []domain.QuizQuestion, profiles ProfileStore, archive SummaryArchive, clock func() time.Time, budgetMs int, tickEvery time.Duration) *Session {
	if budgetMs <= 0 {
		budgetMs = questionBudgetMs
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:          id,
		userID:      userID,
		topic:       topic,
		questions:   questions,
		profiles:    profiles,
		archive:     archive,
		clock:       clock,
		budgetMs:    budgetMs,
		tickEvery:   tickEvery,
		ctx:         ctx,
		cancel:      cancel,
		state:       StateAwaitingSelection,
		selected:    noSelection,
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Topic returns the topic the session was generated for.
func (s *Session) Topic() string { return s.topic }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the running score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Summary returns the final summary once the session completed normally.
func (s *Session) Summary() (domain.QuizSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.QuizSummary{}, false
	}
	return *s.summary, true
}

// begin shows the first question and starts its countdown.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(s.questionEventLocked())
	s.startTimerLocked()
}

// Select records the user's option pick. Re-selecting replaces the prior
// pick without side effects; selection is rejected once the answer is
// revealed or the session is over.
func (s *Session) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCompleted:
		return domain.ErrSessionCompleted
	case StateRevealed:
		return domain.ErrAlreadyRevealed
	}
	if index < 0 || index >= len(s.questions[s.idx].Options) {
		return domain.ErrInvalidOption
	}
	s.selected = index
	s.state = StateAwaitingSubmission
	return nil
}

// Submit reveals the current answer. Explicit submission requires a
// selection; only timer expiry may submit with none.
func (s *Session) Submit() error {
	s.mu.Lock()
	switch s.state {
	case StateCompleted:
		s.mu.Unlock()
		return domain.ErrSessionCompleted
	case StateRevealed:
		s.mu.Unlock()
		return domain.ErrAlreadyRevealed
	case StateAwaitingSelection:
		s.mu.Unlock()
		return domain.ErrNoSelection
	}
	correct := s.revealLocked()
	s.mu.Unlock()

	s.recordAnswer(correct)
	return nil
}

// Next advances past a revealed answer, either to the following question or
// to completion.
func (s *Session) Next() error {
	s.mu.Lock()
	switch s.state {
	case StateCompleted:
		s.mu.Unlock()
		return domain.ErrSessionCompleted
	case StateAwaitingSelection, StateAwaitingSubmission:
		s.mu.Unlock()
		return domain.ErrNotRevealed
	}

	s.idx++
	if s.idx >= len(s.questions) {
		s.state = StateCompleted
		s.timerGen++
		s.mu.Unlock()
		s.complete()
		return nil
	}

	s.selected = noSelection
	s.state = StateAwaitingSelection
	s.broadcastLocked(s.questionEventLocked())
	s.startTimerLocked()
	s.mu.Unlock()
	return nil
}

// Cancel tears the session down: the countdown is invalidated, subscriber
// channels are closed, and any in-flight callback becomes a no-op. No
// summary is produced.
func (s *Session) Cancel() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerGen++
	s.state = StateCompleted
	s.closeSubscribersLocked()
}

// Subscribe returns a channel of session events plus a cancel func the
// caller must invoke to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// Late subscribers get the current question as an initial snapshot.
	if s.state != StateCompleted {
		ch <- s.questionEventLocked()
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// revealLocked performs the AwaitingSubmission -> Revealed transition:
// stops the countdown, scores the answer, and broadcasts the outcome.
func (s *Session) revealLocked() bool {
	s.timerGen++
	question := s.questions[s.idx]
	correct := s.selected != noSelection && s.selected == question.CorrectIndex
	s.score = Score(correct, s.score)
	s.state = StateRevealed

	var selectedPtr *int
	if s.selected != noSelection {
		v := s.selected
		selectedPtr = &v
	}
	s.broadcastLocked(Event{Type: EventReveal, Reveal: &RevealView{
		QuestionIndex: s.idx,
		CorrectIndex:  question.CorrectIndex,
		SelectedIndex: selectedPtr,
		Correct:       correct,
		Score:         s.score,
	}})
	return correct
}

// recordAnswer updates the persisted per-topic tally. Failures are logged
// and never interrupt the user flow.
func (s *Session) recordAnswer(correct bool) {
	if _, err := s.profiles.RecordAnswer(s.ctx, s.userID, s.topic, correct); err != nil {
		log.Printf("session %s: record answer for topic %q: %v", s.id, s.topic, err)
	}
}

// complete builds the final summary, advances the streak ledger, and
// persists everything. Persistence failures are logged; the summary is
// still produced and broadcast.
func (s *Session) complete() {
	now := s.clock()
	date := now.Format(DateLayout)

	s.mu.Lock()
	summary := domain.QuizSummary{
		Topic:          s.topic,
		Score:          s.score,
		CorrectCount:   s.score / pointsPerCorrect,
		TotalQuestions: len(s.questions),
		XPGained:       s.score,
		Date:           date,
	}
	s.summary = &summary
	s.mu.Unlock()

	streak, err := s.profiles.StreakState(s.ctx, s.userID)
	if err != nil {
		log.Printf("session %s: read streak state: %v", s.id, err)
	}
	streak.CurrentStreak = AdvanceStreak(now, streak.LastPlayed, streak.CurrentStreak)
	streak.LastPlayed = date
	if err := s.profiles.SaveStreakState(s.ctx, s.userID, streak); err != nil {
		log.Printf("session %s: save streak state: %v", s.id, err)
	}
	if _, err := s.profiles.AddXP(s.ctx, s.userID, summary.XPGained); err != nil {
		log.Printf("session %s: add xp: %v", s.id, err)
	}
	if err := s.profiles.SaveLastSummary(s.ctx, s.userID, summary); err != nil {
		log.Printf("session %s: save summary: %v", s.id, err)
	}
	if s.archive != nil {
		if err := s.archive.SaveSummary(s.ctx, s.userID, summary); err != nil {
			log.Printf("session %s: archive summary: %v", s.id, err)
		}
	}

	s.mu.Lock()
	s.broadcastLocked(Event{Type: EventSummary, Summary: &summary})
	s.closeSubscribersLocked()
	s.mu.Unlock()
}

// startTimerLocked begins a fresh countdown for the current question,
// invalidating any previous one first so duplicate ticks cannot occur.
func (s *Session) startTimerLocked() {
	s.timerGen++
	gen := s.timerGen
	s.remainingMs = s.budgetMs
	go s.countdown(gen)
}

func (s *Session) countdown(gen int) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			expired, live := s.applyTick(gen)
			if !live {
				return
			}
			if expired {
				s.expire(gen)
				return
			}
		}
	}
}

// applyTick burns one tick's worth of budget. It reports whether the budget
// is exhausted and whether this countdown still owns the question.
func (s *Session) applyTick(gen int) (expired, live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || (s.state != StateAwaitingSelection && s.state != StateAwaitingSubmission) {
		return false, false
	}
	s.remainingMs -= tickDecrementMs
	if s.remainingMs < 0 {
		s.remainingMs = 0
	}
	s.broadcastLocked(Event{Type: EventTick, RemainingMs: s.remainingMs})
	return s.remainingMs == 0, true
}

// expire treats a drained budget as submission with no selection. A pick
// that was never submitted is discarded, so expiry always scores incorrect.
func (s *Session) expire(gen int) {
	s.mu.Lock()
	if gen != s.timerGen || (s.state != StateAwaitingSelection && s.state != StateAwaitingSubmission) {
		s.mu.Unlock()
		return
	}
	s.selected = noSelection
	correct := s.revealLocked()
	s.mu.Unlock()

	s.recordAnswer(correct)
}

func (s *Session) questionEventLocked() Event {
	question := s.questions[s.idx]
	return Event{Type: EventQuestion, Question: &QuestionView{
		Index:   s.idx,
		Total:   len(s.questions),
		Text:    question.Text,
		Options: question.Options,
	}}
}

func (s *Session) broadcastLocked(event Event) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest event rather than block the state machine on
			// a slow subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (s *Session) closeSubscribersLocked() {
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}
