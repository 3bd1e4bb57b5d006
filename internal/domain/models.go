package domain

// Difficulty selects how hard generated questions should be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty maps free-form input to a known difficulty, defaulting to Medium.
func ParseDifficulty(raw string) Difficulty {
	switch raw {
	case "easy", "Easy":
		return DifficultyEasy
	case "hard", "Hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// QuizQuestion is a single validated multiple-choice question.
// Decoded instances are treated as immutable; Options holds exactly four
// entries and CorrectIndex is within [0,3] once validated.
type QuizQuestion struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswerIndex"`
}

// Valid reports whether the question satisfies the shape invariants.
func (q QuizQuestion) Valid() bool {
	return q.Text != "" && len(q.Options) == 4 && q.CorrectIndex >= 0 && q.CorrectIndex < 4
}

// TopicStats accumulates per-topic answer counts for a user.
type TopicStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// StreakState is the persisted daily-streak ledger for a user.
// CurrentStreak is zero iff no session ever completed or the gap since
// LastPlayed exceeds one calendar day at read time.
type StreakState struct {
	CurrentStreak int
	LastPlayed    string // yyyy-MM-dd, empty when never played
}

// QuizSummary is the write-once snapshot persisted when a session completes.
type QuizSummary struct {
	Topic          string `json:"topic"`
	Score          int    `json:"score"`
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
	XPGained       int    `json:"xpGained"`
	Date           string `json:"date"` // yyyy-MM-dd
}
