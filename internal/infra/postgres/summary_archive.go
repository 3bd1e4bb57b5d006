package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quizion-service/internal/domain"
)

// SummaryArchive appends completed quiz summaries to Postgres for
// longitudinal history beyond the last-session snapshot the key-value
// gateway keeps.
type SummaryArchive struct {
	pool *pgxpool.Pool
}

func NewSummaryArchive(pool *pgxpool.Pool) *SummaryArchive {
	return &SummaryArchive{pool: pool}
}

func (a *SummaryArchive) SaveSummary(ctx context.Context, userID string, summary domain.QuizSummary) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO quiz_summaries (user_id, topic, score, correct_count, total_questions, xp_gained, played_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, summary.Topic, summary.Score, summary.CorrectCount, summary.TotalQuestions, summary.XPGained, summary.Date)
	if err != nil {
		return fmt.Errorf("archive summary: %w", err)
	}
	return nil
}

// History returns the most recent summaries for a user, newest first.
func (a *SummaryArchive) History(ctx context.Context, userID string, limit int) ([]domain.QuizSummary, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT topic, score, correct_count, total_questions, xp_gained, played_on
		 FROM quiz_summaries WHERE user_id=$1 ORDER BY id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var summaries []domain.QuizSummary
	for rows.Next() {
		var s domain.QuizSummary
		if err := rows.Scan(&s.Topic, &s.Score, &s.CorrectCount, &s.TotalQuestions, &s.XPGained, &s.Date); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
