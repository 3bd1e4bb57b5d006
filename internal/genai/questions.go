package genai

import (
	"encoding/json"
	"fmt"
	"log"

	"quizion-service/internal/domain"
)

// DecodeQuestions parses the extracted array JSON into validated questions.
// Individual entries that fail shape validation (missing text, not exactly
// four options, index out of range) are skipped with a warning; the decode is
// only fatal when nothing survives.
func DecodeQuestions(arrayJSON string) ([]domain.QuizQuestion, error) {
	var raw []domain.QuizQuestion
	if err := json.Unmarshal([]byte(arrayJSON), &raw); err != nil {
		return nil, fmt.Errorf("decode question array: %w", err)
	}

	questions := make([]domain.QuizQuestion, 0, len(raw))
	for i, q := range raw {
		if !q.Valid() {
			log.Printf("genai: skipping invalid question at index %d (text=%t options=%d index=%d)",
				i, q.Text != "", len(q.Options), q.CorrectIndex)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoValidQuestions
	}
	return questions, nil
}
