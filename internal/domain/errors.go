package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNoValidQuestions indicates every generated question failed validation.
	ErrNoValidQuestions = errors.New("no valid questions in generated payload")
	// ErrNoSelection is returned when an answer is submitted without picking an option.
	ErrNoSelection = errors.New("no option selected")
	// ErrInvalidOption indicates a selection index outside the four options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrAlreadyRevealed is returned for selections or submissions after the answer was revealed.
	ErrAlreadyRevealed = errors.New("answer already revealed")
	// ErrNotRevealed is returned when advancing before the current answer was revealed.
	ErrNotRevealed = errors.New("answer not yet revealed")
	// ErrSessionCompleted is returned for any action on a finished session.
	ErrSessionCompleted = errors.New("quiz session already completed")
)
