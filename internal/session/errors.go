package session

import "errors"

var (
	ErrStaleSubmission   = errors.New("answers are frozen once the quiz has been submitted")
	ErrNoQuiz            = errors.New("no quiz configured for this session")
	ErrAlreadyConfigured = errors.New("session already has a quiz, reset it first")
	ErrIndexOutOfRange   = errors.New("question index out of range")
	ErrReset             = errors.New("session was reset before grading finished")
)
