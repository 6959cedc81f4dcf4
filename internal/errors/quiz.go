package errors

import (
	"errors"
	"fmt"
)

// ErrInvalidQuiz is matched by every quiz content failure.
var ErrInvalidQuiz = errors.New("invalid quiz")

// InvalidQuizError carries the field errors that made a quiz invalid.
type InvalidQuizError struct {
	Errors ValidationErrors
}

func NewInvalidQuizError(errs ValidationErrors) *InvalidQuizError {
	return &InvalidQuizError{Errors: errs}
}

func (e *InvalidQuizError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidQuiz, e.Errors.Error())
}

// Is lets errors.Is(err, ErrInvalidQuiz) match.
func (e *InvalidQuizError) Is(target error) bool {
	return target == ErrInvalidQuiz
}

// Unwrap exposes the field errors to errors.As.
func (e *InvalidQuizError) Unwrap() error {
	return e.Errors
}
