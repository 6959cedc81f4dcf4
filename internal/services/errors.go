package services

import (
	"errors"
	"fmt"

	apperrors "github.com/studypilot/assessment-service/internal/errors"
	"github.com/studypilot/assessment-service/internal/repositories"
	"github.com/studypilot/assessment-service/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Quiz specific errors
	ErrQuizNotFound    = repositories.ErrQuizNotFound
	ErrQuizUnreadable  = errors.New("stored quiz could not be decoded")
	ErrQuizSourceEmpty = errors.New("either quiz_id or quiz must be provided")

	// Session specific errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotGraded = errors.New("session has not been graded yet")
	ErrGradingPending   = errors.New("grading is still in progress")

	// Grading specific errors
	ErrGraderUnavailable = errors.New("short answer grader failed")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value any) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]any) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, apperrors.ErrInvalidQuiz) ||
		errors.Is(err, ErrQuizSourceEmpty) ||
		errors.Is(err, session.ErrIndexOutOfRange) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a state conflict on a session
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, session.ErrStaleSubmission) ||
		errors.Is(err, session.ErrAlreadyConfigured) ||
		errors.Is(err, session.ErrNoQuiz) ||
		errors.Is(err, session.ErrReset) ||
		errors.Is(err, ErrSessionNotGraded) ||
		errors.Is(err, ErrGradingPending)
}
