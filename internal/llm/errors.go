package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingAPIKey   = errors.New("llm API key is required")
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMalformedReply  = errors.New("llm reply is not a valid grade")
	ErrEmptyReply      = errors.New("llm reply is empty")
)

// ProviderError wraps a failed call to a hosted model.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimited reports whether the provider rejected the call with 429.
func (e *ProviderError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// ReplyError carries the raw reply that could not be turned into a grade.
type ReplyError struct {
	Raw string
	Err error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedReply, e.Err)
}

func (e *ReplyError) Is(target error) bool { return target == ErrMalformedReply }

func (e *ReplyError) Unwrap() error { return e.Err }
