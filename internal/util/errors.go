package util

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")

	ErrAuthenticationRequired    = errors.New("authentication required")
	ErrGenerationUnavailable     = errors.New("generation unavailable")
	ErrMalformedGenerationOutput = errors.New("malformed generation output")
	ErrLessonNotFound            = errors.New("lesson not found")
	ErrCourseNotFound            = errors.New("course not found")
	ErrRateLimited               = errors.New("rate limited")
	ErrStoreWriteFailed          = errors.New("store write failed")
)

// RateLimitedError matches ErrRateLimited via errors.Is and carries the wait until the window resets.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %ds", e.RetryAfterSeconds())
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds up and never returns less than 1.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
