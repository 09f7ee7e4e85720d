// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// Concurrency errors
	ErrConflict       = errors.New("concurrent modification detected")
	ErrLockTimeout    = errors.New("lock acquisition timed out")
	ErrOptimisticLock = errors.New("optimistic lock failure")

	// Storage errors
	ErrPersistence = errors.New("persistence failure")
	ErrTimeout     = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "rating", "achievement", "leaderboard"
	Op      string // Operation that failed, e.g., "ApplyMatchResult"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Rating domain errors
var (
	ErrPlayerNotFound    = NewDomainError("rating", "Load", ErrNotFound, "player stats not found")
	ErrInvalidKFactor    = NewDomainError("rating", "Compute", ErrValueOutOfRange, "k-factor must be positive")
	ErrSamePlayer        = NewDomainError("rating", "ApplyMatchResult", ErrInvalidInput, "winner and loser must differ")
	ErrInvalidReason     = NewDomainError("rating", "Validate", ErrInvalidInput, "unknown rating change reason")
	ErrStatsInconsistent = NewDomainError("rating", "Validate", ErrValueOutOfRange, "matches won exceeds matches played")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrAlreadyUnlocked     = NewDomainError("achievement", "Unlock", ErrAlreadyExists, "achievement already unlocked")
	ErrInvalidPoints       = NewDomainError("achievement", "Validate", ErrValueOutOfRange, "points must be positive")
	ErrInvalidCondition    = NewDomainError("achievement", "Validate", ErrInvalidInput, "invalid achievement condition")
)

// Leaderboard domain errors
var (
	ErrInvalidLimit = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "limit must be positive")
	ErrEmptyBoard   = NewDomainError("leaderboard", "Build", ErrNotFound, "leaderboard is empty")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error indicates a concurrent-write conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrLockTimeout) ||
		errors.Is(err, ErrOptimisticLock)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried. Conflicts are retryable
// because every stat mutation is either transactional or idempotent; validation
// and not-found errors are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrTimeout)
}
