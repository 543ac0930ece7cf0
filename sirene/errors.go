package sirene

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoCurrentPeriod is returned when a legal unit has no period matching
// the requested date.
var ErrNoCurrentPeriod = errors.New("unité légale sans période courante")

// MalformedCriteriaError reports invalid search criteria. It is always
// returned before any upstream call is made.
type MalformedCriteriaError struct {
	Field  string
	Reason string
}

func (e *MalformedCriteriaError) Error() string {
	return fmt.Sprintf("critère invalide %s: %s", e.Field, e.Reason)
}

// AuthError reports an upstream rejection of the API key.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("clé API INSEE refusée: status %d", e.Status)
}

// RateLimitError reports an upstream 429. RetryAfter is zero when the
// upstream gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("quota API INSEE dépassé, retry after %s", e.RetryAfter)
	}
	return "quota API INSEE dépassé"
}

// NotFoundError reports a point lookup with zero results. This is a normal
// outcome, not a fault.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("aucun résultat pour %s", e.What)
}

// TimeoutError reports an upstream call that exceeded its deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout INSEE (%s): %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UpstreamError reports any other non-2xx upstream response.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("erreur INSEE: status %d: %s", e.Status, e.Body)
}

// IsRetryable reports whether the facade may retry the call once. 429,
// timeouts and 5xx qualify; other 4xx never do.
func IsRetryable(err error) bool {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}

	var to *TimeoutError
	if errors.As(err, &to) {
		return true
	}

	var up *UpstreamError
	if errors.As(err, &up) {
		// Status 0 marks a network-level fault, also transient.
		return up.Status >= 500 || up.Status == 0
	}

	return false
}
