// Package errors defines the error vocabulary shared across granola-sync.
// Failures are partitioned into kinds so callers can decide between
// retrying on the next sync pass, aborting the pass, or substituting a
// default value, without matching on error strings.
package errors

import (
	"errors"
	"fmt"
)

// Auth/API errors.
var (
	ErrTokenNotFound = errors.New("access token not found in supabase file")
	ErrAPIRequest    = errors.New("API request failed")
	ErrAPIResponse   = errors.New("unexpected API response")
)

// Local data errors.
var (
	ErrCacheFormat   = errors.New("cache file has unexpected format")
	ErrWebhookConfig = errors.New("invalid webhook configuration")
)

// Kind classifies an error by how the caller should react to it.
type Kind int

const (
	// KindTransient marks failures that are safe to absorb: a single file
	// write or delete, an HTTP call that may succeed on the next scheduled
	// pass. The pass continues.
	KindTransient Kind = iota

	// KindFatal marks structural failures such as an output root that
	// cannot be created. The pass aborts and the error propagates.
	KindFatal

	// KindParse marks malformed input: timestamps, JSON, YAML config.
	// Never fatal on its own; callers substitute a fail-open default.
	KindParse
)

// String returns the kind name for log output.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// kindError attaches a Kind to an underlying error.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// Wrap annotates err with a kind. Returns nil when err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &kindError{kind: kind, err: err}
}

// Wrapf annotates a formatted error with a kind. The %w verb works.
func Wrapf(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind attached to err, searching the unwrap chain.
// Unannotated errors report KindTransient with ok=false: absorbing an
// unknown failure and letting the next pass retry is the safe default.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}

	return KindTransient, false
}

// IsFatal reports whether err carries KindFatal anywhere in its chain.
func IsFatal(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindFatal
}

// IsTransient reports whether err should be absorbed and retried on the
// next pass. Unannotated errors count as transient.
func IsTransient(err error) bool {
	k, _ := KindOf(err)
	return k == KindTransient
}

// IsParse reports whether err carries KindParse anywhere in its chain.
func IsParse(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindParse
}
