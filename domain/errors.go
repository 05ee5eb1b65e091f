package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind is a stable error category surfaced to callers. The UI branches on
// these tags, never on raw provider HTTP statuses.
type Kind string

const (
	KindInvalidURL            Kind = "invalid_url"
	KindUnsupportedProvider   Kind = "unsupported_provider"
	KindAuthFailed            Kind = "auth_failed"
	KindRepositoryNotFound    Kind = "repository_not_found"
	KindRateLimited           Kind = "rate_limited"
	KindNetworkUnreachable    Kind = "network_unreachable"
	KindEncryptionUnavailable Kind = "encryption_unavailable"
	KindCancelled             Kind = "cancelled"
)

// Error is a categorized connector error. It wraps the underlying cause so
// the kind survives fmt.Errorf("...: %w", err) chains end to end.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // only set for KindRateLimited
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewInvalidURL reports a repository URL that cannot be resolved, with a
// human-readable reason (wrong scheme, unsupported host, malformed path).
func NewInvalidURL(message string) *Error {
	return &Error{Kind: KindInvalidURL, Message: message}
}

// NewUnsupportedProvider reports a provider this build does not know.
func NewUnsupportedProvider(name string) *Error {
	return &Error{
		Kind:    KindUnsupportedProvider,
		Message: fmt.Sprintf("unsupported provider: %q", name),
	}
}

// NewAuthFailed reports a missing or rejected credential. Always actionable:
// the caller can recover by authenticating and retrying the operation.
func NewAuthFailed(message string, err error) *Error {
	return &Error{Kind: KindAuthFailed, Message: message, Err: err}
}

// NewRepositoryNotFound reports a repository, branch, or path the provider
// does not know.
func NewRepositoryNotFound(message string, err error) *Error {
	return &Error{Kind: KindRepositoryNotFound, Message: message, Err: err}
}

// NewRateLimited reports provider throttling. RetryAfter carries the
// provider's hint; zero means the provider supplied none.
func NewRateLimited(retryAfter time.Duration, err error) *Error {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Error{
		Kind:       KindRateLimited,
		Message:    "provider rate limit exceeded",
		RetryAfter: retryAfter,
		Err:        err,
	}
}

// NewNetworkUnreachable reports a transport failure or request timeout.
func NewNetworkUnreachable(message string, err error) *Error {
	return &Error{Kind: KindNetworkUnreachable, Message: message, Err: err}
}

// NewEncryptionUnavailable reports that the OS credential facility cannot
// encrypt at rest. Credentials are never stored in plaintext instead.
func NewEncryptionUnavailable(message string) *Error {
	return &Error{Kind: KindEncryptionUnavailable, Message: message}
}

// NewCancelled reports a caller-initiated cancellation.
func NewCancelled(err error) *Error {
	return &Error{Kind: KindCancelled, Message: "operation cancelled", Err: err}
}

// KindOf walks the error chain and returns the connector kind, or "" when
// the error carries none.
func KindOf(err error) Kind {
	var connErr *Error
	if errors.As(err, &connErr) {
		return connErr.Kind
	}
	return ""
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RetryAfterOf returns the rate-limit hint carried by the error chain,
// or zero when there is none.
func RetryAfterOf(err error) time.Duration {
	var connErr *Error
	if errors.As(err, &connErr) {
		return connErr.RetryAfter
	}
	return 0
}
