package court

import (
	"errors"
	"fmt"
)

// Kind classifies a lookup failure. Every kind except the caller's own input
// errors is considered transient: the orchestrator responds to any of them by
// discarding the attempt's token and captcha session and starting a fresh
// cycle.
type Kind string

const (
	// KindNetwork covers DNS, connect and transport-level failures.
	KindNetwork Kind = "network_error"

	// KindTimeout is a fetch that exceeded its deadline.
	KindTimeout Kind = "timeout"

	// KindHTTPStatus is a non-2xx response from the target site.
	KindHTTPStatus Kind = "http_status"

	// KindTokenNotFound means no usable tok_-prefixed hidden input was found.
	KindTokenNotFound Kind = "token_not_found"

	// KindSessionNotFound means the captcha session id could not be located
	// by either extraction strategy.
	KindSessionNotFound Kind = "session_not_found"

	// KindSolverFailure is an error from the vision model call itself
	// (transport error, safety block, empty response).
	KindSolverFailure Kind = "solver_failure"

	// KindAmbiguousAnswer means the model replied but the reply contained no
	// signed integer. The image is single-use, so this fails the attempt
	// rather than re-asking.
	KindAmbiguousAnswer Kind = "ambiguous_answer"

	// KindUpstreamRejected is the site's own success=false envelope, e.g. a
	// captcha the site judged wrong or a search it refused.
	KindUpstreamRejected Kind = "upstream_rejected"

	// KindMalformedPayload is a response body that does not match the
	// expected JSON envelope or HTML shape.
	KindMalformedPayload Kind = "malformed_payload"
)

// Error is a classified lookup failure. The kind survives wrapping so the
// HTTP layer can map exhausted retries onto distinct status codes.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match on kind, so sentinel-style comparisons like
// errors.Is(err, &Error{Kind: KindTimeout}) work through wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Errf builds a classified error with a formatted message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error without losing it.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors report
// an empty kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
