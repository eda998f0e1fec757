package core

import "errors"

var (
	// ErrTokenUnavailable means CSRF priming failed. Page-level fatal: the
	// token must be reissued by the server, so there is no in-place retry.
	ErrTokenUnavailable = errors.New("csrf token unavailable")

	// ErrMetadataUnavailable means the server could not even describe the
	// authorization request. Page-level fatal for the visit.
	ErrMetadataUnavailable = errors.New("authorization metadata unavailable")

	// ErrEmptyRedirect means a nominally successful response carried no
	// redirect target. Treated as a failure of the attempt rather than
	// silently navigating nowhere.
	ErrEmptyRedirect = errors.New("server returned no redirect target")

	// ErrSessionExpired is returned for any authentication-required response.
	// It is handled centrally by forced navigation to the login entry and is
	// never surfaced as a FlowError.
	ErrSessionExpired = errors.New("session expired")
)

// FlowError is a recoverable failure surfaced to the user. It is always
// displayable and never crosses the page boundary as a raw transport error.
type FlowError struct {
	Code    string
	Message string
}

func (e *FlowError) Error() string {
	return e.Message
}

// ErrorMessage picks the text shown to the user. The precedence is fixed:
// structured description, then structured code, then the generic fallback.
func ErrorMessage(description, code, fallback string) string {
	if description != "" {
		return description
	}
	if code != "" {
		return code
	}
	return fallback
}
