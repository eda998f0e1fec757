// Package gateway shapes transport calls into domain values and domain
// errors. Pages above it never see a transport-level error shape.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/transport"
)

// Generic fallbacks, used only when the server supplies neither an
// error_description nor an error code.
const (
	MsgLoginFailed     = "login failed"
	MsgMetadataFailed  = "failed to fetch authorization data"
	MsgAuthorizeFailed = "authorization failed"
	MsgTokenFailed     = "failed to fetch CSRF token"
)

type Service struct {
	t *transport.Client
}

func New(t *transport.Client) *Service {
	return &Service{t: t}
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

type redirectResponse struct {
	Success     bool   `json:"success,omitempty"`
	RedirectURL string `json:"redirect_url"`
}

// FetchCSRFToken primes a token for the login page. The query is the login
// page's own query string: a login page may carry a forwarded authorization
// request, and the token is scoped to that context.
func (s *Service) FetchCSRFToken(ctx context.Context, query url.Values) (string, error) {
	var resp csrfResponse
	if err := s.t.GetJSON(ctx, "/login", query, &resp); err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", core.ErrTokenUnavailable, err)
	}
	if resp.CSRFToken == "" {
		return "", core.ErrTokenUnavailable
	}
	return resp.CSRFToken, nil
}

// Login submits the credentials plus the primed token, scoped to the same
// query-string context as the token fetch. Transport failures come back as a
// displayable *core.FlowError, never as a raw transport error.
func (s *Service) Login(ctx context.Context, creds core.Credentials, query url.Values) (core.RedirectOutcome, error) {
	var resp redirectResponse
	if err := s.t.PostJSON(ctx, "/login", query, creds, &resp); err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			return core.RedirectOutcome{}, err
		}
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) {
			return core.RedirectOutcome{}, &core.FlowError{
				Code:    apiErr.Code,
				Message: core.ErrorMessage(apiErr.Description, apiErr.Code, MsgLoginFailed),
			}
		}
		return core.RedirectOutcome{}, &core.FlowError{Message: MsgLoginFailed}
	}
	if resp.RedirectURL == "" {
		return core.RedirectOutcome{}, core.ErrEmptyRedirect
	}
	return core.RedirectOutcome{URL: resp.RedirectURL}, nil
}

// FetchAuthorizationData is a read-only lookup keyed by the full request
// parameter set. Failures propagate wrapped in ErrMetadataUnavailable so the
// caller can tell "could not describe the request" from a failed approval.
func (s *Service) FetchAuthorizationData(ctx context.Context, req core.AuthorizationRequest) (*core.AuthorizationMetadata, error) {
	var meta core.AuthorizationMetadata
	if err := s.t.GetJSON(ctx, "/auth", req.Values(), &meta); err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrMetadataUnavailable, err)
	}
	return &meta, nil
}

// Authorize submits approval for the identical request parameters used for
// the metadata fetch. Transport errors propagate untouched; the caller
// converts them to a displayable message.
func (s *Service) Authorize(ctx context.Context, req core.AuthorizationRequest) (string, error) {
	var resp redirectResponse
	if err := s.t.PostJSON(ctx, "/auth", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.RedirectURL == "" {
		return "", core.ErrEmptyRedirect
	}
	return resp.RedirectURL, nil
}

// Logout is fire-and-forget session termination.
func (s *Service) Logout(ctx context.Context) error {
	return s.t.GetJSON(ctx, "/logout", nil, nil)
}

// DisplayMessage reduces any gateway error to the text shown to the user,
// honoring the fixed precedence: description, then code, then fallback.
func DisplayMessage(err error, fallback string) string {
	var flowErr *core.FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	if errors.Is(err, core.ErrEmptyRedirect) {
		return core.ErrEmptyRedirect.Error()
	}
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		return core.ErrorMessage(apiErr.Description, apiErr.Code, fallback)
	}
	return fallback
}
