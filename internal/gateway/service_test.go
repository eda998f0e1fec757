package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/gateway"
	"github.com/UniPro-tech/UniQUE-Auth/internal/stubserver"
	"github.com/UniPro-tech/UniQUE-Auth/internal/transport"
)

type fixture struct {
	service *gateway.Service
	faults  *stubserver.FaultFlags
	expired int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := stubserver.NewStore()
	require.NoError(t, store.AddUser("alice", "Alice Example", "password123"))
	store.AddClient(stubserver.Client{
		ID:           "app-1",
		Name:         "Test App",
		RedirectURIs: []string{"https://x/cb"},
		Scope:        "read write",
	})

	faults := stubserver.NewFaultFlags()
	codes, err := stubserver.NewCodeSigner("http://stub")
	require.NoError(t, err)

	srv := httptest.NewServer(stubserver.NewRouter(stubserver.RouterConfig{
		Store:  store,
		Faults: faults,
		Codes:  codes,
		Hub:    core.NewEventHub(32),
		Logger: zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)

	f := &fixture{faults: faults}
	client, err := transport.New(transport.Options{
		BaseURL:        srv.URL,
		Hub:            core.NewEventHub(32),
		Logger:         zerolog.Nop(),
		OnUnauthorized: func() { f.expired++ },
	})
	require.NoError(t, err)
	f.service = gateway.New(client)
	return f
}

// login primes a token and authenticates, leaving a session in the jar.
func (f *fixture) login(t *testing.T) {
	t.Helper()
	token, err := f.service.FetchCSRFToken(context.Background(), nil)
	require.NoError(t, err)
	_, err = f.service.Login(context.Background(), core.Credentials{
		CustomID:  "alice",
		Password:  "password123",
		CSRFToken: token,
	}, nil)
	require.NoError(t, err)
}

func testRequest() core.AuthorizationRequest {
	return core.AuthorizationRequest{
		ClientID:     "app-1",
		RedirectURI:  "https://x/cb",
		Scope:        "read write",
		ResponseType: "code",
	}
}

func TestFetchCSRFToken(t *testing.T) {
	f := newFixture(t)
	token, err := f.service.FetchCSRFToken(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestFetchCSRFTokenMissingFieldIsTokenUnavailable(t *testing.T) {
	f := newFixture(t)
	f.faults.SetDropCSRFToken(true)

	_, err := f.service.FetchCSRFToken(context.Background(), nil)
	require.ErrorIs(t, err, core.ErrTokenUnavailable)
}

func TestLoginSuccessForwardsQueryContext(t *testing.T) {
	f := newFixture(t)
	token, err := f.service.FetchCSRFToken(context.Background(), nil)
	require.NoError(t, err)

	query := url.Values{"client_id": {"app-1"}, "scope": {"read"}}
	outcome, err := f.service.Login(context.Background(), core.Credentials{
		CustomID:  "alice",
		Password:  "password123",
		CSRFToken: token,
	}, query)
	require.NoError(t, err)
	require.Contains(t, outcome.URL, "/auth?")
	require.Contains(t, outcome.URL, "client_id=app-1")
}

func TestLoginFailureIsFlowErrorWithDescription(t *testing.T) {
	f := newFixture(t)
	token, err := f.service.FetchCSRFToken(context.Background(), nil)
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), core.Credentials{
		CustomID:  "alice",
		Password:  "wrong",
		CSRFToken: token,
	}, nil)

	var flowErr *core.FlowError
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, "invalid_grant", flowErr.Code)
	require.Equal(t, "incorrect custom_id or password", flowErr.Message)
}

func TestFetchAuthorizationData(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	meta, err := f.service.FetchAuthorizationData(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, "Test App", meta.App.Name)
	require.Equal(t, "app-1", meta.App.ClientID)
	require.Equal(t, "read write", meta.App.Scope)
	require.Equal(t, "alice", meta.User.ID)
	require.Equal(t, "Alice Example", meta.User.Name)
}

func TestFetchAuthorizationDataUnknownClient(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	req := testRequest()
	req.ClientID = "nobody"
	_, err := f.service.FetchAuthorizationData(context.Background(), req)
	require.ErrorIs(t, err, core.ErrMetadataUnavailable)
	require.Equal(t, "unknown client", gateway.DisplayMessage(err, gateway.MsgMetadataFailed))
}

func TestAuthorizeReturnsRedirect(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	redirect, err := f.service.Authorize(context.Background(), testRequest())
	require.NoError(t, err)
	require.Contains(t, redirect, "https://x/cb?")
	require.Contains(t, redirect, "code=")
}

func TestUnauthorizedTriggersPolicyEverywhere(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.faults.SetExpireSessions(true)

	_, err := f.service.FetchAuthorizationData(context.Background(), testRequest())
	require.ErrorIs(t, err, core.ErrSessionExpired)
	require.Equal(t, 1, f.expired)

	// It must not look like a displayable flow failure.
	var flowErr *core.FlowError
	require.NotErrorIs(t, err, core.ErrMetadataUnavailable)
	require.False(t, errors.As(err, &flowErr))
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.NoError(t, f.service.Logout(context.Background()))

	_, err := f.service.FetchAuthorizationData(context.Background(), testRequest())
	require.ErrorIs(t, err, core.ErrSessionExpired)
}

// The approval must submit byte-identical parameters to the metadata fetch.
func TestAuthorizeSubmitsIdenticalParameters(t *testing.T) {
	var fetched url.Values
	var approved core.AuthorizationRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fetched = r.URL.Query()
			_ = json.NewEncoder(w).Encode(core.AuthorizationMetadata{})
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&approved)
			_ = json.NewEncoder(w).Encode(map[string]string{"redirect_url": "https://x/cb?code=ok"})
		}
	}))
	defer srv.Close()

	client, err := transport.New(transport.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	service := gateway.New(client)

	req := core.AuthorizationRequest{
		ClientID:     "abc",
		RedirectURI:  "https://x/cb",
		Scope:        "read write",
		ResponseType: "code",
	}
	_, err = service.FetchAuthorizationData(context.Background(), req)
	require.NoError(t, err)
	_, err = service.Authorize(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, req.Values(), fetched)
	require.Equal(t, req, approved)
}

func TestLoginEmptyRedirectIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	client, err := transport.New(transport.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	service := gateway.New(client)

	_, err = service.Login(context.Background(), core.Credentials{CustomID: "a", Password: "b", CSRFToken: "c"}, nil)
	require.ErrorIs(t, err, core.ErrEmptyRedirect)
}

func TestLoginErrorCodeOnlyFallsBackToCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer srv.Close()

	client, err := transport.New(transport.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	service := gateway.New(client)

	_, err = service.Login(context.Background(), core.Credentials{CustomID: "a", Password: "b", CSRFToken: "c"}, nil)
	var flowErr *core.FlowError
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, "invalid_grant", flowErr.Message)
}

func TestLoginErrorWithoutBodyUsesGenericFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := transport.New(transport.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	service := gateway.New(client)

	// No error/error_description in the body: the displayed message must be
	// the generic fallback, never the HTTP status text.
	_, err = service.Login(context.Background(), core.Credentials{CustomID: "a", Password: "b", CSRFToken: "c"}, nil)
	var flowErr *core.FlowError
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, gateway.MsgLoginFailed, flowErr.Message)
}
