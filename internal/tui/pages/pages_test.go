package pages

import (
	"context"
	"net/url"
	"testing"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	csrfToken string
	csrfErr   error

	loginOutcome core.RedirectOutcome
	loginErr     error

	meta    *core.AuthorizationMetadata
	metaErr error

	authorizeTarget string
	authorizeErr    error

	csrfCalls      int
	loginCalls     int
	metaCalls      int
	authorizeCalls int
	logoutCalls    int

	lastCreds core.Credentials
	lastQuery url.Values
	lastReq   core.AuthorizationRequest
}

func (g *fakeGateway) FetchCSRFToken(_ context.Context, query url.Values) (string, error) {
	g.csrfCalls++
	g.lastQuery = query
	return g.csrfToken, g.csrfErr
}

func (g *fakeGateway) Login(_ context.Context, creds core.Credentials, query url.Values) (core.RedirectOutcome, error) {
	g.loginCalls++
	g.lastCreds = creds
	g.lastQuery = query
	return g.loginOutcome, g.loginErr
}

func (g *fakeGateway) FetchAuthorizationData(_ context.Context, req core.AuthorizationRequest) (*core.AuthorizationMetadata, error) {
	g.metaCalls++
	g.lastReq = req
	return g.meta, g.metaErr
}

func (g *fakeGateway) Authorize(_ context.Context, req core.AuthorizationRequest) (string, error) {
	g.authorizeCalls++
	g.lastReq = req
	return g.authorizeTarget, g.authorizeErr
}

func (g *fakeGateway) Logout(context.Context) error {
	g.logoutCalls++
	return nil
}

type recordingNavigator struct {
	targets []string
}

func (n *recordingNavigator) Navigate(target string) error {
	n.targets = append(n.targets, target)
	return nil
}

func newTestContext(g *fakeGateway, nav *recordingNavigator) *tui.Context {
	return tui.NewContext(tui.ContextConfig{
		Gateway:   g,
		Navigator: nav,
		Hub:       core.NewEventHub(16),
	})
}

// step runs a command synchronously and feeds its message back through the
// model, returning the follow-up command.
func step(t *testing.T, m tea.Model, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m, next := m.Update(cmd())
	return m, next
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestLoginPrimesTokenBeforeReady(t *testing.T) {
	gw := &fakeGateway{csrfToken: "tok-1"}
	page := NewLoginPage(newTestContext(gw, &recordingNavigator{}), url.Values{"client_id": {"app-1"}})

	require.Equal(t, loginPriming, page.state)

	m, _ := step(t, page, page.Init())
	page = m.(*LoginPage)

	require.Equal(t, loginReady, page.state)
	require.Equal(t, "tok-1", page.csrfToken)
	require.Equal(t, "app-1", gw.lastQuery.Get("client_id"))
}

func TestLoginPrimingFailureIsFatal(t *testing.T) {
	gw := &fakeGateway{csrfErr: core.ErrTokenUnavailable}
	page := NewLoginPage(newTestContext(gw, &recordingNavigator{}), nil)

	m, _ := step(t, page, page.Init())
	page = m.(*LoginPage)

	require.Equal(t, loginFailed, page.state)
	require.True(t, page.fatal)
	require.NotEmpty(t, page.errMsg)

	// Fatal failures do not recover on keypress.
	m, _ = page.Update(keyMsg("x"))
	page = m.(*LoginPage)
	require.Equal(t, loginFailed, page.state)
}

func TestLoginBlocksSubmitOnEmptyFields(t *testing.T) {
	gw := &fakeGateway{csrfToken: "tok-1"}
	page := NewLoginPage(newTestContext(gw, &recordingNavigator{}), nil)

	m, _ := step(t, page, page.Init())
	page = m.(*LoginPage)

	// Move focus to the submit button and press enter with both fields empty.
	m, _ = page.Update(keyMsg("tab"))
	page = m.(*LoginPage)
	m, cmd := page.Update(keyMsg("enter"))
	page = m.(*LoginPage)

	require.Nil(t, cmd)
	require.Equal(t, loginReady, page.state)
	require.Zero(t, gw.loginCalls)
	require.NotEmpty(t, page.customID.Err)
	require.NotEmpty(t, page.password.Err)
}

func TestLoginSubmitCarriesTokenAndQuery(t *testing.T) {
	gw := &fakeGateway{
		csrfToken:    "tok-1",
		loginOutcome: core.RedirectOutcome{URL: "https://app.example/cb?code=abc"},
	}
	nav := &recordingNavigator{}
	query := url.Values{"client_id": {"app-1"}, "state": {"xyzzy"}}
	page := NewLoginPage(newTestContext(gw, nav), query)

	m, _ := step(t, page, page.Init())
	page = m.(*LoginPage)

	page.customID.SetValue("alice")
	page.password.SetValue("s3cret")

	m, cmd := page.Update(keyMsg("tab"))
	page = m.(*LoginPage)
	m, cmd = page.Update(keyMsg("enter"))
	page = m.(*LoginPage)
	require.Equal(t, loginSubmitting, page.state)

	m, cmd = step(t, page, cmd)
	page = m.(*LoginPage)

	require.Equal(t, loginRedirecting, page.state)
	require.Equal(t, 1, gw.loginCalls)
	require.Equal(t, core.Credentials{CustomID: "alice", Password: "s3cret", CSRFToken: "tok-1"}, gw.lastCreds)
	require.Equal(t, query, gw.lastQuery)

	// The navigate command hands the redirect target over.
	m, _ = step(t, page, cmd)
	require.Equal(t, []string{"https://app.example/cb?code=abc"}, nav.targets)
}

func TestLoginFailureIsRetryable(t *testing.T) {
	gw := &fakeGateway{
		csrfToken: "tok-1",
		loginErr:  &core.FlowError{Code: "invalid_grant", Message: "incorrect custom_id or password"},
	}
	page := NewLoginPage(newTestContext(gw, &recordingNavigator{}), nil)

	m, _ := step(t, page, page.Init())
	page = m.(*LoginPage)
	page.customID.SetValue("alice")
	page.password.SetValue("wrong")

	m, _ = page.Update(keyMsg("tab"))
	page = m.(*LoginPage)
	m, cmd := page.Update(keyMsg("enter"))
	page = m.(*LoginPage)
	m, _ = step(t, page, cmd)
	page = m.(*LoginPage)

	require.Equal(t, loginFailed, page.state)
	require.False(t, page.fatal)
	require.Equal(t, "incorrect custom_id or password", page.errMsg)

	m, _ = page.Update(keyMsg("x"))
	page = m.(*LoginPage)
	require.Equal(t, loginReady, page.state)
	require.Empty(t, page.errMsg)
	require.Equal(t, "alice", page.customID.Value())
}

func TestConsentLoadsMetadataForParsedRequest(t *testing.T) {
	gw := &fakeGateway{
		meta: &core.AuthorizationMetadata{
			App:  core.AppInfo{Name: "Demo App", ClientID: "app-1", Scope: "read write profile"},
			User: core.UserInfo{ID: "u1", Name: "Alice"},
		},
	}
	query := url.Values{
		"client_id":     {"app-1"},
		"redirect_uri":  {"https://app.example/cb"},
		"scope":         {"read write profile"},
		"response_type": {"code"},
		"state":         {"xyzzy"},
	}
	req := core.ParseAuthorizationRequest(query)
	page := NewConsentPage(newTestContext(gw, &recordingNavigator{}), req)

	m, _ := step(t, page, page.Init())
	page = m.(*ConsentPage)

	require.Equal(t, consentReady, page.state)
	require.Equal(t, req, gw.lastReq)

	view := page.View()
	require.Contains(t, view, "Demo App")
	require.Contains(t, view, "Alice")
	require.Contains(t, view, "read")
	require.Contains(t, view, "profile")
}

func TestConsentMetadataFailureIsFatal(t *testing.T) {
	gw := &fakeGateway{metaErr: core.ErrMetadataUnavailable}
	page := NewConsentPage(newTestContext(gw, &recordingNavigator{}), core.AuthorizationRequest{})

	m, _ := step(t, page, page.Init())
	page = m.(*ConsentPage)

	require.Equal(t, consentFailed, page.state)
	require.True(t, page.fatal)

	m, _ = page.Update(keyMsg("x"))
	page = m.(*ConsentPage)
	require.Equal(t, consentFailed, page.state)
}

func TestConsentApprovalReusesStoredRequest(t *testing.T) {
	gw := &fakeGateway{
		meta:            &core.AuthorizationMetadata{App: core.AppInfo{Name: "Demo App", Scope: "read"}},
		authorizeTarget: "https://app.example/cb?code=abc&state=xyzzy",
	}
	nav := &recordingNavigator{}
	req := core.ParseAuthorizationRequest(url.Values{
		"client_id":     {"app-1"},
		"redirect_uri":  {"https://app.example/cb"},
		"scope":         {"read"},
		"response_type": {"code"},
		"nonce":         {"n-1"},
	})
	page := NewConsentPage(newTestContext(gw, nav), req)

	m, _ := step(t, page, page.Init())
	page = m.(*ConsentPage)
	fetched := gw.lastReq

	m, cmd := page.Update(keyMsg("enter"))
	page = m.(*ConsentPage)
	require.Equal(t, consentApproving, page.state)

	m, cmd = step(t, page, cmd)
	page = m.(*ConsentPage)

	require.Equal(t, consentRedirecting, page.state)
	require.Equal(t, fetched, gw.lastReq)
	require.Equal(t, req, gw.lastReq)

	m, _ = step(t, page, cmd)
	require.Equal(t, []string{"https://app.example/cb?code=abc&state=xyzzy"}, nav.targets)
}

func TestConsentApprovalFailureIsRetryable(t *testing.T) {
	gw := &fakeGateway{
		meta:         &core.AuthorizationMetadata{App: core.AppInfo{Name: "Demo App", Scope: "read"}},
		authorizeErr: &core.FlowError{Code: "server_error", Message: "something broke"},
	}
	page := NewConsentPage(newTestContext(gw, &recordingNavigator{}), core.AuthorizationRequest{})

	m, _ := step(t, page, page.Init())
	page = m.(*ConsentPage)

	m, cmd := page.Update(keyMsg("enter"))
	page = m.(*ConsentPage)
	m, _ = step(t, page, cmd)
	page = m.(*ConsentPage)

	require.Equal(t, consentFailed, page.state)
	require.False(t, page.fatal)
	require.Equal(t, "something broke", page.errMsg)

	m, _ = page.Update(keyMsg("x"))
	page = m.(*ConsentPage)
	require.Equal(t, consentReady, page.state)
}

func TestRouteSelectsPageByPath(t *testing.T) {
	ctx := newTestContext(&fakeGateway{}, &recordingNavigator{})

	consent, err := url.Parse("http://localhost:8000/auth?client_id=app-1&redirect_uri=https%3A%2F%2Fapp.example%2Fcb&scope=read&response_type=code")
	require.NoError(t, err)
	page := Route(ctx, consent)
	cp, ok := page.(*ConsentPage)
	require.True(t, ok)
	require.Equal(t, "app-1", cp.req.ClientID)

	login, err := url.Parse("http://localhost:8000/login?client_id=app-1")
	require.NoError(t, err)
	_, ok = Route(ctx, login).(*LoginPage)
	require.True(t, ok)

	_, ok = Route(ctx, nil).(*LoginPage)
	require.True(t, ok)
}

func TestSessionExpirySwapsToLogin(t *testing.T) {
	gw := &fakeGateway{
		meta: &core.AuthorizationMetadata{App: core.AppInfo{Name: "Demo App", Scope: "read"}},
	}
	ctx := newTestContext(gw, &recordingNavigator{})

	entry, err := url.Parse("http://localhost:8000/auth?client_id=app-1")
	require.NoError(t, err)
	app := NewApp(ctx, entry, nil)
	require.IsType(t, &ConsentPage{}, app.page)

	m, _ := app.Update(SessionExpiredMsg{})
	app = m.(*App)
	require.IsType(t, &LoginPage{}, app.page)
}

func TestGatewayCommandsTranslateExpiredSessions(t *testing.T) {
	gw := &fakeGateway{csrfErr: core.ErrSessionExpired}
	page := NewLoginPage(newTestContext(gw, &recordingNavigator{}), nil)

	msg := page.Init()()
	require.IsType(t, SessionExpiredMsg{}, msg)

	gw = &fakeGateway{authorizeErr: core.ErrSessionExpired}
	consent := NewConsentPage(newTestContext(gw, &recordingNavigator{}), core.AuthorizationRequest{})
	msg = consent.approveCmd()()
	require.IsType(t, SessionExpiredMsg{}, msg)
}
