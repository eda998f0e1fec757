package pages

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/gateway"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/components"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
)

// SessionExpiredMsg is emitted by any page command whose gateway call came
// back with an expired session. The app model swaps the active page for a
// fresh login page when it sees one.
type SessionExpiredMsg struct{}

type loginState int

const (
	loginPriming loginState = iota
	loginReady
	loginSubmitting
	loginRedirecting
	loginFailed
)

type csrfPrimedMsg struct{ token string }
type csrfFailedMsg struct{ err error }
type loginFinishedMsg struct{ outcome core.RedirectOutcome }
type loginFailedMsg struct{ err error }
type navigatedMsg struct{ err error }

// LoginPage drives the credential flow: prime a CSRF token, collect the
// custom ID and password, submit, then hand the redirect target to the
// navigator. The original query string rides along untouched so the server
// can resume an interrupted authorization.
type LoginPage struct {
	ctx   *tui.Context
	query url.Values

	state loginState
	fatal bool

	csrfToken string
	errMsg    string
	redirect  *components.RedirectView

	customID *components.Field
	password *components.Field

	focusIndex int
	width      int
}

func NewLoginPage(ctx *tui.Context, query url.Values) *LoginPage {
	customID := components.NewField("Custom ID:", "your-id", false)
	customID.SetFocused(true)
	password := components.NewField("Password:", "", true)

	return &LoginPage{
		ctx:      ctx,
		query:    query,
		state:    loginPriming,
		customID: customID,
		password: password,
	}
}

func (p *LoginPage) Init() tea.Cmd {
	return p.primeCmd()
}

func (p *LoginPage) primeCmd() tea.Cmd {
	return func() tea.Msg {
		token, err := p.ctx.Gateway.FetchCSRFToken(context.Background(), p.query)
		if err != nil {
			if errors.Is(err, core.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			return csrfFailedMsg{err: err}
		}
		return csrfPrimedMsg{token: token}
	}
}

func (p *LoginPage) submitCmd(creds core.Credentials) tea.Cmd {
	return func() tea.Msg {
		outcome, err := p.ctx.Gateway.Login(context.Background(), creds, p.query)
		if err != nil {
			if errors.Is(err, core.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			return loginFailedMsg{err: err}
		}
		return loginFinishedMsg{outcome: outcome}
	}
}

func (p *LoginPage) navigateCmd(target string) tea.Cmd {
	return func() tea.Msg {
		return navigatedMsg{err: p.ctx.Navigator.Navigate(target)}
	}
}

func (p *LoginPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = v.Width
		if p.redirect != nil {
			p.redirect.SetWidth(v.Width - 6)
		}
		return p, nil

	case csrfPrimedMsg:
		p.csrfToken = v.token
		p.state = loginReady
		return p, nil

	case csrfFailedMsg:
		p.state = loginFailed
		p.fatal = true
		p.errMsg = gateway.DisplayMessage(v.err, gateway.MsgTokenFailed)
		return p, nil

	case loginFinishedMsg:
		p.state = loginRedirecting
		p.redirect = components.NewRedirectView(v.outcome.URL)
		if p.width > 0 {
			p.redirect.SetWidth(p.width - 6)
		}
		return p, p.navigateCmd(v.outcome.URL)

	case loginFailedMsg:
		p.state = loginFailed
		p.fatal = false
		p.errMsg = gateway.DisplayMessage(v.err, gateway.MsgLoginFailed)
		return p, nil

	case navigatedMsg:
		if v.err != nil {
			p.errMsg = v.err.Error()
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(v)
	}

	return p, nil
}

func (p *LoginPage) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch p.state {
	case loginReady:
		switch key.String() {
		case "tab", "down":
			p.setFocus(p.focusIndex + 1)
			return p, nil
		case "shift+tab", "up":
			p.setFocus(p.focusIndex - 1)
			return p, nil
		case "enter":
			if p.focusIndex >= 1 {
				return p, p.submit()
			}
			p.setFocus(p.focusIndex + 1)
			return p, nil
		}

		var cmd tea.Cmd
		switch p.focusIndex {
		case 0:
			p.customID, cmd = p.customID.Update(key)
		case 1:
			p.password, cmd = p.password.Update(key)
		}
		return p, cmd

	case loginRedirecting:
		switch key.String() {
		case "c":
			if p.ctx.Copy != nil && p.redirect != nil {
				if err := p.ctx.Copy(p.redirect.URL); err == nil {
					p.redirect.Copied = true
				}
			}
		case "d":
			if p.redirect != nil {
				p.redirect.ToggleDecoded()
			}
		}
		return p, nil

	case loginFailed:
		if !p.fatal {
			p.errMsg = ""
			p.state = loginReady
		}
		return p, nil
	}

	return p, nil
}

// submit validates the form locally. Nothing leaves the page until both
// fields carry a value.
func (p *LoginPage) submit() tea.Cmd {
	creds := core.Credentials{
		CustomID:  strings.TrimSpace(p.customID.Value()),
		Password:  p.password.Value(),
		CSRFToken: p.csrfToken,
	}

	fieldErrs := creds.Validate()
	p.customID.Err = fieldErrs.CustomID
	p.password.Err = fieldErrs.Password
	if !fieldErrs.OK() {
		return nil
	}

	p.state = loginSubmitting
	return p.submitCmd(creds)
}

func (p *LoginPage) setFocus(idx int) {
	if idx < 0 {
		idx = 2
	}
	p.focusIndex = idx % 3
	p.customID.SetFocused(p.focusIndex == 0)
	p.password.SetFocused(p.focusIndex == 1)
}

func (p *LoginPage) View() string {
	var b strings.Builder

	b.WriteString(theme.Header.Render("Sign in"))
	b.WriteString("\n\n")

	switch p.state {
	case loginPriming:
		b.WriteString(theme.Muted.Render("Preparing login form..."))

	case loginReady, loginSubmitting:
		b.WriteString(p.customID.View())
		b.WriteString("\n\n")
		b.WriteString(p.password.View())
		b.WriteString("\n\n")

		buttonStyle := theme.Button
		if p.focusIndex == 2 {
			buttonStyle = theme.ButtonActive
		}
		label := "Sign in"
		if p.state == loginSubmitting {
			label = "Signing in..."
		}
		b.WriteString(buttonStyle.Render(label))
		b.WriteString("\n\n")
		b.WriteString(theme.Muted.Render("tab next field • enter submit"))

	case loginRedirecting:
		b.WriteString(p.redirect.View())

	case loginFailed:
		b.WriteString(theme.Error.Render("✗ " + p.errMsg))
		b.WriteString("\n\n")
		if p.fatal {
			b.WriteString(theme.Muted.Render("Restart the client to try again."))
		} else {
			b.WriteString(theme.Muted.Render("Press any key to try again."))
		}
	}

	if p.errMsg != "" && p.state == loginRedirecting {
		b.WriteString("\n\n")
		b.WriteString(theme.Error.Render(p.errMsg))
	}

	return theme.Border.Render(b.String())
}
