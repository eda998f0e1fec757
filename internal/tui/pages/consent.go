package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/gateway"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/components"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
)

type consentState int

const (
	consentLoading consentState = iota
	consentReady
	consentApproving
	consentRedirecting
	consentFailed
)

type metadataLoadedMsg struct{ meta *core.AuthorizationMetadata }
type metadataFailedMsg struct{ err error }
type approvedMsg struct{ target string }
type approveFailedMsg struct{ err error }

// ConsentPage shows who is asking for what and lets the user approve. The
// request parsed at entry is the same value submitted on approval;
// the server sees exactly what the client was launched with.
type ConsentPage struct {
	ctx *tui.Context
	req core.AuthorizationRequest

	state consentState
	fatal bool

	meta     *core.AuthorizationMetadata
	errMsg   string
	redirect *components.RedirectView

	width int
}

func NewConsentPage(ctx *tui.Context, req core.AuthorizationRequest) *ConsentPage {
	return &ConsentPage{
		ctx:   ctx,
		req:   req,
		state: consentLoading,
	}
}

func (p *ConsentPage) Init() tea.Cmd {
	return p.loadCmd()
}

func (p *ConsentPage) loadCmd() tea.Cmd {
	return func() tea.Msg {
		meta, err := p.ctx.Gateway.FetchAuthorizationData(context.Background(), p.req)
		if err != nil {
			if errors.Is(err, core.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			return metadataFailedMsg{err: err}
		}
		return metadataLoadedMsg{meta: meta}
	}
}

func (p *ConsentPage) approveCmd() tea.Cmd {
	return func() tea.Msg {
		target, err := p.ctx.Gateway.Authorize(context.Background(), p.req)
		if err != nil {
			if errors.Is(err, core.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			return approveFailedMsg{err: err}
		}
		return approvedMsg{target: target}
	}
}

func (p *ConsentPage) navigateCmd(target string) tea.Cmd {
	return func() tea.Msg {
		return navigatedMsg{err: p.ctx.Navigator.Navigate(target)}
	}
}

func (p *ConsentPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = v.Width
		if p.redirect != nil {
			p.redirect.SetWidth(v.Width - 6)
		}
		return p, nil

	case metadataLoadedMsg:
		p.meta = v.meta
		p.state = consentReady
		return p, nil

	case metadataFailedMsg:
		p.state = consentFailed
		p.fatal = true
		p.errMsg = gateway.DisplayMessage(v.err, gateway.MsgMetadataFailed)
		return p, nil

	case approvedMsg:
		p.state = consentRedirecting
		p.redirect = components.NewRedirectView(v.target)
		if p.width > 0 {
			p.redirect.SetWidth(p.width - 6)
		}
		return p, p.navigateCmd(v.target)

	case approveFailedMsg:
		p.state = consentFailed
		p.fatal = false
		p.errMsg = gateway.DisplayMessage(v.err, gateway.MsgAuthorizeFailed)
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

func (p *ConsentPage) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch p.state {
	case consentReady:
		switch key.String() {
		case "enter", " ", "a":
			p.state = consentApproving
			return p, p.approveCmd()
		}
		return p, nil

	case consentRedirecting:
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

	case consentFailed:
		if !p.fatal {
			p.errMsg = ""
			p.state = consentReady
		}
		return p, nil
	}

	return p, nil
}

func (p *ConsentPage) View() string {
	var b strings.Builder

	b.WriteString(theme.Header.Render("Authorize access"))
	b.WriteString("\n\n")

	switch p.state {
	case consentLoading:
		b.WriteString(theme.Muted.Render("Loading authorization request..."))

	case consentReady, consentApproving:
		b.WriteString(theme.Text.Render(fmt.Sprintf("%s wants to access your account", theme.Accent.Render(p.meta.App.Name))))
		b.WriteString("\n")
		b.WriteString(theme.Muted.Render(fmt.Sprintf("Signed in as %s", p.meta.User.Name)))
		b.WriteString("\n\n")

		b.WriteString(theme.Text.Render("This application will be able to:"))
		b.WriteString("\n")
		for _, scope := range core.SplitScope(p.meta.App.Scope) {
			b.WriteString(theme.ScopeItem.Render("  • " + scope))
			b.WriteString("\n")
		}
		b.WriteString("\n")

		label := "Approve"
		if p.state == consentApproving {
			label = "Approving..."
		}
		b.WriteString(theme.ButtonActive.Render(label))
		b.WriteString("\n\n")
		b.WriteString(theme.Muted.Render("enter approve • ctrl+c cancel"))

	case consentRedirecting:
		b.WriteString(p.redirect.View())

	case consentFailed:
		b.WriteString(theme.Error.Render("✗ " + p.errMsg))
		b.WriteString("\n\n")
		if p.fatal {
			b.WriteString(theme.Muted.Render("Restart the client to try again."))
		} else {
			b.WriteString(theme.Muted.Render("Press any key to try again."))
		}
	}

	if p.errMsg != "" && p.state == consentRedirecting {
		b.WriteString("\n\n")
		b.WriteString(theme.Error.Render(p.errMsg))
	}

	return theme.Border.Render(b.String())
}
