package pages

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Route maps an entry URL onto the page that handles it. The /auth path
// opens the consent page with the request parsed from the query; every
// other path opens the login page with the query passed through.
func Route(ctx *tui.Context, entry *url.URL) tea.Model {
	if entry != nil && entry.Path == "/auth" {
		return NewConsentPage(ctx, core.ParseAuthorizationRequest(entry.Query()))
	}
	var query url.Values
	if entry != nil {
		query = entry.Query()
	}
	return NewLoginPage(ctx, query)
}

type tickMsg time.Time

// NavigateMsg re-enters the router with a new location, the way a
// same-origin redirect reloads a browser page.
type NavigateMsg struct{ URL *url.URL }

// App hosts the active page, paints the shared event footer, and swaps in a
// fresh login page whenever a session expires.
type App struct {
	ctx  *tui.Context
	page tea.Model

	expired <-chan struct{}

	width  int
	height int
}

func NewApp(ctx *tui.Context, entry *url.URL, expired <-chan struct{}) *App {
	return &App{
		ctx:     ctx,
		page:    Route(ctx, entry),
		expired: expired,
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.page.Init(), a.tickCmd()}
	if a.expired != nil {
		cmds = append(cmds, a.waitExpiredCmd())
	}
	return tea.Batch(cmds...)
}

func (a *App) tickCmd() tea.Cmd {
	interval := 500 * time.Millisecond
	if a.ctx.Config != nil && a.ctx.Config.Display.TickInterval.Duration > 0 {
		interval = a.ctx.Config.Display.TickInterval.Duration
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type expirySignalMsg struct{}

// waitExpiredCmd blocks on the transport's unauthorized signal. Re-armed
// after every delivery so repeated expiries keep working.
func (a *App) waitExpiredCmd() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-a.expired; !ok {
			return nil
		}
		return expirySignalMsg{}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		if v.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = v.Width
		a.height = v.Height

	case tickMsg:
		return a, a.tickCmd()

	case NavigateMsg:
		a.page = Route(a.ctx, v.URL)
		return a, a.page.Init()

	case expirySignalMsg:
		a.page = NewLoginPage(a.ctx, nil)
		return a, tea.Batch(a.page.Init(), a.waitExpiredCmd())

	case SessionExpiredMsg:
		// The transport already pulsed its signal for this 401; drop the
		// queued duplicate so the swap happens once.
		if a.expired != nil {
			select {
			case <-a.expired:
			default:
			}
		}
		a.page = NewLoginPage(a.ctx, nil)
		return a, a.page.Init()
	}

	var cmd tea.Cmd
	a.page, cmd = a.page.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	view := a.page.View()

	if a.ctx.Config != nil && a.ctx.Config.Display.ShowEvents {
		view += "\n" + a.eventFooter()
	}

	return view
}

// eventFooter shows the most recent requests, newest last.
func (a *App) eventFooter() string {
	if a.ctx.Hub == nil {
		return ""
	}

	events := a.ctx.Hub.Snapshot()
	if len(events) > 3 {
		events = events[len(events)-3:]
	}
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.Muted.Render(strings.Repeat("─", max(a.width-4, 20))))
	b.WriteString("\n")
	for _, e := range events {
		line := fmt.Sprintf("%s %s %s",
			e.Time.Format("15:04:05"),
			e.Method,
			e.Path,
		)
		b.WriteString(theme.Muted.Render(line))
		if e.Status > 0 {
			b.WriteString(" " + theme.StatusStyle(e.Status).Render(fmt.Sprintf("%d", e.Status)))
			b.WriteString(theme.Muted.Render(fmt.Sprintf(" %dms", e.Duration.Milliseconds())))
		}
		if e.Error != "" {
			b.WriteString(" " + theme.Error.Render(e.Error))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(strings.TrimRight(b.String(), "\n"))
}
