package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/UniPro-tech/UniQUE-Auth/internal/config"
	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/gateway"
	"github.com/UniPro-tech/UniQUE-Auth/internal/transport"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui"
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/pages"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// runtime bundles everything a flow command needs: the effective config,
// the gateway over a cookie-carrying transport, and the channel the
// transport pulses when the server answers 401.
type runtime struct {
	cfg     *config.Config
	logger  zerolog.Logger
	hub     *core.EventHub
	gateway *gateway.Service
	expired chan struct{}
	program *tea.Program
}

func loadEffectiveConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	if flagServer != "" {
		cfg.Server.URL = flagServer
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func buildRuntime() (*runtime, error) {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg)
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	logger := newLogger(cfg)
	hub := core.NewEventHub(cfg.Logging.BufferSize)
	expired := make(chan struct{}, 1)

	client, err := transport.New(transport.Options{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.Timeout.Duration,
		Hub:     hub,
		Logger:  logger,
		OnUnauthorized: func() {
			select {
			case expired <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		hub:     hub,
		gateway: gateway.New(client),
		expired: expired,
	}, nil
}

// flowNavigator receives redirect targets. Same-origin continuations
// (/login, /auth) re-enter the router like a browser page load; anything
// else leaves the client, through the external hook when one is set.
type flowNavigator struct {
	base     *url.URL
	program  *tea.Program
	external func(target string) error
	target   string
}

func (n *flowNavigator) Navigate(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse redirect target: %w", err)
	}

	if (u.Host == "" || u.Host == n.base.Host) && (u.Path == "/login" || u.Path == "/auth") {
		if n.program != nil {
			n.program.Send(pages.NavigateMsg{URL: u})
		}
		return nil
	}

	n.target = target
	if n.external != nil {
		return n.external(target)
	}
	return nil
}

func runFlow(rt *runtime, entry *url.URL, external func(string) error) error {
	base, err := url.Parse(rt.cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}
	nav := &flowNavigator{base: base, external: external}

	ctx := tui.NewContext(tui.ContextConfig{
		Gateway:   rt.gateway,
		Config:    rt.cfg,
		Hub:       rt.hub,
		Navigator: nav,
		Copy:      clipboard.WriteAll,
	})

	app := pages.NewApp(ctx, entry, rt.expired)
	program := tea.NewProgram(app, tea.WithAltScreen())
	nav.program = program
	rt.program = program

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	if nav.target != "" {
		fmt.Printf("Redirect target: %s\n", nav.target)
	}
	return nil
}

// entryURL resolves a flow path against the configured server. An absolute
// argument wins over the config.
func entryURL(cfg *config.Config, raw string) (*url.URL, error) {
	if strings.Contains(raw, "://") {
		return url.Parse(raw)
	}
	base, err := url.Parse(cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	rel, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse entry url: %w", err)
	}
	return base.ResolveReference(rel), nil
}

var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Open an authorization server URL in the terminal client",
	Long:  "Open routes the given URL the way a browser visit would: /auth paths show the consent screen, everything else shows the login form. The query string is preserved end to end.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}

		raw := "/login"
		if len(args) == 1 {
			raw = args[0]
		}
		entry, err := entryURL(rt.cfg, raw)
		if err != nil {
			return err
		}

		return runFlow(rt, entry, nil)
	},
}
