package stubserver

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
)

type RouterConfig struct {
	Store  *Store
	Faults *FaultFlags
	Codes  *CodeSigner
	Hub    *core.EventHub
	Logger zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	deps := &Dependencies{
		Store:  cfg.Store,
		Faults: cfg.Faults,
		Codes:  cfg.Codes,
		Log:    cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", NewHealthHandler())
	mux.Handle("/login", NewLoginHandler(deps))
	mux.Handle("/auth", NewAuthHandler(deps))
	mux.Handle("/logout", NewLogoutHandler(deps))

	middleware := NewLoggingMiddleware(cfg.Hub, cfg.Faults, cfg.Logger)
	return middleware.Wrap(mux)
}
