package tui

import (
	"context"
	"net/url"

	"github.com/UniPro-tech/UniQUE-Auth/internal/config"
	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
)

// Gateway is the slice of the auth service the pages drive. Satisfied by
// *gateway.Service; faked in page tests.
type Gateway interface {
	FetchCSRFToken(ctx context.Context, query url.Values) (string, error)
	Login(ctx context.Context, creds core.Credentials, query url.Values) (core.RedirectOutcome, error)
	FetchAuthorizationData(ctx context.Context, req core.AuthorizationRequest) (*core.AuthorizationMetadata, error)
	Authorize(ctx context.Context, req core.AuthorizationRequest) (string, error)
	Logout(ctx context.Context) error
}

// Navigator receives the terminal redirect of a flow. Ownership of the URL
// transfers to it; the page that produced it is done.
type Navigator interface {
	Navigate(url string) error
}

// Context carries the shared dependencies into every page.
type Context struct {
	Gateway   Gateway
	Config    *config.Config
	Hub       *core.EventHub
	Navigator Navigator
	Copy      func(string) error
}

type ContextConfig struct {
	Gateway   Gateway
	Config    *config.Config
	Hub       *core.EventHub
	Navigator Navigator
	Copy      func(string) error
}

func NewContext(cfg ContextConfig) *Context {
	return &Context{
		Gateway:   cfg.Gateway,
		Config:    cfg.Config,
		Hub:       cfg.Hub,
		Navigator: cfg.Navigator,
		Copy:      cfg.Copy,
	}
}
