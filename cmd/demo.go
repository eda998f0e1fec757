package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/UniPro-tech/UniQUE-Auth/internal/callback"
	"github.com/UniPro-tech/UniQUE-Auth/internal/config"
	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
	"github.com/UniPro-tech/UniQUE-Auth/internal/stubserver"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

func seedStore(s *stubserver.Store, cfg *config.Config, log zerolog.Logger) error {
	for _, u := range cfg.Demo.Users {
		if err := s.AddUser(u.CustomID, u.Name, u.Password); err != nil {
			return fmt.Errorf("seed user %s: %w", u.CustomID, err)
		}
		log.Info().Str("custom_id", u.CustomID).Msg("loaded user")
	}

	for _, c := range cfg.Demo.Clients {
		s.AddClient(stubserver.Client{
			ID:           c.ID,
			Name:         c.Name,
			RedirectURIs: c.RedirectURIs,
			Scope:        c.Scope,
		})
		log.Info().Str("client_id", c.ID).Msg("loaded client")
	}
	return nil
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the full authorization flow against a built-in stub server",
	Long:  "Demo boots an in-process authorization server and a loopback callback listener, then walks the client through login and consent. The issued authorization code is printed when the callback fires.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEffectiveConfig()
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.Demo.Host, cfg.Demo.Port)
		cfg.Server.URL = "http://" + addr

		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}

		store := stubserver.NewStore()
		if err := seedStore(store, cfg, rt.logger); err != nil {
			return err
		}

		codes, err := stubserver.NewCodeSigner(cfg.Server.URL)
		if err != nil {
			return fmt.Errorf("init code signer: %w", err)
		}

		handler := stubserver.NewRouter(stubserver.RouterConfig{
			Store:  store,
			Faults: stubserver.NewFaultFlags(),
			Codes:  codes,
			Hub:    rt.hub,
			Logger: rt.logger,
		})

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			rt.logger.Info().Str("addr", addr).Msg("stub authorization server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		listener, err := callback.NewListener(
			fmt.Sprintf("%s:%d", cfg.Demo.Host, cfg.Demo.CallbackPort),
			cfg.Demo.CallbackPath,
			rt.logger,
		)
		if err != nil {
			return fmt.Errorf("start callback listener: %w", err)
		}
		go func() {
			if err := listener.Serve(); err != nil {
				rt.logger.Error().Err(err).Msg("callback listener stopped")
			}
		}()

		client := cfg.Demo.Clients[0]
		oc := oauth2.Config{
			ClientID:    client.ID,
			RedirectURL: listener.URL(),
			Scopes:      core.SplitScope(client.Scope),
			Endpoint:    oauth2.Endpoint{AuthURL: cfg.Server.URL + "/auth"},
		}
		state := uuid.NewString()
		nonce := uuid.NewString()

		authURL, err := url.Parse(oc.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce)))
		if err != nil {
			return fmt.Errorf("parse authorization url: %w", err)
		}

		// Start at the login form with the authorization request riding
		// along, the way an unauthenticated visit would.
		entry := *authURL
		entry.Path = "/login"

		// Quit the UI once the authorization code lands on the callback.
		resultCh := listener.Results()
		done := make(chan callback.Result, 1)
		go func() {
			if r, ok := <-resultCh; ok {
				done <- r
				if rt.program != nil {
					rt.program.Quit()
				}
			}
		}()

		runErr := runFlow(rt, &entry, func(target string) error {
			resp, err := http.Get(target)
			if err != nil {
				return fmt.Errorf("deliver redirect: %w", err)
			}
			return resp.Body.Close()
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn().Err(err).Msg("stub server shutdown")
		}
		if err := listener.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn().Err(err).Msg("callback listener shutdown")
		}

		if runErr != nil {
			return runErr
		}
		if err := <-errCh; err != nil {
			return fmt.Errorf("stub server: %w", err)
		}

		select {
		case result := <-done:
			if result.Failed() {
				return fmt.Errorf("authorization failed: %s", callbackError(result))
			}
			if result.State != state {
				return fmt.Errorf("state mismatch: sent %q, got back %q", state, result.State)
			}
			fmt.Printf("Authorization code: %s\n", result.Code)
			return nil
		default:
			fmt.Println("Flow ended before an authorization code was issued.")
			return nil
		}
	},
}

func callbackError(r callback.Result) string {
	if r.ErrDescription != "" {
		return r.ErrDescription
	}
	return r.Err
}
