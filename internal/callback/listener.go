// Package callback runs a loopback listener standing in for the requesting
// application: it receives the final redirect of an authorization flow and
// reports the delivered code or error.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog"
)

// Result is what the redirect delivered: either a code (+ echoed state) or a
// structured error.
type Result struct {
	Code           string
	State          string
	Err            string
	ErrDescription string
}

func (r Result) Failed() bool {
	return r.Err != ""
}

type Listener struct {
	path    string
	ln      net.Listener
	srv     *http.Server
	results chan Result
	log     zerolog.Logger
}

// NewListener binds addr immediately so the redirect URI is valid before the
// flow starts. addr may use port 0; see URL for the resolved address.
func NewListener(addr, path string, log zerolog.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	l := &Listener{
		path:    path,
		ln:      ln,
		results: make(chan Result, 1),
		log:     log,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handle)
	l.srv = &http.Server{Handler: mux}
	return l, nil
}

// URL is the redirect URI this listener answers on.
func (l *Listener) URL() string {
	return "http://" + l.ln.Addr().String() + l.path
}

// Serve blocks until Shutdown.
func (l *Listener) Serve() error {
	if err := l.srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (l *Listener) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}

// Results yields at most one result per delivered redirect.
func (l *Listener) Results() <-chan Result {
	return l.results
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := Result{
		Code:           q.Get("code"),
		State:          q.Get("state"),
		Err:            q.Get("error"),
		ErrDescription: q.Get("error_description"),
	}
	if res.Code == "" && res.Err == "" {
		res.Err = "invalid_request"
		res.ErrDescription = "missing authorization code"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.Failed() {
		l.log.Warn().Str("error", res.Err).Msg("callback received error")
		fmt.Fprintf(w, errorPage, res.Err, res.ErrDescription)
	} else {
		l.log.Info().Msg("callback received authorization code")
		state := res.State
		if state == "" {
			state = "(none)"
		}
		fmt.Fprintf(w, successPage, res.Code, state)
	}

	select {
	case l.results <- res:
	default:
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Authorization Complete</title></head>
<body style="font-family: sans-serif; max-width: 640px; margin: 40px auto">
<h1>&#10003; Authorization Successful</h1>
<p>Authorization code:</p>
<pre style="white-space: pre-wrap; word-break: break-all; background: #f7fafc; padding: 12px">%s</pre>
<p>State: <code>%s</code></p>
<p>You can return to the terminal.</p>
</body>
</html>`

const errorPage = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Authorization Failed</title></head>
<body style="font-family: sans-serif; max-width: 640px; margin: 40px auto">
<h1>&#10007; Authorization Failed</h1>
<p><code>%s</code></p>
<p>%s</p>
</body>
</html>`
