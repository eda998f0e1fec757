// Package stubserver is an in-process authorization server implementing the
// wire contract the client consumes: CSRF priming, credential login, consent
// metadata, approval, and logout. It backs the demo command and the test
// suite; it is not a production server.
package stubserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"

	"github.com/rs/zerolog"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
)

const sessionCookie = "unique_session"

type Dependencies struct {
	Store  *Store
	Faults *FaultFlags
	Codes  *CodeSigner
	Log    zerolog.Logger
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]string{"error": code}
	if desc != "" {
		payload["error_description"] = desc
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// session resolves the login session from the request cookie. A missing or
// unknown session answers 401 with login_required; the client's transport is
// expected to treat that uniformly.
func (d *Dependencies) session(w http.ResponseWriter, r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || d.Faults.IsExpireSessions() {
		writeError(w, http.StatusUnauthorized, "login_required", "no active session")
		return Session{}, false
	}
	sess, ok := d.Store.GetSession(cookie.Value)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login_required", "session expired")
		return Session{}, false
	}
	return sess, true
}

// NewLoginHandler serves GET /login (CSRF priming, query forwarded) and
// POST /login (credential submission).
func NewLoginHandler(d *Dependencies) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if d.Faults.IsDropCSRFToken() {
				writeJSON(w, map[string]string{})
				return
			}
			writeJSON(w, map[string]string{"csrf_token": d.Store.IssueCSRF()})
		case http.MethodPost:
			d.handleLoginSubmit(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_request", "")
		}
	})
}

func (d *Dependencies) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	var creds core.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if !d.Store.ConsumeCSRF(creds.CSRFToken) {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing or expired csrf token")
		return
	}
	user, ok := d.Store.Authenticate(creds.CustomID, creds.Password)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_grant", "incorrect custom_id or password")
		return
	}

	sess := d.Store.CreateSession(user.CustomID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})

	// A login page parameterized by a forwarded authorization request sends
	// the user on to consent; a bare login lands at the root.
	redirect := "/"
	if r.URL.RawQuery != "" {
		redirect = "/auth?" + r.URL.RawQuery
	}
	d.Log.Info().Str("user", user.CustomID).Str("redirect", redirect).Msg("login accepted")
	writeJSON(w, map[string]string{"redirect_url": redirect})
}

// NewAuthHandler serves GET /auth (authorization metadata) and POST /auth
// (approval).
func NewAuthHandler(d *Dependencies) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := d.session(w, r)
		if !ok {
			return
		}

		var req core.AuthorizationRequest
		switch r.Method {
		case http.MethodGet:
			req = core.ParseAuthorizationRequest(r.URL.Query())
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
				return
			}
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_request", "")
			return
		}

		client, ok := d.validateRequest(w, req)
		if !ok {
			return
		}

		if r.Method == http.MethodGet {
			d.handleMetadata(w, sess, client, req)
			return
		}
		d.handleApproval(w, sess, client, req)
	})
}

func (d *Dependencies) validateRequest(w http.ResponseWriter, req core.AuthorizationRequest) (Client, bool) {
	client, ok := d.Store.GetClient(req.ClientID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_client", "unknown client")
		return Client{}, false
	}
	if !slices.Contains(client.RedirectURIs, req.RedirectURI) {
		writeError(w, http.StatusBadRequest, "invalid_request", "redirect_uri not registered")
		return Client{}, false
	}
	if req.ResponseType != "code" {
		writeError(w, http.StatusBadRequest, "unsupported_response_type", "only response_type=code is supported")
		return Client{}, false
	}
	return client, true
}

func (d *Dependencies) handleMetadata(w http.ResponseWriter, sess Session, client Client, req core.AuthorizationRequest) {
	user, _ := d.Store.GetUser(sess.UserID)
	writeJSON(w, core.AuthorizationMetadata{
		App: core.AppInfo{
			Name:         client.Name,
			ClientID:     client.ID,
			RedirectURIs: client.RedirectURIs,
			Scope:        req.Scope,
		},
		User: core.UserInfo{ID: user.CustomID, Name: user.Name},
	})
}

func (d *Dependencies) handleApproval(w http.ResponseWriter, sess Session, client Client, req core.AuthorizationRequest) {
	code, err := d.Codes.Sign(client.ID, sess.UserID, req.Scope, req.Nonce)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "failed to issue authorization code")
		return
	}

	target, err := url.Parse(req.RedirectURI)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unparsable redirect_uri")
		return
	}
	q := target.Query()
	q.Set("code", code)
	if req.State != "" {
		q.Set("state", req.State)
	}
	target.RawQuery = q.Encode()

	d.Log.Info().Str("client", client.ID).Str("user", sess.UserID).Msg("authorization approved")
	writeJSON(w, map[string]string{"redirect_url": target.String()})
}

// NewLogoutHandler serves GET /logout: best-effort, no structured contract.
func NewLogoutHandler(d *Dependencies) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			d.Store.DeleteSession(cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, map[string]string{})
	})
}

// NewHealthHandler answers liveness probes for the demo command.
func NewHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
}
