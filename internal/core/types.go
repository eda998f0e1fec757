package core

import "net/url"

// Credentials is a single login attempt. It is built from the form fields and
// the CSRF token primed for the current page, consumed once, never stored.
type Credentials struct {
	CustomID  string `json:"custom_id"`
	Password  string `json:"password"`
	CSRFToken string `json:"csrf_token"`
}

// FieldErrors holds per-field validation messages for the login form.
// A failed validation never leaves the Ready state.
type FieldErrors struct {
	CustomID string
	Password string
}

func (f FieldErrors) OK() bool {
	return f.CustomID == "" && f.Password == ""
}

// Validate checks the locally enforced rules: both fields non-empty.
// Everything else is the server's call.
func (c Credentials) Validate() FieldErrors {
	var f FieldErrors
	if c.CustomID == "" {
		f.CustomID = "custom ID is required"
	}
	if c.Password == "" {
		f.Password = "password is required"
	}
	return f
}

// AuthorizationRequest is the OAuth-style parameter set identifying the
// requesting application. It is parsed once per flow entry and reused verbatim
// for both the metadata fetch and the approval submission.
type AuthorizationRequest struct {
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	Scope        string `json:"scope"`
	ResponseType string `json:"response_type"`
	State        string `json:"state,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
}

// ParseAuthorizationRequest reads the request out of a query string. Missing
// required fields become empty strings rather than parse failures: the server,
// not this client, is the source of truth on required-field enforcement.
func ParseAuthorizationRequest(q url.Values) AuthorizationRequest {
	return AuthorizationRequest{
		ClientID:     q.Get("client_id"),
		RedirectURI:  q.Get("redirect_uri"),
		Scope:        q.Get("scope"),
		ResponseType: q.Get("response_type"),
		State:        q.Get("state"),
		Nonce:        q.Get("nonce"),
	}
}

// Values renders the request as query parameters. The four required fields are
// always present, even when empty; state and nonce are omitted entirely when
// unset.
func (r AuthorizationRequest) Values() url.Values {
	q := url.Values{}
	q.Set("client_id", r.ClientID)
	q.Set("redirect_uri", r.RedirectURI)
	q.Set("scope", r.Scope)
	q.Set("response_type", r.ResponseType)
	if r.State != "" {
		q.Set("state", r.State)
	}
	if r.Nonce != "" {
		q.Set("nonce", r.Nonce)
	}
	return q
}

// AppInfo describes the requesting application as resolved by the server.
type AppInfo struct {
	Name         string   `json:"name"`
	ClientID     string   `json:"client_id"`
	RedirectURIs []string `json:"redirect_uris"`
	Scope        string   `json:"scope"`
}

// UserInfo identifies the session's user as resolved by the server.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuthorizationMetadata is the server-resolved view of a pending
// authorization request, held in page state until approval or exit.
type AuthorizationMetadata struct {
	App  AppInfo  `json:"app"`
	User UserInfo `json:"user"`
}

// RedirectOutcome is the terminal result of a successful flow. Ownership of
// the URL transfers to the navigator; no further flow state is meaningful.
type RedirectOutcome struct {
	URL string `json:"redirect_url"`
}
