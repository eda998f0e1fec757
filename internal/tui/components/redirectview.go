package components

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/golang-jwt/jwt/v5"
)

// RedirectView renders the redirect target returned by the server once a
// login or approval succeeds. Query parameters that look like JWTs (the
// authorization code, an id_token) can be expanded in place without
// signature verification.
type RedirectView struct {
	URL         string
	ShowDecoded bool
	Width       int
	Copied      bool

	styleHeader lipgloss.Style
	styleURL    lipgloss.Style
	styleMuted  lipgloss.Style
	styleAccent lipgloss.Style
}

func NewRedirectView(target string) *RedirectView {
	return &RedirectView{
		URL:         target,
		styleHeader: theme.Header,
		styleURL:    theme.Text,
		styleMuted:  theme.Muted,
		styleAccent: theme.Accent,
	}
}

func (r *RedirectView) View() string {
	if r.URL == "" {
		return r.styleHeader.Render("No redirect target yet")
	}

	var b strings.Builder

	b.WriteString(r.styleHeader.Render("Redirecting to:"))
	b.WriteString("\n\n")

	wrapWidth := r.Width - 4
	if wrapWidth < 40 {
		wrapWidth = 40
	}
	if wrapWidth > 120 {
		wrapWidth = 120
	}
	b.WriteString(r.styleURL.Render(wordWrap(r.URL, wrapWidth)))
	b.WriteString("\n\n")

	if r.ShowDecoded {
		b.WriteString(r.styleHeader.Render("Parameters:"))
		b.WriteString("\n")
		b.WriteString(r.decodeParams())
		b.WriteString("\n\n")
	}

	hints := "d toggle parameters • c copy URL"
	if r.Copied {
		hints = "copied!"
	}
	b.WriteString(r.styleAccent.Render(hints))

	return b.String()
}

func (r *RedirectView) ToggleDecoded() {
	r.ShowDecoded = !r.ShowDecoded
}

func (r *RedirectView) SetWidth(w int) {
	r.Width = w
}

// decodeParams lists the query parameters of the redirect target. Values
// with JWT shape are expanded into their unverified claims.
func (r *RedirectView) decodeParams() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.styleMuted.Render("  (unparseable URL)")
	}

	q := u.Query()
	if len(q) == 0 {
		return r.styleMuted.Render("  (no query parameters)")
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := q.Get(k)
		b.WriteString(fmt.Sprintf("  %s: ", r.styleAccent.Render(k)))
		if claims, err := unverifiedClaims(v); err == nil {
			b.WriteString("\n")
			b.WriteString(indent(formatClaims(claims), "    "))
		} else {
			b.WriteString(r.styleURL.Render(v))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func unverifiedClaims(tokenString string) (jwt.MapClaims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, fmt.Errorf("not a JWT")
	}
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid claims type")
}

func formatClaims(claims jwt.MapClaims) string {
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %v\n", k, claims[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wordWrap breaks text into width-sized lines on rune boundaries, so URLs
// carrying multibyte query values never render as invalid UTF-8.
func wordWrap(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(runes); i += width {
		end := i + width
		if end > len(runes) {
			end = len(runes)
		}
		b.WriteString(string(runes[i:end]))
		if end < len(runes) {
			b.WriteString("\n")
		}
	}
	return b.String()
}
