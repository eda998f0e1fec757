package stubserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
)

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

// LoggingMiddleware records every request into the event hub and the
// structured log, and applies the blanket 500 fault when enabled.
type LoggingMiddleware struct {
	hub    *core.EventHub
	faults *FaultFlags
	log    zerolog.Logger
}

func NewLoggingMiddleware(hub *core.EventHub, faults *FaultFlags, log zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{hub: hub, faults: faults, log: log}
}

func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.faults.IsSimulate500() {
			writeError(w, http.StatusInternalServerError, "server_error", "simulated failure")
			m.hub.Append(core.Event{
				Time:   time.Now(),
				Kind:   "http",
				Method: r.Method,
				Path:   r.URL.RequestURI(),
				Status: http.StatusInternalServerError,
			})
			return
		}

		start := time.Now()
		rr := &responseRecorder{ResponseWriter: w}
		defer func() {
			if rec := recover(); rec != nil {
				rr.status = http.StatusInternalServerError
				m.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
			}
			if rr.status == 0 {
				rr.status = http.StatusOK
			}
			dur := time.Since(start)
			m.hub.Append(core.Event{
				Time:     start,
				Kind:     "http",
				Method:   r.Method,
				Path:     r.URL.RequestURI(),
				Status:   rr.status,
				Duration: dur,
				Detail:   clientIP(r),
			})
			m.log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.RequestURI()).
				Int("status", rr.status).
				Dur("duration", dur).
				Msg("handled")
		}()
		next.ServeHTTP(rr, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	return r.RemoteAddr
}
