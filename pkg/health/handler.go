package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Monitor serves the liveness and readiness endpoints of one set of checks.
type Monitor struct {
	checks Checks
	cfg    *config
}

// NewMonitor creates a monitor over checks.
func NewMonitor(checks Checks, opts ...Option) *Monitor {
	return &Monitor{checks: checks, cfg: newConfig(opts...)}
}

// Live answers 200 while the process serves requests. Checks are not run.
func (m *Monitor) Live(w http.ResponseWriter, r *http.Request) {
	resp := &Response{Status: StatusHealthy, Details: m.details(r.Context())}
	write(w, r, http.StatusOK, resp)
}

// Ready runs the checks and answers 503 when any of them fails.
func (m *Monitor) Ready(w http.ResponseWriter, r *http.Request) {
	resp := runChecks(r.Context(), m.checks, m.cfg)
	resp.Details = m.details(r.Context())

	code := http.StatusOK
	if resp.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	write(w, r, code, resp)
}

func (m *Monitor) details(ctx context.Context) any {
	if m.cfg.details == nil {
		return nil
	}
	return m.cfg.details(ctx)
}

// write renders resp as JSON when the client asks for it, otherwise as the
// status line followed by one line per failed check. HEAD gets headers only.
func write(w http.ResponseWriter, r *http.Request, code int, resp *Response) {
	w.Header().Set("Cache-Control", "no-store")

	if acceptsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(resp)
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, resp.text())
	}
}

// text lists failed checks in name order under the overall status.
func (resp *Response) text() string {
	var b strings.Builder
	b.WriteString(resp.Status)
	for _, name := range slices.Sorted(maps.Keys(resp.Checks)) {
		if c := resp.Checks[name]; c.Status == StatusUnhealthy {
			fmt.Fprintf(&b, "\n%s: %s", name, c.Error)
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func acceptsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if mediaType == "application/json" {
			return true
		}
	}
	return false
}
