package httpapi

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReadyz runs every probe concurrently under one timeout. Any failure
// turns the response into a 503.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ReadyTimeout)
	defer cancel()

	probes := append([]Probe{{Name: "redis", Check: s.auth.Ping}}, s.probes...)
	results := make([]error, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			results[i] = p.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	out := readiness{Status: "ok", Checks: make(map[string]string, len(probes))}
	code := http.StatusOK
	for i, p := range probes {
		if err := results[i]; err != nil {
			out.Checks[p.Name] = "unavailable"
			out.Status = "unavailable"
			code = http.StatusServiceUnavailable
			s.log.Warn(r.Context(), "readiness probe failed", "probe", p.Name, "error", err.Error())
			continue
		}
		out.Checks[p.Name] = "ok"
	}
	writeJSON(w, code, out)
}
