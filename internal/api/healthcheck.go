package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// SessionCounter reports live sessions for the healthcheck body.
type SessionCounter interface {
	ActiveSessions(ctx context.Context) (int, error)
}

type Healthchecker struct {
	Server *http.Server
}

func NewHealthchecker(port int, sessions SessionCounter) *Healthchecker {
	mux := http.NewServeMux()
	mux.Handle("/", handleHealthcheck(sessions))
	return &Healthchecker{
		Server: &http.Server{
			Addr:    fmt.Sprintf("0.0.0.0:%d", port),
			Handler: mux,
		},
	}
}

type healthStatus struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func handleHealthcheck(sessions SessionCounter) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			log.Debug("received healthcheck request")

			count, err := sessions.ActiveSessions(r.Context())
			if err != nil {
				log.WithError(err).Warn("healthcheck could not count sessions")
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(healthStatus{Status: "ok", Sessions: count})
		},
	)
}
