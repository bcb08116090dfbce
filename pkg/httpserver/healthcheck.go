package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gatekit/gatekit/pkg/logger"
)

// HealthHandler serves liveness and readiness probes. With no probe
// functions it always answers 200 "ALIVE"; with probes it runs each and
// answers 200 "READY" or 500 "NOT_READY".
func HealthHandler(log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(probes) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				if log != nil {
					log.ErrorContext(r.Context(), "readiness probe failed", logger.Error(err))
				}
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
