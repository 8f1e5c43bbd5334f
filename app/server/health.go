package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/api"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func healthHandler(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			api.OKResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		api.OKResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
