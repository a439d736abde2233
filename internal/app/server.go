package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	healthTimeout   = time.Second
	shutdownTimeout = 5 * time.Second
)

type opsRoutes struct {
	health      func(ctx context.Context) map[string]any
	ping        func(ctx context.Context) error
	metrics     http.Handler
	metricsPath string
	routes      http.HandlerFunc
}

func newRouter(o opsRoutes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
		defer cancel()
		body := map[string]any{"status": "ok"}
		if o.health != nil {
			for k, v := range o.health(ctx) {
				body[k] = v
			}
		}
		status := http.StatusOK
		if o.ping != nil {
			if err := o.ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["error"] = err.Error()
			}
		}
		writeJSON(w, status, body)
	})
	if o.metrics != nil {
		r.Method(http.MethodGet, o.metricsPath, o.metrics)
	}
	if o.routes != nil {
		r.Get("/routes", o.routes)
	}
	return r
}

func (a *App) router() http.Handler {
	o := opsRoutes{
		ping: a.bus.Ping,
		health: func(context.Context) map[string]any {
			return map[string]any{
				"markets":  a.market.Len(),
				"position": string(a.engine.Position().State),
			}
		},
		metricsPath: a.cfg.Metrics.Path,
		routes: func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, a.board.Get())
		},
	}
	if a.prom != nil {
		o.metrics = a.prom.Handler()
	}
	return newRouter(o)
}

func serveOps(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("ops server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
