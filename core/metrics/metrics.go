// Package metrics owns the process Prometheus registry and its HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/logger"
)

// Namespace prefixes every metric exported by the bot.
const Namespace = "orderbot"

// Registry collects all bot metrics. Go runtime and process collectors are preregistered.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// MustRegister adds collectors to Registry and panics on duplicates.
func MustRegister(cs ...prometheus.Collector) {
	Registry.MustRegister(cs...)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Server exposes the metrics endpoint.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds the metrics listener. A nil Server is returned when cfg.Listen is empty.
func Listen(cfg coreconfig.MetricsConfig) (*Server, error) {
	if cfg.Listen == "" {
		return nil, nil
	}
	path := cfg.Path
	if path == "" {
		path = coreconfig.DefaultMetricsPath
	}
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", cfg.Listen, err)
	}
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return nil
	}
	logger.Info(ctx, "metrics", "metrics.listen",
		slog.String("status", "ok"),
		slog.String("listen", s.Addr()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
