package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Server struct {
	srv *http.Server
}

// HandlerFunc mounts a connect service and returns its path prefix.
type HandlerFunc func(opts ...connect.HandlerOption) (string, http.Handler)

type Config struct {
	Address string
	// Registry backs /metrics and receives the RPC metrics.
	Registry *prometheus.Registry
	// WriteTimeout bounds one RPC. Multi-segment ranges need a generous value.
	WriteTimeout time.Duration
}

func New(
	ctx context.Context,
	cfg Config,
	handlers ...HandlerFunc,
) (*Server, error) {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	mux := http.NewServeMux()

	// OpenTelemetry and prometheus metrics
	otelPrometheusExporter, err := otelprom.New(otelprom.WithRegisterer(cfg.Registry))
	if err != nil {
		return nil, err
	}
	metricsProvider := metric.NewMeterProvider(metric.WithReader(otelPrometheusExporter))
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	otelInterceptor, err := otelconnect.NewInterceptor(otelconnect.WithMeterProvider(metricsProvider))
	if err != nil {
		return nil, err
	}

	// Service registration
	for _, handler := range handlers {
		path, h := handler(connect.WithInterceptors(otelInterceptor, logInterceptor()))
		mux.Handle(path, h)
	}

	// Liveliness and readiness probes
	mux.HandleFunc("/healthz", healthZHandleFunc())
	mux.HandleFunc("/readyz", readyZHandleFunc(ctx))

	srv := &http.Server{
		Addr: cfg.Address,
		// Use h2c, so we can serve HTTP/2 without TLS.
		Handler: h2c.NewHandler(
			mux,
			&http2.Server{},
		),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       1 * time.Minute,
		WriteTimeout:      cfg.WriteTimeout,
		MaxHeaderBytes:    16 * 1024, // 16KiB
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
	}

	return &Server{
		srv: srv,
	}, nil
}

func (s *Server) Serve(l net.Listener) error {
	return s.srv.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// logInterceptor logs every failed RPC with its code.
func logInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			if err != nil {
				level := slog.LevelWarn
				if connect.CodeOf(err) == connect.CodeInternal {
					level = slog.LevelError
				}
				slog.Log(ctx, level, "rpc failed",
					"procedure", req.Spec().Procedure,
					"code", connect.CodeOf(err).String(),
					"duration", time.Since(start),
					"error", err,
				)
			}
			return res, err
		}
	}
}

var (
	statusHealthy    = []byte(`{"status":"HEALTHY"}`)
	statusNotServing = []byte(`{"status":"NOT_SERVING"}`)
	statusServing    = []byte(`{"status":"SERVING"}`)
)

func readyZHandleFunc(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		if ctx.Err() != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write(statusNotServing)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(statusServing)
	}
}

func healthZHandleFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(statusHealthy)
	}
}
