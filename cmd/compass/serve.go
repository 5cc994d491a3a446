package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/compass"
	"github.com/dmitrymomot/compass/filters"
	"github.com/dmitrymomot/compass/pkg/health"
	"github.com/dmitrymomot/compass/pkg/history"
)

const sentryFlushTimeout = 2 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured app to a browser over a WebSocket history backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCommandConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if len(cfg.Routes) == 0 {
				return errNoRoutes
			}

			log := newLogger(cmd, cfg, compass.DispatchIDExtractor(), compass.RouteExtractor())
			defer sentry.Flush(sentryFlushTimeout)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv, err := newServer(ctx, cfg, log)
			if err != nil {
				return err
			}

			return runServer(ctx, runtimeConfig{
				handler:         srv.handler,
				logger:          log,
				address:         cfg.Server.Address,
				shutdownTimeout: cfg.Server.ShutdownTimeout,
				startupHooks:    []func(context.Context) error{srv.app.Run},
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// server wires an App to its HTTP surface.
type server struct {
	app     *compass.App
	socket  *history.Socket
	handler http.Handler
}

func newServer(ctx context.Context, cfg *Config, log *slog.Logger) (*server, error) {
	sock := history.NewSocket(
		history.WithSocketLogger(log),
		history.WithCheckOrigin(checkOrigin(cfg.Server.AllowedOrigins)),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	logging := filters.Logging(log)
	app := compass.New(
		compass.WithHistory(sock),
		compass.WithCustomLogger(log),
		compass.WithContext(ctx),
		compass.WithApplicationFilter(logging, -100),
		compass.WithActionFilter(logging, "", -100),
		compass.WithActionFilter(filters.NewMetrics(filters.WithRegistry(reg)), "", -90),
		compass.WithActionFilter(filters.NewTracing(), "", -80),
	)
	for _, rc := range cfg.Routes {
		if err := app.MapRoute(rc.Pattern, configController(rc, log)); err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle(cfg.Server.SocketPath, sock)
	r.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	monitor := health.NewMonitor(health.Checks{
		"loaded":  health.Closed(app.Loaded(), "no navigation completed"),
		"browser": socketConnected(sock),
	},
		health.WithLogger(log),
		health.WithDetails(func(context.Context) any { return snapshot(app, sock) }),
	)
	r.Get("/health/live", monitor.Live)
	r.Get("/health/ready", monitor.Ready)
	r.Get("/routes", routesHandler(cfg.Routes))
	r.Get("/state", stateHandler(app, sock))

	return &server{app: app, socket: sock, handler: r}, nil
}

// configController builds a controller whose actions log the request and
// follow the route's redirect, if any.
func configController(rc RouteConfig, log *slog.Logger) compass.ControllerFactory {
	actions := make(compass.Actions, len(rc.Actions))
	for _, name := range rc.Actions {
		actions[name] = func(ctx context.Context, req *compass.Request, resp *compass.Response) error {
			log.InfoContext(ctx, "action invoked",
				slog.String("controller", req.Controller()),
				slog.String("action", req.Action()),
				slog.Any("params", req.Params()))
			if rc.Redirect != "" {
				resp.Redirect(rc.Redirect)
			}
			return nil
		}
	}
	return compass.ControllerFunc(rc.Controller, actions)
}

// checkOrigin returns nil, the websocket default same-origin check, when no
// origins are configured. "*" allows any origin.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

func socketConnected(sock *history.Socket) health.CheckFunc {
	return func(context.Context) error {
		if !sock.Connected() {
			return history.ErrNotConnected
		}
		return nil
	}
}

func routesHandler(routes []RouteConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		infos, err := describeRoutes(routes)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, infos)
	}
}

// appState is the body of GET /state and the details of health checks.
type appState struct {
	Fragment  string `json:"fragment"`
	Previous  string `json:"previous"`
	Route     string `json:"route,omitempty"`
	FirstLoad bool   `json:"first_load"`
	Connected bool   `json:"connected"`
}

func snapshot(app *compass.App, sock *history.Socket) appState {
	st := appState{
		Fragment:  app.Router().Fragment(),
		Previous:  app.Router().Previous(),
		FirstLoad: app.IsFirstLoad(),
		Connected: sock.Connected(),
	}
	if m := app.CurrentRoute(); m != nil {
		st.Route = m.Template()
	}
	return st
}

func stateHandler(app *compass.App, sock *history.Socket) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, snapshot(app, sock))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
