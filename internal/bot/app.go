// Package bot adapts the order engine to Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/orderbot/core/bootstrap"
	"github.com/m3rciful/orderbot/core/cmd"
	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/metrics"
	"github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/commands"
	"github.com/m3rciful/orderbot/core/telegram/router"
	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"
	"github.com/m3rciful/orderbot/core/telegram/state"
	"github.com/m3rciful/orderbot/internal/journal"
	"github.com/m3rciful/orderbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

const maxJanitorInterval = 10 * time.Minute

// Options assemble an App. Infra may be nil when no backend is configured.
type Options struct {
	Config     *Config
	Bot        *tele.Bot
	Infra      *bootstrap.Result
	Registerer prometheus.Registerer
}

// App owns the engine, its stores and the Telegram wiring.
type App struct {
	cfg      *Config
	bot      *tele.Bot
	infra    *bootstrap.Result
	disp     *tgsender.Dispatcher
	inbound  *tgsender.Dispatcher
	registry *telegram.Registry
	handlers *handlers
	memory   *state.MemoryStore[order.Session]
}

var _ cmd.TelegramApp = (*App)(nil)

// Bootstrap loads shared infrastructure and builds the App from a loaded Config.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: journal.Migrations(),
	})
	if err != nil {
		return nil, err
	}

	b, err := telegram.NewBot(&cfg.Config)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	app, err := New(Options{Config: cfg, Bot: b, Infra: infra, Registerer: metrics.Registry})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return app, nil
}

// New wires an App from ready dependencies.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil || opts.Bot == nil {
		return nil, errors.New("bot: config and bot are required")
	}
	cat, err := order.CatalogFor(cfg.Order.Language)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, bot: opts.Bot, infra: opts.Infra}

	var store state.Store[order.Session]
	if opts.Infra != nil && opts.Infra.Redis != nil {
		store = state.NewRedisStore[order.Session](opts.Infra.Redis,
			state.WithPrefix(cfg.Redis.Prefix),
			state.WithTTL(cfg.SessionExpiry()),
		)
	} else {
		a.memory = state.NewMemoryStore[order.Session](cfg.SessionExpiry())
		store = a.memory
	}

	m := order.NewMetrics(opts.Registerer)
	jobs := newJobMetrics(opts.Registerer)
	a.disp = tgsender.NewDispatcher(tgsender.Options{OnResult: jobs.observe, EnqueueTimeout: 2 * time.Second})
	a.inbound = newInboundDispatcher()

	var repo *journal.Repository
	pubOpts := order.PublisherOptions{
		Destination: cfg.Channel.ID,
		Broadcaster: NewChannelBroadcaster(opts.Bot),
		Catalog:     cat,
		Metrics:     m,
	}
	if opts.Infra != nil && opts.Infra.DB != nil {
		repo = journal.NewRepository(opts.Infra.DB)
		pubOpts.Journal = repo
	}
	publisher, err := order.NewPublisher(pubOpts)
	if err != nil {
		return nil, err
	}

	engine, err := order.NewEngine(order.EngineOptions{
		Store:     store,
		Outbound:  NewOutbound(opts.Bot, a.disp),
		Publisher: publisher,
		Catalog:   cat,
		Metrics:   m,
		Location:  cfg.Order.Location(),
	})
	if err != nil {
		return nil, err
	}

	a.handlers = &handlers{
		inbox:     &inbox{engine: engine, disp: a.inbound},
		engine:    engine,
		publisher: publisher,
		journal:   repo,
	}
	a.registry = a.buildRegistry(cat)
	return a, nil
}

func (a *App) buildRegistry(cat order.Catalog) *telegram.Registry {
	reg := telegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handlers.start,
		Description: cat.StartCommand,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handlers.stats,
		Description: "bot statistics",
		AdminOnly:   true,
		Hidden:      true,
	})
	_ = reg.RegisterCallback(order.SelectCallback, a.handlers.selectCurrency)
	reg.SetTextFallback(a.handlers.HandleText)
	return reg
}

// TelegramRunOptions returns the runtime wiring for RunTelegram.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.handlers, a.registry, router.TextOptions{})...)

	return telegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.disp,
		Middlewares: telegram.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ telegram.Runtime) error {
	backend := "redis"
	if a.memory != nil {
		backend = "memory"
		if ttl := a.cfg.SessionExpiry(); ttl > 0 {
			go a.memory.RunJanitor(ctx, janitorInterval(ttl), func(removed int) {
				logger.Debug(ctx, "state", "session.sweep", slog.Int("removed", removed))
			})
		}
	}
	logger.Info(ctx, "app", "order.wire",
		slog.String("status", "ok"),
		slog.String("session_store", backend),
		slog.Duration("session_ttl", a.cfg.SessionExpiry()),
		slog.String("language", a.handlers.engine.Catalog().Language),
		slog.Bool("journal", a.handlers.journal != nil),
	)
	return nil
}

// onStop runs after polling stopped and before the outbound dispatcher closes,
// so events still queued can send their prompts.
func (a *App) onStop(ctx context.Context, _ telegram.Runtime) error {
	a.inbound.Close()
	st := a.handlers.publisher.Stats()
	logger.Info(ctx, "app", "order.summary",
		slog.Uint64("published", st.Published),
		slog.Uint64("failed", st.Failed),
		slog.Uint64("sent", a.disp.SentCount()),
		slog.Uint64("send_errors", a.disp.ErrorCount()),
	)
	return nil
}

// Close drains queued events and releases the database and Redis connections.
func (a *App) Close() error {
	a.inbound.Close()
	return a.infra.Close()
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval > maxJanitorInterval {
		interval = maxJanitorInterval
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

type jobMetrics struct {
	results *prometheus.CounterVec
}

func newJobMetrics(reg prometheus.Registerer) *jobMetrics {
	m := &jobMetrics{results: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "sender",
		Name:      "jobs_total",
		Help:      "Outbound Telegram jobs by action and final status.",
	}, []string{"action", "status"})}
	if reg != nil {
		reg.MustRegister(m.results)
	}
	return m
}

func (m *jobMetrics) observe(action, status string) {
	m.results.WithLabelValues(action, status).Inc()
}
