// Package app assembles the bot: config, backend client, conversation
// store, registration router, and the Bale transport.
package app

import (
	"context"
	"time"

	"github.com/sedalcrazy-create/refahmaar/core/bale"
	balerouter "github.com/sedalcrazy-create/refahmaar/core/bale/router"
	coreconfig "github.com/sedalcrazy-create/refahmaar/core/config"
	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"github.com/sedalcrazy-create/refahmaar/internal/gameapi"
	"github.com/sedalcrazy-create/refahmaar/internal/registration"
	"log/slog"
)

// App owns the long-lived components of the bot process.
type App struct {
	cfg       *coreconfig.Config
	backend   *gameapi.Client
	store     registration.Store
	out       *teleOutbox
	router    *registration.Router
	poller    *bale.CursorPoller
	startedAt time.Time
}

// New builds the application from validated configuration.
func New(cfg *coreconfig.Config) *App {
	backend := gameapi.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
	)
	store := registration.NewMemoryStore()
	out := newTeleOutbox(cfg.Game.URL)

	return &App{
		cfg:       cfg,
		backend:   backend,
		store:     store,
		out:       out,
		router:    registration.NewRouter(store, backend, out),
		poller:    &bale.CursorPoller{},
		startedAt: time.Now(),
	}
}

// buildRoutes assembles the full handler set: command endpoints plus
// the text/contact routes that defer to the registration flow.
func (a *App) buildRoutes(reg *bale.Registry) []bale.Route {
	flow := flowAdapter{r: a.router}

	routes := balerouter.CommandRoutes(reg, balerouter.CommandRouteOptions{
		AdminID: a.cfg.Bale.AdminID,
	})
	routes = append(routes, balerouter.TextRoutes(flow, reg, balerouter.TextOptions{
		UnknownContact: flow.HandleContact,
	})...)
	return routes
}

// Run starts the bot and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	reg := a.buildRegistry()
	routes := a.buildRoutes(reg)

	return bale.Run(ctx, bale.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Poller:      a.poller,
		Middlewares: bale.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt bale.Runtime) error {
			a.out.attach(rt.Bot, rt.Dispatcher)
			logger.Info(ctx, "app", "ready",
				slog.String("mode", a.cfg.Bale.RunMode),
				slog.String("host", a.cfg.Bale.APIURL),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt bale.Runtime) error {
			a.out.detach()
			logger.Info(ctx, "app", "shutdown",
				slog.Int("offset", rt.Poller.Offset()),
			)
			return nil
		},
	})
}

// Poller exposes the update cursor for diagnostics.
func (a *App) Poller() *bale.CursorPoller {
	return a.poller
}
