package router

import (
	"github.com/sedalcrazy-create/refahmaar/core/bale"
	"github.com/sedalcrazy-create/refahmaar/core/bale/middleware"
	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *bale.Registry, opts CommandRouteOptions) []bale.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]bale.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := def.Handler
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		routes = append(routes, bale.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.LogEvent(logger.Background(), logger.Wire, slog.LevelInfo, "wire.complete",
		slog.Int("commands", len(reg.Commands())),
	)

	return routes
}
