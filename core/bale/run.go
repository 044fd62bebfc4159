package bale

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	balehelpers "github.com/sedalcrazy-create/refahmaar/core/bale/helpers"
	balesender "github.com/sedalcrazy-create/refahmaar/core/bale/sender"
	coreconfig "github.com/sedalcrazy-create/refahmaar/core/config"
	"github.com/sedalcrazy-create/refahmaar/core/logger"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Poller overrides the default cursor poller when set (tests).
	Poller *CursorPoller

	DispatcherOptions balesender.Options
	Dispatcher        *balesender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Poller     *CursorPoller
	Dispatcher *balesender.Dispatcher
	Registry   *Registry
}

// Run composes and runs a Bale bot until the provided context is done.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("bale: nil config provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	poller := opts.Poller
	if poller == nil {
		poller = &CursorPoller{}
	}
	if poller.Timeout <= 0 && cfg.Bale.LongPollTimeoutSeconds > 0 {
		poller.Timeout = time.Duration(cfg.Bale.LongPollTimeoutSeconds) * time.Second
	}

	settings := tele.Settings{
		URL:    cfg.Bale.APIURL,
		Token:  cfg.Bale.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("bale: bot initialization failed: %w", err)
	}
	buildTook := time.Since(buildStart)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = balesender.NewDispatcher(opts.DispatcherOptions)
	}
	useHelperDispatcher := !opts.DisableHelperDispatcher
	if useHelperDispatcher {
		balehelpers.SetDispatcher(dispatcher)
	}

	rt := Runtime{
		Bot:        bot,
		Poller:     poller,
		Dispatcher: dispatcher,
		Registry:   reg,
	}

	timeoutSec := int(defaultLongPollTimeout / time.Second)
	if cfg.Bale.LongPollTimeoutSeconds > 0 {
		timeoutSec = cfg.Bale.LongPollTimeoutSeconds
	}
	logger.Bale.Info("polling mode",
		slog.String("event", "mode"),
		slog.String("mode", "polling"),
		slog.String("host", cfg.Bale.APIURL),
		slog.Int("timeout_seconds", timeoutSec),
		slog.Duration("duration", logger.RoundMS(buildTook)),
	)

	if !opts.DisableWebhookCleanup && strings.EqualFold(cfg.Bale.RunMode, coreconfig.RunModeLongpoll) {
		if err := deleteWebhook(cfg.Bale.APIURL, cfg.Bale.Token, false); err != nil {
			logger.Bale.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("mode", "polling"),
				slog.String("err", err.Error()),
			)
		} else {
			logger.Bale.Info("webhook deleted",
				slog.String("event", "delete_webhook"),
				slog.String("mode", "polling"),
			)
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}

	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	SetupCommands(bot, reg)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			dispatcher.Close()
			if useHelperDispatcher {
				balehelpers.SetDispatcher(nil)
			}
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopCtx := ctx
		if stopCtx == nil {
			stopCtx = context.Background()
		}
		stopErr = opts.OnStop(stopCtx, rt)
	}

	dispatcher.Close()
	if useHelperDispatcher {
		balehelpers.SetDispatcher(nil)
	}

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	}

	return nil
}

func deleteWebhook(apiURL, token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = coreconfig.DefaultBaleAPIURL
	}
	url := fmt.Sprintf("%s/bot%s/deleteWebhook", strings.TrimRight(apiURL, "/"), token)
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
