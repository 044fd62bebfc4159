package bale

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

const (
	defaultLongPollTimeout = 30 * time.Second
	defaultRetryDelay      = time.Second
)

// FetchFunc retrieves a batch of updates starting at the given cursor.
type FetchFunc func(offset int, timeout time.Duration) ([]tele.Update, error)

// CursorPoller long-polls getUpdates and hands updates to the bot in
// arrival order. The cursor advances past an update before the update
// is dispatched, so a crash mid-dispatch cannot replay it forever, and
// update ids already behind the cursor are dropped as redeliveries.
//
// Fetch may be replaced for tests; when nil the poller calls the Bot
// API through bot.Raw.
type CursorPoller struct {
	Timeout    time.Duration
	RetryDelay time.Duration
	Fetch      FetchFunc

	offset atomic.Int64
}

// Offset reports the current cursor position (max dispatched update id + 1).
func (p *CursorPoller) Offset() int {
	return int(p.offset.Load())
}

// Poll implements tele.Poller. It never returns until stop is closed;
// fetch failures are logged and retried after a fixed delay without
// advancing the cursor.
func (p *CursorPoller) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	fetch := p.Fetch
	if fetch == nil {
		fetch = rawFetch(b)
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultLongPollTimeout
	}
	delay := p.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		updates, err := fetch(p.Offset(), timeout)
		if err != nil {
			logger.Warn(logger.Background(), "bale", "poll.fetch",
				slog.String("status", "retry"),
				slog.Int("offset", p.Offset()),
				slog.String("err", err.Error()),
			)
			select {
			case <-stop:
				return
			case <-time.After(delay):
			}
			continue
		}

		for _, upd := range updates {
			if int64(upd.ID) < p.offset.Load() {
				logger.Debug(logger.Background(), "bale", "poll.stale",
					slog.String("status", "skip"),
					slog.Int("update_id", upd.ID),
					slog.Int("offset", p.Offset()),
				)
				continue
			}
			// Advance first: dispatch must never rewind the cursor.
			p.offset.Store(int64(upd.ID) + 1)
			select {
			case dest <- upd:
			case <-stop:
				return
			}
		}
	}
}

func rawFetch(b *tele.Bot) FetchFunc {
	return func(offset int, timeout time.Duration) ([]tele.Update, error) {
		params := map[string]string{
			"timeout": strconv.Itoa(int(timeout / time.Second)),
		}
		if offset > 0 {
			params["offset"] = strconv.Itoa(offset)
		}
		data, err := b.Raw("getUpdates", params)
		if err != nil {
			return nil, err
		}
		var resp struct {
			Result []tele.Update `json:"result"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("bale: decode getUpdates: %w", err)
		}
		return resp.Result, nil
	}
}
