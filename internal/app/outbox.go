package app

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sedalcrazy-create/refahmaar/core/bale/keyboard"
	balesender "github.com/sedalcrazy-create/refahmaar/core/bale/sender"
	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"github.com/sedalcrazy-create/refahmaar/internal/registration"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// teleOutbox renders router replies into Bale sends. Sends go through
// the async dispatcher when one is attached so handler latency stays
// independent of the platform's response time.
type teleOutbox struct {
	gameURL string

	bot  atomic.Pointer[tele.Bot]
	disp atomic.Pointer[balesender.Dispatcher]
}

func newTeleOutbox(gameURL string) *teleOutbox {
	return &teleOutbox{gameURL: gameURL}
}

func (o *teleOutbox) attach(bot *tele.Bot, disp *balesender.Dispatcher) {
	o.bot.Store(bot)
	if disp != nil {
		o.disp.Store(disp)
	}
}

func (o *teleOutbox) detach() {
	o.bot.Store(nil)
	o.disp.Store(nil)
}

func (o *teleOutbox) markup(kb registration.Keyboard) *tele.ReplyMarkup {
	switch kb {
	case registration.KeyboardRemove:
		return keyboard.RemoveKeyboard()
	case registration.KeyboardContact:
		return keyboard.ContactRequest(registration.ContactButtonLabel)
	case registration.KeyboardMenu:
		return menuKeyboard()
	case registration.KeyboardGame:
		return keyboard.WebAppButton(registration.GameButtonLabel, o.gameURL)
	default:
		return nil
	}
}

func menuKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{registration.MenuLabelGame},
		[]string{registration.MenuLabelStats, registration.MenuLabelLeaderboard},
	)
}

// Send implements registration.Outbox.
func (o *teleOutbox) Send(ctx context.Context, chatID int64, reply registration.Reply) error {
	bot := o.bot.Load()
	if bot == nil {
		return errors.New("app: bot not running")
	}

	opts := &tele.SendOptions{ReplyMarkup: o.markup(reply.Keyboard)}
	if reply.HTML {
		opts.ParseMode = tele.ModeHTML
	}

	run := func() error {
		_, err := bot.Send(tele.ChatID(chatID), reply.Text, opts)
		return err
	}

	disp := o.disp.Load()
	if disp == nil {
		return run()
	}
	if err := disp.Enqueue(ctx, "send.text", "sendMessage", run); err != nil {
		if errors.Is(err, balesender.ErrQueueFull) || errors.Is(err, balesender.ErrQueueClosed) {
			logger.Warn(ctx, "bale.sender", "queue.fallback",
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}
