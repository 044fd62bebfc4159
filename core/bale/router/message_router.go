package router

import (
	"time"

	"github.com/sedalcrazy-create/refahmaar/core/bale"
	"github.com/sedalcrazy-create/refahmaar/core/bale/middleware"

	tele "gopkg.in/telebot.v4"
)

// Flow defines the minimal interface for a registration conversation manager.
// Plain text and shared contacts are handed to the flow whenever a
// conversation is in progress for the chat.
type Flow interface {
	InProgress(chatID int64) bool
	HandleText(c tele.Context) error
	HandleContact(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/contact updates.
type TextOptions struct {
	UnknownText    tele.HandlerFunc
	UnknownContact tele.HandlerFunc
}

// TextRoutes builds handlers for text and contact routing. Conversation
// state takes priority over commands so a user mid-registration who
// types "/stats" is treated as answering the current prompt.
func TextRoutes(flow Flow, reg *bale.Registry, opts TextOptions) []bale.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if flow != nil && c.Chat() != nil && flow.InProgress(c.Chat().ID) {
			return handleWithSummary(c, "flow", start, "", "", func() error {
				return flow.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	contactHandler := func(c tele.Context) error {
		start := time.Now()
		if flow != nil && c.Chat() != nil && flow.InProgress(c.Chat().ID) {
			return handleWithSummary(c, "flow_contact", start, "", "", func() error {
				return flow.HandleContact(c)
			})
		}
		if opts.UnknownContact != nil {
			return handleWithSummary(c, "unexpected_contact", start, "", "", func() error {
				return opts.UnknownContact(c)
			})
		}
		logHandlerSummary(c, "unexpected_contact", start, "skip", "ok", nil)
		return nil
	}

	return []bale.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnContact,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(contactHandler)),
		},
	}
}
