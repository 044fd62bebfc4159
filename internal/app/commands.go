package app

import (
	"fmt"
	"time"

	"github.com/sedalcrazy-create/refahmaar/core/bale"
	"github.com/sedalcrazy-create/refahmaar/core/bale/commands"
	balehelpers "github.com/sedalcrazy-create/refahmaar/core/bale/helpers"
	"github.com/sedalcrazy-create/refahmaar/core/buildinfo"
	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"github.com/sedalcrazy-create/refahmaar/internal/registration"

	tele "gopkg.in/telebot.v4"
)

func visitorFrom(c tele.Context) registration.Visitor {
	v := registration.Visitor{}
	if chat := c.Chat(); chat != nil {
		v.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		v.UserID = sender.ID
		v.FirstName = sender.FirstName
	}
	return v
}

// flowFirst hands the update to the registration flow when a
// conversation is mid-flight. Telebot dispatches command endpoints
// before OnText, so every command except /start carries this guard:
// mid-registration, a typed "/stats" is the current step's answer.
func (a *App) flowFirst(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if chat := c.Chat(); chat != nil && a.router.InProgress(chat.ID) {
			ctx := balehelpers.WithHandler(c, "flow")
			return a.router.Text(ctx, visitorFrom(c), c.Text())
		}
		return next(c)
	}
}

func (a *App) buildRegistry() *bale.Registry {
	reg := bale.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Description: "شروع و ثبت‌نام",
		Handler: func(c tele.Context) error {
			ctx := balehelpers.WithHandler(c, "start")
			return a.router.Start(ctx, visitorFrom(c))
		},
	})

	reg.RegisterCommand("/help", commands.Command{
		Description: "راهنما",
		Handler: a.flowFirst(func(c tele.Context) error {
			ctx := balehelpers.WithHandler(c, "help")
			return a.router.Help(ctx, visitorFrom(c))
		}),
	})

	reg.RegisterCommand("/stats", commands.Command{
		Description: "آمار من",
		Handler: a.flowFirst(func(c tele.Context) error {
			ctx := balehelpers.WithHandler(c, "stats")
			return a.router.Stats(ctx, visitorFrom(c))
		}),
	})

	reg.RegisterCommand("/leaderboard", commands.Command{
		Description: "جدول امتیازات",
		Aliases:     []string{"top"},
		Handler: a.flowFirst(func(c tele.Context) error {
			ctx := balehelpers.WithHandler(c, "leaderboard")
			return a.router.Leaderboard(ctx, visitorFrom(c))
		}),
	})

	reg.RegisterCommand("/status", commands.Command{
		Description: "service status",
		AdminOnly:   true,
		Hidden:      true,
		Handler: a.flowFirst(func(c tele.Context) error {
			balehelpers.WithHandler(c, "status")
			status := fmt.Sprintf(
				"version: %s\ncommit: %s\nuptime: %s\npoll offset: %d",
				buildinfo.Version,
				buildinfo.Commit,
				time.Since(a.startedAt).Round(time.Second),
				a.poller.Offset(),
			)
			return balehelpers.SendText(c, status)
		}),
	})

	reg.SetTextFallback(func(c tele.Context) error {
		ctx := balehelpers.WithHandler(c, "text")
		return a.router.Text(ctx, visitorFrom(c), c.Text())
	})

	return reg
}

// flowAdapter exposes the registration router to the message router.
type flowAdapter struct {
	r *registration.Router
}

func (f flowAdapter) InProgress(chatID int64) bool {
	return f.r.InProgress(chatID)
}

func (f flowAdapter) HandleText(c tele.Context) error {
	ctx := balehelpers.WithHandler(c, "flow")
	return f.r.Text(ctx, visitorFrom(c), c.Text())
}

func (f flowAdapter) HandleContact(c tele.Context) error {
	ctx := balehelpers.WithHandler(c, "flow_contact")
	phone := ""
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		phone = msg.Contact.PhoneNumber
	}
	if phone == "" {
		logger.Warn(ctx, "flow", "contact.empty")
	}
	return f.r.Contact(ctx, visitorFrom(c), phone)
}
