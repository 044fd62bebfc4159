package registration

import (
	"context"
	"strings"

	"github.com/sedalcrazy-create/refahmaar/core/bale/format"
	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"github.com/sedalcrazy-create/refahmaar/internal/gameapi"
	"log/slog"
)

// Keyboard selects the reply markup attached to an outbound message.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardRemove
	KeyboardContact
	KeyboardMenu
	KeyboardGame
)

// Reply is one outbound message decided by the router. The transport
// layer renders the keyboard enum into platform markup.
type Reply struct {
	Text     string
	HTML     bool
	Keyboard Keyboard
}

// Backend is the subset of the game API the router needs.
type Backend interface {
	UserExists(ctx context.Context, baleUserID int64) (*gameapi.User, error)
	Register(ctx context.Context, reg gameapi.Registration) error
	Stats(ctx context.Context, baleUserID int64) (*gameapi.Stats, error)
	Leaderboard(ctx context.Context, limit int) ([]gameapi.LeaderboardEntry, error)
}

// Outbox delivers replies. Delivery is best effort: the router logs
// failures but never rolls back a state transition because of one.
type Outbox interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

// Visitor identifies the sender of the update being processed.
type Visitor struct {
	ChatID    int64
	UserID    int64
	FirstName string
}

// Router applies the conversation state machine. It owns all state
// transitions; each inbound message is evaluated against the chat's
// stored conversation and advances it at most one step.
type Router struct {
	store   Store
	backend Backend
	out     Outbox
}

// NewRouter wires the state machine to its dependencies.
func NewRouter(store Store, backend Backend, out Outbox) *Router {
	return &Router{store: store, backend: backend, out: out}
}

// InProgress reports whether the chat is mid-registration. Registered
// chats are not "in progress": their text goes through the command and
// menu routing instead.
func (r *Router) InProgress(chatID int64) bool {
	conv, ok := r.store.Get(chatID)
	if !ok {
		return false
	}
	return conv.State != StateRegistered
}

// Start handles /start for any state. An existing backend record short
// circuits the flow straight to the registered menu.
func (r *Router) Start(ctx context.Context, v Visitor) error {
	user, err := r.backend.UserExists(ctx, v.UserID)
	if err != nil {
		logger.Warn(ctx, "flow", "start.lookup",
			slog.Int64("chat_id", v.ChatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		r.send(ctx, v.ChatID, Reply{Text: msgBackendDown})
		return nil
	}

	if user != nil {
		r.store.Set(v.ChatID, Conversation{State: StateRegistered, UserID: v.UserID})
		logger.Info(ctx, "flow", "start.known",
			slog.Int64("chat_id", v.ChatID),
			slog.String("state", string(StateRegistered)),
		)
		r.send(ctx, v.ChatID, Reply{Text: welcomeBack(user.FirstName), Keyboard: KeyboardMenu})
		return nil
	}

	r.store.Set(v.ChatID, Conversation{State: StateWaitingFirstName, UserID: v.UserID})
	logger.Info(ctx, "flow", "start.new",
		slog.Int64("chat_id", v.ChatID),
		slog.String("state", string(StateWaitingFirstName)),
	)
	r.send(ctx, v.ChatID, Reply{Text: msgAskFirstName, Keyboard: KeyboardRemove})
	return nil
}

// Text handles a plain text message according to the chat's state.
func (r *Router) Text(ctx context.Context, v Visitor, text string) error {
	text = strings.TrimSpace(text)

	// /start restarts the flow from any state, even mid-registration.
	if strings.HasPrefix(text, "/start") {
		return r.Start(ctx, v)
	}

	conv, ok := r.store.Get(v.ChatID)
	if !ok {
		r.send(ctx, v.ChatID, Reply{Text: msgSendStart})
		return nil
	}

	switch conv.State {
	case StateWaitingFirstName:
		if len([]rune(text)) < 2 {
			r.send(ctx, v.ChatID, Reply{Text: msgFirstNameTooShort})
			return nil
		}
		conv.FirstName = text
		conv.State = StateWaitingLastName
		r.store.Set(v.ChatID, conv)
		r.logTransition(ctx, v.ChatID, conv.State)
		r.send(ctx, v.ChatID, Reply{Text: msgAskLastName})

	case StateWaitingLastName:
		if len([]rune(text)) < 2 {
			r.send(ctx, v.ChatID, Reply{Text: msgLastNameTooShort})
			return nil
		}
		conv.LastName = text
		conv.State = StateWaitingEmployeeCode
		r.store.Set(v.ChatID, conv)
		r.logTransition(ctx, v.ChatID, conv.State)
		r.send(ctx, v.ChatID, Reply{Text: msgAskCode})

	case StateWaitingEmployeeCode:
		if len([]rune(text)) < 3 {
			r.send(ctx, v.ChatID, Reply{Text: msgCodeTooShort})
			return nil
		}
		conv.EmployeeCode = text
		conv.State = StateWaitingContact
		r.store.Set(v.ChatID, conv)
		r.logTransition(ctx, v.ChatID, conv.State)
		r.send(ctx, v.ChatID, Reply{Text: msgAskContact, Keyboard: KeyboardContact})

	case StateWaitingContact:
		// Typed text instead of the contact button.
		r.send(ctx, v.ChatID, Reply{Text: msgContactNotText, Keyboard: KeyboardContact})

	case StateRegistered:
		r.menuText(ctx, v, text)

	default:
		r.send(ctx, v.ChatID, Reply{Text: msgSendStart})
	}
	return nil
}

// Contact handles a shared contact payload.
func (r *Router) Contact(ctx context.Context, v Visitor, phone string) error {
	conv, ok := r.store.Get(v.ChatID)
	if !ok {
		r.send(ctx, v.ChatID, Reply{Text: msgSendStart})
		return nil
	}
	if conv.State == StateRegistered {
		return r.Help(ctx, v)
	}
	if conv.State != StateWaitingContact {
		// Contact shared too early; state unchanged, repeat the prompt.
		r.send(ctx, v.ChatID, promptFor(conv.State))
		return nil
	}

	if strings.TrimSpace(phone) == "" {
		r.send(ctx, v.ChatID, Reply{Text: msgContactNoPhone, Keyboard: KeyboardContact})
		return nil
	}

	if conv.FirstName == "" || conv.LastName == "" || conv.EmployeeCode == "" {
		// Fields missing at the final step means the conversation is
		// corrupt; drop it rather than registering garbage.
		logger.Error(ctx, "flow", "register.inconsistent",
			slog.Int64("chat_id", v.ChatID),
			slog.String("state", string(conv.State)),
		)
		r.store.Remove(v.ChatID)
		r.send(ctx, v.ChatID, Reply{Text: msgRegisterFailed, Keyboard: KeyboardRemove})
		return nil
	}

	normalized := NormalizePhone(phone)
	err := r.backend.Register(ctx, gameapi.Registration{
		BaleUserID:   conv.UserID,
		PhoneNumber:  normalized,
		FirstName:    conv.FirstName,
		LastName:     conv.LastName,
		EmployeeCode: conv.EmployeeCode,
	})
	if err != nil {
		logger.Warn(ctx, "flow", "register.fail",
			slog.Int64("chat_id", v.ChatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		r.store.Remove(v.ChatID)
		r.send(ctx, v.ChatID, Reply{Text: msgRegisterFailed, Keyboard: KeyboardRemove})
		return nil
	}

	done := Conversation{State: StateRegistered, UserID: conv.UserID}
	r.store.Set(v.ChatID, done)
	r.logTransition(ctx, v.ChatID, StateRegistered)

	confirmation := registrationDone(Conversation{
		State:        conv.State,
		UserID:       conv.UserID,
		FirstName:    format.EscapeHTML(conv.FirstName),
		LastName:     format.EscapeHTML(conv.LastName),
		EmployeeCode: format.EscapeHTML(conv.EmployeeCode),
	}, normalized)
	r.send(ctx, v.ChatID, Reply{Text: confirmation, HTML: true, Keyboard: KeyboardMenu})
	r.send(ctx, v.ChatID, Reply{Text: msgGameIntro, HTML: true, Keyboard: KeyboardGame})
	return nil
}

// Stats fetches and renders the caller's game statistics.
func (r *Router) Stats(ctx context.Context, v Visitor) error {
	stats, err := r.backend.Stats(ctx, v.UserID)
	if err != nil {
		logger.Warn(ctx, "flow", "stats.fail",
			slog.Int64("chat_id", v.ChatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		r.send(ctx, v.ChatID, Reply{Text: msgBackendDown})
		return nil
	}
	r.send(ctx, v.ChatID, Reply{Text: RenderStats(*stats), HTML: true, Keyboard: KeyboardMenu})
	return nil
}

// Leaderboard fetches and renders the top players.
func (r *Router) Leaderboard(ctx context.Context, v Visitor) error {
	entries, err := r.backend.Leaderboard(ctx, maxLeaderboardRows)
	if err != nil {
		logger.Warn(ctx, "flow", "leaderboard.fail",
			slog.Int64("chat_id", v.ChatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		r.send(ctx, v.ChatID, Reply{Text: msgBackendDown})
		return nil
	}
	r.send(ctx, v.ChatID, Reply{Text: RenderLeaderboard(entries), HTML: true, Keyboard: KeyboardMenu})
	return nil
}

// GameIntro sends the game launch button.
func (r *Router) GameIntro(ctx context.Context, v Visitor) error {
	r.send(ctx, v.ChatID, Reply{Text: msgGameIntro, HTML: true, Keyboard: KeyboardGame})
	return nil
}

// Help sends the menu help text.
func (r *Router) Help(ctx context.Context, v Visitor) error {
	r.send(ctx, v.ChatID, Reply{Text: msgHelp, Keyboard: KeyboardMenu})
	return nil
}

func (r *Router) menuText(ctx context.Context, v Visitor, text string) {
	switch text {
	case MenuLabelGame:
		_ = r.GameIntro(ctx, v)
	case MenuLabelStats:
		_ = r.Stats(ctx, v)
	case MenuLabelLeaderboard:
		_ = r.Leaderboard(ctx, v)
	default:
		_ = r.Help(ctx, v)
	}
}

func (r *Router) send(ctx context.Context, chatID int64, reply Reply) {
	if err := r.out.Send(ctx, chatID, reply); err != nil {
		logger.Warn(ctx, "flow", "send.fail",
			slog.Int64("chat_id", chatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func promptFor(state State) Reply {
	switch state {
	case StateWaitingFirstName:
		return Reply{Text: msgAskFirstName}
	case StateWaitingLastName:
		return Reply{Text: msgAskLastName}
	case StateWaitingEmployeeCode:
		return Reply{Text: msgAskCode}
	case StateWaitingContact:
		return Reply{Text: msgAskContact, Keyboard: KeyboardContact}
	default:
		return Reply{Text: msgSendStart}
	}
}

func (r *Router) logTransition(ctx context.Context, chatID int64, next State) {
	logger.Info(ctx, "flow", "state.advance",
		slog.Int64("chat_id", chatID),
		slog.String("state", string(next)),
	)
}
