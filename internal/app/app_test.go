package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	coreconfig "github.com/sedalcrazy-create/refahmaar/core/config"
	"github.com/sedalcrazy-create/refahmaar/internal/gameapi"
	"github.com/sedalcrazy-create/refahmaar/internal/registration"

	tele "gopkg.in/telebot.v4"
)

// newDispatchBot wires an offline bot with the same registry and routes
// Run installs, so tests exercise real telebot endpoint dispatch.
func newDispatchBot(t *testing.T, backendURL string) (*App, *tele.Bot) {
	t.Helper()

	cfg := &coreconfig.Config{
		Bale: coreconfig.BaleConfig{
			Token:   "test-token",
			RunMode: coreconfig.RunModeLongpoll,
		},
		Game:    coreconfig.GameConfig{URL: "https://game.example/play"},
		Backend: coreconfig.BackendConfig{BaseURL: backendURL, TimeoutSeconds: 1},
	}

	a := New(cfg)
	bot, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	reg := a.buildRegistry()
	for _, route := range a.buildRoutes(reg) {
		bot.Handle(route.Endpoint, route.Handler)
	}
	return a, bot
}

func textUpdate(id int, chatID, userID int64, text string) tele.Update {
	return tele.Update{
		ID: id,
		Message: &tele.Message{
			ID:     id,
			Text:   text,
			Chat:   &tele.Chat{ID: chatID},
			Sender: &tele.User{ID: userID, FirstName: "Ali"},
		},
	}
}

func TestCommandMidFlowIsConversationInput(t *testing.T) {
	a, bot := newDispatchBot(t, "http://127.0.0.1:0")

	const chatID, userID = 100, 42
	a.store.Set(chatID, registration.Conversation{
		State:  registration.StateWaitingFirstName,
		UserID: userID,
	})

	bot.ProcessUpdate(textUpdate(1, chatID, userID, "/stats"))

	conv, ok := a.store.Get(chatID)
	if !ok {
		t.Fatal("conversation dropped")
	}
	if conv.State != registration.StateWaitingLastName {
		t.Fatalf("state = %s, want %s", conv.State, registration.StateWaitingLastName)
	}
	if conv.FirstName != "/stats" {
		t.Fatalf("first name = %q, want the typed command captured as the answer", conv.FirstName)
	}
}

func TestCommandOutsideFlowReachesHandler(t *testing.T) {
	statsCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/user/42/stats" {
			statsCalls++
		}
		_ = json.NewEncoder(w).Encode(gameapi.Stats{FirstName: "Ali", GamesPlayed: 1})
	}))
	defer srv.Close()

	_, bot := newDispatchBot(t, srv.URL)

	bot.ProcessUpdate(textUpdate(1, 100, 42, "/stats"))

	if statsCalls != 1 {
		t.Fatalf("stats endpoint hit %d times, want 1", statsCalls)
	}
}

func TestStartMidFlowStillRestarts(t *testing.T) {
	absent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer absent.Close()

	a, bot := newDispatchBot(t, absent.URL)

	const chatID, userID = 100, 42
	a.store.Set(chatID, registration.Conversation{
		State:     registration.StateWaitingLastName,
		UserID:    userID,
		FirstName: "Ali",
	})

	bot.ProcessUpdate(textUpdate(2, chatID, userID, "/start"))

	// The restarted conversation waits for the first name again with
	// previously captured fields cleared.
	conv, ok := a.store.Get(chatID)
	if !ok || conv.State != registration.StateWaitingFirstName || conv.FirstName != "" {
		t.Fatalf("conversation = %+v, ok = %v; want restarted flow", conv, ok)
	}
}
