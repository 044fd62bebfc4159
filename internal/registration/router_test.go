package registration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sedalcrazy-create/refahmaar/internal/gameapi"
)

type fakeBackend struct {
	existing    *gameapi.User
	existsErr   error
	registerErr error
	registered  []gameapi.Registration
	stats       *gameapi.Stats
	statsErr    error
	entries     []gameapi.LeaderboardEntry
	boardErr    error
}

func (f *fakeBackend) UserExists(ctx context.Context, baleUserID int64) (*gameapi.User, error) {
	return f.existing, f.existsErr
}

func (f *fakeBackend) Register(ctx context.Context, reg gameapi.Registration) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, reg)
	return nil
}

func (f *fakeBackend) Stats(ctx context.Context, baleUserID int64) (*gameapi.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeBackend) Leaderboard(ctx context.Context, limit int) ([]gameapi.LeaderboardEntry, error) {
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	return f.entries, nil
}

type sentReply struct {
	chatID int64
	reply  Reply
}

type recordingOutbox struct {
	sent    []sentReply
	sendErr error
}

func (o *recordingOutbox) Send(ctx context.Context, chatID int64, reply Reply) error {
	o.sent = append(o.sent, sentReply{chatID: chatID, reply: reply})
	return o.sendErr
}

func (o *recordingOutbox) last(t *testing.T) sentReply {
	t.Helper()
	if len(o.sent) == 0 {
		t.Fatal("no replies sent")
	}
	return o.sent[len(o.sent)-1]
}

func newTestRouter(backend *fakeBackend) (*Router, Store, *recordingOutbox) {
	store := NewMemoryStore()
	out := &recordingOutbox{}
	return NewRouter(store, backend, out), store, out
}

const (
	testChat int64 = 100
	testUser int64 = 42
)

func visitor() Visitor {
	return Visitor{ChatID: testChat, UserID: testUser, FirstName: "Ali"}
}

func mustState(t *testing.T, store Store, want State) Conversation {
	t.Helper()
	conv, ok := store.Get(testChat)
	if !ok {
		t.Fatalf("no conversation, want state %s", want)
	}
	if conv.State != want {
		t.Fatalf("state = %s, want %s", conv.State, want)
	}
	return conv
}

func TestStartNewUserBeginsFlow(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{})

	if err := r.Start(context.Background(), visitor()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mustState(t, store, StateWaitingFirstName)
	if !r.InProgress(testChat) {
		t.Fatal("expected in-progress conversation")
	}
	if got := out.last(t).reply; got.Keyboard != KeyboardRemove {
		t.Fatalf("expected keyboard removal on fresh start, got %v", got.Keyboard)
	}
}

func TestStartExistingUserGoesToMenu(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{
		existing: &gameapi.User{FirstName: "Ali"},
	})

	if err := r.Start(context.Background(), visitor()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mustState(t, store, StateRegistered)
	if r.InProgress(testChat) {
		t.Fatal("registered chat must not be in progress")
	}
	if got := out.last(t).reply; got.Keyboard != KeyboardMenu {
		t.Fatalf("expected menu keyboard, got %v", got.Keyboard)
	}
}

func TestStartBackendDown(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{existsErr: errors.New("dial tcp: refused")})

	if err := r.Start(context.Background(), visitor()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok := store.Get(testChat); ok {
		t.Fatal("no conversation should be created when lookup fails")
	}
	if got := out.last(t).reply.Text; got != msgBackendDown {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestFullRegistrationFlow(t *testing.T) {
	backend := &fakeBackend{}
	r, store, out := newTestRouter(backend)
	ctx := context.Background()
	v := visitor()

	if err := r.Start(ctx, v); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mustState(t, store, StateWaitingFirstName)

	if err := r.Text(ctx, v, "Ali"); err != nil {
		t.Fatalf("first name: %v", err)
	}
	mustState(t, store, StateWaitingLastName)

	if err := r.Text(ctx, v, "Rezai"); err != nil {
		t.Fatalf("last name: %v", err)
	}
	mustState(t, store, StateWaitingEmployeeCode)

	if err := r.Text(ctx, v, "EMP123"); err != nil {
		t.Fatalf("employee code: %v", err)
	}
	conv := mustState(t, store, StateWaitingContact)
	if conv.FirstName != "Ali" || conv.LastName != "Rezai" || conv.EmployeeCode != "EMP123" {
		t.Fatalf("captured fields wrong: %+v", conv)
	}
	if got := out.last(t).reply.Keyboard; got != KeyboardContact {
		t.Fatalf("expected contact keyboard, got %v", got)
	}

	if err := r.Contact(ctx, v, "+98 912 345 6789"); err != nil {
		t.Fatalf("contact: %v", err)
	}
	mustState(t, store, StateRegistered)

	if len(backend.registered) != 1 {
		t.Fatalf("register called %d times, want 1", len(backend.registered))
	}
	reg := backend.registered[0]
	if reg.PhoneNumber != "09123456789" {
		t.Fatalf("phone = %q, want normalized 09123456789", reg.PhoneNumber)
	}
	if reg.BaleUserID != testUser || reg.FirstName != "Ali" || reg.LastName != "Rezai" || reg.EmployeeCode != "EMP123" {
		t.Fatalf("unexpected registration payload: %+v", reg)
	}

	// Confirmation plus the game button.
	if len(out.sent) < 2 {
		t.Fatalf("expected confirmation and game intro, got %d replies", len(out.sent))
	}
	if got := out.sent[len(out.sent)-1].reply.Keyboard; got != KeyboardGame {
		t.Fatalf("final reply keyboard = %v, want game button", got)
	}
}

func TestStartMidFlowRestarts(t *testing.T) {
	backend := &fakeBackend{}
	r, store, _ := newTestRouter(backend)
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	_ = r.Text(ctx, v, "Ali")
	mustState(t, store, StateWaitingLastName)

	// /start in the middle of the flow must not be captured as a field.
	if err := r.Text(ctx, v, "/start"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	conv := mustState(t, store, StateWaitingFirstName)
	if conv.FirstName != "" || conv.LastName != "" {
		t.Fatalf("restart kept stale fields: %+v", conv)
	}
}

func TestShortFirstNameReprompts(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{})
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	if err := r.Text(ctx, v, "A"); err != nil {
		t.Fatalf("Text: %v", err)
	}

	conv := mustState(t, store, StateWaitingFirstName)
	if conv.FirstName != "" {
		t.Fatalf("short name must not be stored: %+v", conv)
	}
	if got := out.last(t).reply.Text; got != msgFirstNameTooShort {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestShortEmployeeCodeReprompts(t *testing.T) {
	r, store, _ := newTestRouter(&fakeBackend{})
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	_ = r.Text(ctx, v, "Ali")
	_ = r.Text(ctx, v, "Rezai")
	_ = r.Text(ctx, v, "12")

	conv := mustState(t, store, StateWaitingEmployeeCode)
	if conv.EmployeeCode != "" {
		t.Fatalf("short code must not be stored: %+v", conv)
	}
}

func TestTypedTextDuringContactStep(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{})
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	_ = r.Text(ctx, v, "Ali")
	_ = r.Text(ctx, v, "Rezai")
	_ = r.Text(ctx, v, "EMP123")

	if err := r.Text(ctx, v, "09123456789"); err != nil {
		t.Fatalf("Text: %v", err)
	}
	mustState(t, store, StateWaitingContact)
	got := out.last(t).reply
	if got.Text != msgContactNotText || got.Keyboard != KeyboardContact {
		t.Fatalf("unexpected reply: %+v", got)
	}
}

func TestRegistrationFailureDropsConversation(t *testing.T) {
	backend := &fakeBackend{registerErr: errors.New("backend rejected")}
	r, store, out := newTestRouter(backend)
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	_ = r.Text(ctx, v, "Ali")
	_ = r.Text(ctx, v, "Rezai")
	_ = r.Text(ctx, v, "EMP123")
	if err := r.Contact(ctx, v, "09123456789"); err != nil {
		t.Fatalf("Contact: %v", err)
	}

	if _, ok := store.Get(testChat); ok {
		t.Fatal("conversation must be dropped on registration failure")
	}
	if got := out.last(t).reply.Text; got != msgRegisterFailed {
		t.Fatalf("unexpected reply: %q", got)
	}

	// A fresh /start begins a new flow.
	backend.registerErr = nil
	if err := r.Start(ctx, v); err != nil {
		t.Fatalf("Start after failure: %v", err)
	}
	mustState(t, store, StateWaitingFirstName)
}

func TestContactWithoutConversation(t *testing.T) {
	r, _, out := newTestRouter(&fakeBackend{})

	if err := r.Contact(context.Background(), visitor(), "09123456789"); err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if got := out.last(t).reply.Text; got != msgSendStart {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestContactMissingPhoneReprompts(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{})
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	_ = r.Text(ctx, v, "Ali")
	_ = r.Text(ctx, v, "Rezai")
	_ = r.Text(ctx, v, "EMP123")

	if err := r.Contact(ctx, v, "  "); err != nil {
		t.Fatalf("Contact: %v", err)
	}
	mustState(t, store, StateWaitingContact)
	if got := out.last(t).reply.Text; got != msgContactNoPhone {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestInconsistentConversationDropped(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{})

	// Contact step reached without captured fields.
	store.Set(testChat, Conversation{State: StateWaitingContact, UserID: testUser})

	if err := r.Contact(context.Background(), visitor(), "09123456789"); err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if _, ok := store.Get(testChat); ok {
		t.Fatal("corrupt conversation must be dropped")
	}
	if got := out.last(t).reply.Text; got != msgRegisterFailed {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestTextWithoutConversationPromptsStart(t *testing.T) {
	r, _, out := newTestRouter(&fakeBackend{})

	if err := r.Text(context.Background(), visitor(), "hello"); err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got := out.last(t).reply.Text; got != msgSendStart {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestRegisteredMenuRouting(t *testing.T) {
	backend := &fakeBackend{
		stats:   &gameapi.Stats{FirstName: "Ali", HighScore: 120, GamesPlayed: 1, Rank: 4},
		entries: []gameapi.LeaderboardEntry{{FirstName: "Ali", HighScore: 120}},
	}
	r, store, out := newTestRouter(backend)
	ctx := context.Background()
	v := visitor()

	store.Set(testChat, Conversation{State: StateRegistered, UserID: testUser})

	if err := r.Text(ctx, v, MenuLabelStats); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := out.last(t).reply; !got.HTML || !strings.Contains(got.Text, "120") {
		t.Fatalf("unexpected stats reply: %+v", got)
	}

	if err := r.Text(ctx, v, MenuLabelLeaderboard); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if got := out.last(t).reply; !strings.Contains(got.Text, "🥇") {
		t.Fatalf("unexpected leaderboard reply: %+v", got)
	}

	if err := r.Text(ctx, v, MenuLabelGame); err != nil {
		t.Fatalf("game: %v", err)
	}
	if got := out.last(t).reply; got.Keyboard != KeyboardGame {
		t.Fatalf("unexpected game reply: %+v", got)
	}

	if err := r.Text(ctx, v, "random chatter"); err != nil {
		t.Fatalf("help: %v", err)
	}
	if got := out.last(t).reply.Text; got != msgHelp {
		t.Fatalf("unexpected help reply: %q", got)
	}

	mustState(t, store, StateRegistered)
}

func TestStatsBackendFailure(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{statsErr: errors.New("timeout")})
	store.Set(testChat, Conversation{State: StateRegistered, UserID: testUser})

	if err := r.Stats(context.Background(), visitor()); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got := out.last(t).reply.Text; got != msgBackendDown {
		t.Fatalf("unexpected reply: %q", got)
	}
	mustState(t, store, StateRegistered)
}

func TestSendFailureDoesNotRollBackState(t *testing.T) {
	r, store, out := newTestRouter(&fakeBackend{})
	out.sendErr = errors.New("flood limit")
	ctx := context.Background()
	v := visitor()

	_ = r.Start(ctx, v)
	if err := r.Text(ctx, v, "Ali"); err != nil {
		t.Fatalf("Text: %v", err)
	}
	mustState(t, store, StateWaitingLastName)
}
