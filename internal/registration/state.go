// Package registration holds the per-chat conversation state machine
// that walks a new player through sign-up and serves the post-signup
// menu. All decisions are made here; transport and backend access are
// injected so the logic stays testable without a network.
package registration

import "sync"

// State is a closed set of conversation positions.
type State string

const (
	StateNew                 State = "new"
	StateWaitingFirstName    State = "waiting_first_name"
	StateWaitingLastName     State = "waiting_last_name"
	StateWaitingEmployeeCode State = "waiting_employee_code"
	StateWaitingContact      State = "waiting_contact"
	StateRegistered          State = "registered"
)

// Conversation carries the fields captured so far for one chat.
type Conversation struct {
	State        State
	UserID       int64
	FirstName    string
	LastName     string
	EmployeeCode string
}

// Store keeps per-chat conversations. Implementations must be safe for
// concurrent use; Get returns a copy so callers cannot mutate shared
// state without going through Set.
type Store interface {
	Get(chatID int64) (Conversation, bool)
	Set(chatID int64, conv Conversation)
	Remove(chatID int64)
}

type memoryStore struct {
	mu    sync.RWMutex
	chats map[int64]Conversation
}

// NewMemoryStore returns an in-process Store. Conversations do not
// survive a restart; users simply send /start again.
func NewMemoryStore() Store {
	return &memoryStore{chats: make(map[int64]Conversation)}
}

func (s *memoryStore) Get(chatID int64) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.chats[chatID]
	return conv, ok
}

func (s *memoryStore) Set(chatID int64, conv Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = conv
}

func (s *memoryStore) Remove(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chatID)
}
