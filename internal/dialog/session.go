// Package dialog drives the two guided flows (filtered search and alert
// creation) as per-chat finite-state machines.
//
// Sessions are in-memory only. Losing them on restart is acceptable: an
// inbound message for an unknown chat simply means "no active flow" and the
// user re-enters via the entry command.
package dialog

import "sync"

type Flow int

const (
	FlowSearch Flow = iota + 1
	FlowAlert
)

type State int

const (
	// Search flow.
	StateChooseMode State = iota + 1
	StateEnterQuery
	StateEnterDeparture
	StateEnterDestination
	StateEnterMin
	StateEnterMax

	// Alert flow.
	StateChooseAction
	StateEnterDest
	StateEnterDepart
	StateEnterPrice
	StateConfirm
)

type SearchMode int

const (
	ModeText SearchMode = iota + 1
	ModeRoute
	ModePrice
)

type AlertAction int

const (
	ActionCreate AlertAction = iota + 1
	ActionList
)

// SearchDraft collects search filter fields across messages. Nil price
// pointers mean the field was skipped and must be omitted from the query.
type SearchDraft struct {
	Mode        SearchMode
	Query       string
	Departure   string
	Destination string
	MinPrice    *int
	MaxPrice    *int
}

// AlertDraft collects alert fields. An empty Departure means "any".
type AlertDraft struct {
	Destination string
	Departure   string
	Price       int
}

// Session is the transient per-chat dialog state. One flow at a time:
// starting a flow discards any existing session for the chat.
type Session struct {
	Flow   Flow
	State  State
	Search SearchDraft
	Alert  AlertDraft
}

type sessionStore struct {
	mu sync.Mutex
	m  map[int64]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[int64]*Session)}
}

func (s *sessionStore) get(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[chatID]
	return sess, ok
}

func (s *sessionStore) put(chatID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = sess
}

func (s *sessionStore) drop(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
