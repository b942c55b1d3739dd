package bot

import (
	"sync"

	"github.com/SanyCska/serials-bot/internal/store"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

type sessionState int

const (
	stateIdle sessionState = iota
	// stateAwaitingQuery means the chat was prompted for a series title.
	stateAwaitingQuery
	// stateAwaitingSelection means search results were offered as buttons.
	stateAwaitingSelection
	// stateAwaitingProgress means the chat was prompted for "season episode".
	stateAwaitingProgress
)

// session tracks one in-flight dialog per chat. A new command replaces any
// dialog already in progress.
type session struct {
	state    sessionState
	intent   store.WatchStatus
	query    string
	results  []tmdb.Result
	seriesID int64
}

type sessionMap struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionMap() *sessionMap {
	return &sessionMap{sessions: make(map[int64]*session)}
}

func (m *sessionMap) get(chatID int64) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

func (m *sessionMap) put(chatID int64, s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
}

func (m *sessionMap) clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}
