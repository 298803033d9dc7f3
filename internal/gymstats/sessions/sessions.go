package sessions

import (
	"slices"
	"time"

	"github.com/2beens/coachai/internal/calendar"
	"github.com/2beens/coachai/internal/gymstats/analysis"

	"github.com/google/uuid"
)

// Session is one analyzed workout. Sessions are never changed after creation.
type Session struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Result    analysis.Result `json:"result"`
}

func New(result analysis.Result, clock calendar.Clock) Session {
	return Session{
		ID:        uuid.NewString(),
		CreatedAt: clock.Now(),
		Result:    result,
	}
}

// Store is the session history, most recent first.
// Store values are immutable: Prepend returns a new Store.
type Store struct {
	sessions []Session
}

func NewStore(sessions []Session) Store {
	return Store{sessions: slices.Clone(sessions)}
}

func (s Store) Prepend(session Session) Store {
	next := make([]Session, 0, len(s.sessions)+1)
	next = append(next, session)
	next = append(next, s.sessions...)
	return Store{sessions: next}
}

// All returns a copy of every session, most recent first.
func (s Store) All() []Session {
	all := make([]Session, len(s.sessions))
	copy(all, s.sessions)
	return all
}

// Latest returns up to n most recent sessions.
func (s Store) Latest(n int) []Session {
	if n <= 0 {
		return []Session{}
	}
	if n > len(s.sessions) {
		n = len(s.sessions)
	}
	latest := make([]Session, n)
	copy(latest, s.sessions[:n])
	return latest
}

func (s Store) Len() int {
	return len(s.sessions)
}

func (s Store) Get(id string) (Session, bool) {
	for _, session := range s.sessions {
		if session.ID == id {
			return session, true
		}
	}
	return Session{}, false
}
