package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pdv/internal/cache"
	"pdv/internal/core"
	"pdv/internal/ledger"
	"pdv/internal/log"
)

// ErrClosed is returned by a session whose lifetime has ended.
var ErrClosed = errors.New("session closed")

// StoreConfig controls session lifetime.
type StoreConfig struct {
	TTL     time.Duration
	MaxSize int
	// Location is the zone in which "today" is computed. Defaults to time.Local.
	Location *time.Location
	// Now overrides the wall clock; used by tests.
	Now func() time.Time
}

// Store is the single owner of all live sessions. A session is created on
// first use, renewed on every access and closed when it expires, is evicted
// for capacity, or the store is shut down.
type Store struct {
	sessions  *cache.LRUCache[*Session]
	newLedger ledger.Factory
	logger    *log.Logger
	loc       *time.Location
	now       func() time.Time
}

func NewStore(cfg StoreConfig, newLedger ledger.Factory, logger *log.Logger) *Store {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = log.Discard()
	}

	st := &Store{
		sessions:  cache.NewLRUCache[*Session](cfg.MaxSize, cfg.TTL),
		newLedger: newLedger,
		logger:    logger.WithComponent(log.ComponentSession),
		loc:       cfg.Location,
		now:       cfg.Now,
	}
	st.sessions.OnEvict(func(id string, s *Session) {
		if err := s.Close(); err != nil {
			st.logger.Error("Failed to close session ledger", log.FieldSessionID, id, log.FieldError, err)
			return
		}
		st.logger.Debug("Session ended", log.FieldSessionID, id, log.FieldOperation, log.OpEvict)
	})
	return st
}

// Today returns the current calendar date in the store's zone.
func (st *Store) Today() core.Date {
	return core.DateOf(st.now().In(st.loc))
}

// Get returns the live session with id and renews its lifetime.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return st.sessions.GetAndRenew(id)
}

// Create starts a new session with an empty ledger.
func (st *Store) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	l, err := st.newLedger(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create ledger for session %s: %w", id, err)
	}
	s := New(id, l, st.Today)
	st.sessions.Set(id, s)
	st.logger.InfoContext(ctx, "Session started", log.FieldSessionID, id, log.FieldDay, s.selectedDay)
	return s, nil
}

// GetOrCreate returns the session named by id, or a new one when id is
// unknown, expired or already closed. created reports which happened.
func (st *Store) GetOrCreate(ctx context.Context, id string) (s *Session, created bool, err error) {
	if s, ok := st.Get(id); ok {
		if !s.isClosed() {
			return s, false, nil
		}
		st.sessions.Delete(id)
	}
	s, err = st.Create(ctx)
	return s, err == nil, err
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.sessions.Size()
}

// Cleaner exposes expiry sweeping to a cache.Manager.
func (st *Store) Cleaner() cache.Cleaner {
	return st.sessions
}

// Close ends every live session.
func (st *Store) Close() {
	n := st.sessions.Purge()
	st.logger.Info("Session store closed", "sessions_closed", n, log.FieldOperation, log.OpShutdown)
}
