// Package sessionlock serializes cart mutations and order conversion per
// table session id.
package sessionlock

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
)

// ErrBusy is returned when the lock could not be obtained before the wait
// budget ran out.
var ErrBusy = errors.New("sessionlock: session busy")

// Locker hands out one exclusive scope per session id.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// Do runs fn while holding the session lock.
func Do(ctx context.Context, l Locker, sessionID string, fn func() error) error {
	unlock, err := l.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

type localEntry struct {
	slot chan struct{}
	refs int
}

// Local is an in-process keyed lock. Entries are reference counted and
// dropped once nobody holds or waits on them.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocal builds an empty Local locker.
func NewLocal() *Local {
	return &Local{entries: map[string]*localEntry{}}
}

func (l *Local) Lock(ctx context.Context, sessionID string) (func(), error) {
	entry := l.acquireEntry(sessionID)

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(sessionID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			l.releaseEntry(sessionID, entry)
		})
	}, nil
}

func (l *Local) acquireEntry(sessionID string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[sessionID]
	if !ok {
		entry = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (l *Local) releaseEntry(sessionID string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, sessionID)
	}
}

// size reports how many session ids currently have an entry.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// IsBusy reports whether err wraps ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// Translate maps lock acquisition failures onto the public error taxonomy.
// Errors that already carry a code pass through.
func Translate(err error) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	if IsBusy(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "session is busy, retry shortly")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not lock session")
}
