// Package session holds the in-memory master key and governs when
// plaintext is available: the Locked → Unlocking → Unlocked state machine,
// unlock coalescing, idle-timeout and absolute-age expiry, and subscriber
// notification for UI state synchronization.
//
// The master key is the only shared mutable state of the encryption core.
// It is owned exclusively by this package: the session is its single
// writer, and downstream callers receive a per-call copy they must not
// cache.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/common"
)

// State of the encryption session.
type State int

const (
	// Locked: no master key in memory.
	Locked State = iota
	// Unlocking: a ceremony + unwrap is in flight.
	Unlocking
	// Unlocked: master key resident.
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocking:
		return "unlocking"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Config holds the session expiry policy. IdleTimeout slides on activity;
// MaxSessionAge bounds the absolute age of an unlocked session regardless
// of activity.
type Config struct {
	IdleTimeout      time.Duration
	MaxSessionAge    time.Duration
	RefreshThreshold time.Duration
}

// DefaultConfig returns the production policy: 30 minute idle window,
// 24 hour absolute cap, 5 minute early-warning threshold.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:      30 * time.Minute,
		MaxSessionAge:    24 * time.Hour,
		RefreshThreshold: 5 * time.Minute,
	}
}

// UnlockFunc performs the interactive part of an unlock: ceremony, KEK
// derivation and unwrap. It returns the master key on success, ok=false
// for the recoverable "user cancelled / wrong passkey" outcomes, and a
// non-nil error only for systemic failures.
type UnlockFunc func(ctx context.Context) (masterKey []byte, ok bool, err error)

// attempt is one in-flight unlock shared by coalesced callers.
type attempt struct {
	done chan struct{}
	ok   bool
	err  error
}

// Session is the process-wide encryption session. Safe for concurrent use.
type Session struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state          State
	masterKey      []byte
	unlockedAt     time.Time
	lastActivityAt time.Time

	inflight *attempt

	onLock   []func()
	onUnlock []func()
}

// New creates a locked session with the given policy. A zero Config field
// falls back to its default.
func New(cfg Config) *Session {
	def := DefaultConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.MaxSessionAge <= 0 {
		cfg.MaxSessionAge = def.MaxSessionAge
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = def.RefreshThreshold
	}
	return &Session{cfg: cfg, now: time.Now, state: Locked}
}

// SetClock replaces the time source. Tests use it to advance time without
// sleeping. Must be called before the session is shared.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// OnLock registers fn to run after every transition to Locked.
func (s *Session) OnLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLock = append(s.onLock, fn)
}

// OnUnlock registers fn to run after every transition to Unlocked.
func (s *Session) OnUnlock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUnlock = append(s.onUnlock, fn)
}

// Unlock transitions Locked → Unlocking → Unlocked using fn for the
// interactive work. Concurrent calls are coalesced: while one attempt is in
// flight, later callers wait for its outcome instead of starting a second
// ceremony (ceremonies are user-interactive and must not run twice).
//
// Returns (true, nil) once the session is unlocked, (false, nil) when the
// user cancelled or the credential failed to unwrap, and an error for
// systemic failures.
func (s *Session) Unlock(ctx context.Context, fn UnlockFunc) (bool, error) {
	s.mu.Lock()

	expired := s.expireIfDueLocked()

	if s.state == Unlocked {
		s.lastActivityAt = s.now()
		s.mu.Unlock()
		return true, nil
	}

	if s.inflight != nil {
		att := s.inflight
		s.mu.Unlock()
		for _, f := range expired {
			f()
		}
		select {
		case <-att.done:
			return att.ok, att.err
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	att := &attempt{done: make(chan struct{})}
	s.inflight = att
	s.state = Unlocking
	s.mu.Unlock()

	// An expiry observed on entry locks the session like any other
	// accessor's would; subscribers hear about it even if the ceremony
	// below is cancelled.
	for _, f := range expired {
		f()
	}

	masterKey, ok, err := fn(ctx)

	s.mu.Lock()
	s.inflight = nil
	att.ok = ok && err == nil
	att.err = err

	var fired []func()
	if att.ok {
		s.masterKey = masterKey
		s.state = Unlocked
		now := s.now()
		s.unlockedAt = now
		s.lastActivityAt = now
		fired = append(fired, s.onUnlock...)
	} else {
		s.state = Locked
		common.WipeByteArray(masterKey)
	}
	s.mu.Unlock()

	close(att.done)
	for _, f := range fired {
		f()
	}
	return att.ok, att.err
}

// Lock zeroes and discards the in-memory master key. Idempotent: locking a
// locked session is a no-op and fires no callbacks.
func (s *Session) Lock() {
	s.mu.Lock()
	fired := s.lockLocked()
	s.mu.Unlock()
	for _, f := range fired {
		f()
	}
}

// lockLocked performs the transition under the mutex and returns the
// callbacks to fire once the mutex is released.
func (s *Session) lockLocked() []func() {
	if s.state != Unlocked {
		return nil
	}
	common.WipeByteArray(s.masterKey)
	s.masterKey = nil
	s.state = Locked
	s.unlockedAt = time.Time{}
	s.lastActivityAt = time.Time{}
	return append([]func(){}, s.onLock...)
}

// expireIfDueLocked enforces the idle and absolute-age policy lazily.
// Caller holds the mutex; returned callbacks must be fired after release.
func (s *Session) expireIfDueLocked() []func() {
	if s.state != Unlocked {
		return nil
	}
	now := s.now()
	if now.Sub(s.lastActivityAt) >= s.cfg.IdleTimeout || now.Sub(s.unlockedAt) >= s.cfg.MaxSessionAge {
		return s.lockLocked()
	}
	return nil
}

// MasterKey returns a copy of the resident master key, or
// common.ErrSessionLocked. Expiry is checked first, so a call after the
// idle window can never observe a stale key. Callers use the copy for the
// duration of a single operation and must not cache it.
func (s *Session) MasterKey() ([]byte, error) {
	s.mu.Lock()
	fired := s.expireIfDueLocked()
	if s.state != Unlocked {
		s.mu.Unlock()
		for _, f := range fired {
			f()
		}
		return nil, common.ErrSessionLocked
	}
	key := make([]byte, len(s.masterKey))
	copy(key, s.masterKey)
	s.lastActivityAt = s.now()
	s.mu.Unlock()
	return key, nil
}

// IsUnlocked reports whether a master key is resident, enforcing expiry
// first.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	fired := s.expireIfDueLocked()
	unlocked := s.state == Unlocked
	s.mu.Unlock()
	for _, f := range fired {
		f()
	}
	return unlocked
}

// TouchActivity records user interaction, sliding the idle window. It does
// not extend the absolute MaxSessionAge bound.
func (s *Session) TouchActivity() {
	s.mu.Lock()
	fired := s.expireIfDueLocked()
	if s.state == Unlocked {
		s.lastActivityAt = s.now()
	}
	s.mu.Unlock()
	for _, f := range fired {
		f()
	}
}

// ExpiringSoon reports whether either expiry deadline falls within the
// configured refresh threshold, so the UI can prompt for extension before
// a surprising mid-task lockout.
func (s *Session) ExpiringSoon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unlocked {
		return false
	}
	now := s.now()
	idleLeft := s.cfg.IdleTimeout - now.Sub(s.lastActivityAt)
	ageLeft := s.cfg.MaxSessionAge - now.Sub(s.unlockedAt)
	return idleLeft <= s.cfg.RefreshThreshold || ageLeft <= s.cfg.RefreshThreshold
}

// State returns the current state without enforcing expiry.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartJanitor runs a background sweep so an idle session locks close to
// its deadline even when no accessor is called. Returns when ctx is done.
func (s *Session) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			fired := s.expireIfDueLocked()
			s.mu.Unlock()
			for _, f := range fired {
				f()
			}
		case <-ctx.Done():
			return
		}
	}
}
