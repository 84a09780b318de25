// Package session holds the signed-in identity and persists it to client
// storage so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/renzo/client/internal/models"
	"github.com/renzo/client/internal/storage"
)

// StorageKey is the client storage key holding the serialized identity.
const StorageKey = "renzo_user"

// ErrAlreadyInitialized is returned by a second call to Initialize.
var ErrAlreadyInitialized = errors.New("session: already initialized")

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	User    *models.UserProfile
	Loading bool
}

// Authenticated reports whether the snapshot carries an identity.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Store owns the current identity. It is safe for concurrent use.
type Store struct {
	kv     storage.KeyValue
	logger *slog.Logger

	mu          sync.RWMutex
	user        *models.UserProfile
	loading     bool
	initialized bool
	nextID      int
	subscribers map[int]func(Snapshot)
}

// NewStore returns a Store reading and writing through kv. The store starts
// loading with no identity until Initialize runs.
func NewStore(kv storage.KeyValue, logger *slog.Logger) *Store {
	if kv == nil {
		panic("session: storage must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:          kv,
		logger:      logger,
		loading:     true,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Initialize restores the persisted identity. A record that cannot be decoded
// is erased and leaves the session signed out.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	raw, err := s.kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.set(nil)
		return nil
	case errors.Is(err, storage.ErrCorrupt):
		s.eraseCorrupt(ctx, err)
		return nil
	case err != nil:
		s.set(nil)
		return fmt.Errorf("session: read stored identity: %w", err)
	}

	user, err := decodeUser(raw)
	if err != nil {
		s.eraseCorrupt(ctx, err)
		return nil
	}

	s.set(&user)
	return nil
}

// eraseCorrupt erases an undecodable record and leaves the session signed out.
func (s *Store) eraseCorrupt(ctx context.Context, cause error) {
	s.logger.Warn("discarding corrupt session record", "key", StorageKey, "error", cause)
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		s.logger.Warn("erase corrupt session record", "key", StorageKey, "error", err)
	}
	s.set(nil)
}

// Login makes profile the current identity and persists it. When persisting
// fails the identity is still set and the error is returned.
func (s *Store) Login(ctx context.Context, profile models.UserProfile) (Snapshot, error) {
	snap := s.set(&profile)

	payload, err := json.Marshal(profile)
	if err != nil {
		return snap, fmt.Errorf("session: encode identity: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return snap, fmt.Errorf("session: persist identity: %w", err)
	}
	return snap, nil
}

// Logout clears the identity and erases the persisted record.
func (s *Store) Logout(ctx context.Context) (Snapshot, error) {
	snap := s.set(nil)
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return snap, fmt.Errorf("session: erase identity: %w", err)
	}
	return snap, nil
}

// IsAuthenticated reports whether an identity is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Identity returns a copy of the current identity.
func (s *Store) Identity() (models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.UserProfile{}, false
	}
	return *s.user, true
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every identity change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) set(user *models.UserProfile) Snapshot {
	s.mu.Lock()
	s.user = user
	s.loading = false
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return snap
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.loading}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

func decodeUser(raw string) (models.UserProfile, error) {
	var user models.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.UserProfile{}, err
	}
	if user.ID == "" {
		return models.UserProfile{}, errors.New("stored identity has no id")
	}
	return user, nil
}
