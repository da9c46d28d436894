package token

import "sync"

// Store holds the process-wide credential. Implementations must treat a
// malformed persisted credential as absent rather than failing the caller;
// absence forces a re-login, which is always recoverable.
type Store interface {
	// Get returns the current credential. ok is false when none is stored.
	Get() (cred Credential, ok bool, err error)
	// Set replaces the stored credential.
	Set(cred Credential) error
	// Clear destroys the stored credential.
	Clear() error
}

// MemoryStore is an in-memory Store for tests and short-lived processes.
type MemoryStore struct {
	mu   sync.RWMutex
	cred Credential
	set  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.set, nil
}

func (s *MemoryStore) Set(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.set = false
	return nil
}
