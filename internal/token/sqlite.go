package token

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed keys under which the credential is persisted, mirroring the durable
// browser-storage keys of the original client.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
)

// SQLiteStore persists the credential so it survives process restart.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the credential database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get() (Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT key, value FROM credentials`)
	if err != nil {
		return Credential{}, false, fmt.Errorf("failed to read credential: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Credential{}, false, fmt.Errorf("failed to read credential: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return Credential{}, false, fmt.Errorf("failed to read credential: %w", err)
	}

	access, ok := values[keyAccessToken]
	if !ok || access == "" {
		return Credential{}, false, nil
	}

	cred := Credential{
		AccessToken:  access,
		RefreshToken: values[keyRefreshToken],
	}
	if raw, ok := values[keyExpiresAt]; ok && raw != "" {
		exp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			// A corrupt row forces a re-login instead of failing the caller.
			return Credential{}, false, nil
		}
		cred.ExpiresAt = exp
	}
	return cred, true, nil
}

func (s *SQLiteStore) Set(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	defer tx.Rollback()

	upsert := `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	var expires string
	if !cred.ExpiresAt.IsZero() {
		expires = cred.ExpiresAt.UTC().Format(time.RFC3339)
	}
	for k, v := range map[string]string{
		keyAccessToken:  cred.AccessToken,
		keyRefreshToken: cred.RefreshToken,
		keyExpiresAt:    expires,
	} {
		if _, err := tx.Exec(upsert, k, v); err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
