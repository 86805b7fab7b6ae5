package store

import (
	"database/sql"
	"fmt"
)

// GetState returns the raw value stored under key, or nil if there is none.
func (s *Store) GetState(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) PutState(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(s.clock.Now()),
	)
	if err != nil {
		return fmt.Errorf("put state %q: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteState(key string) error {
	_, err := s.db.Exec(`DELETE FROM local_state WHERE key = ?`, key)
	return err
}

// StateKeys lists every stored key, sorted.
func (s *Store) StateKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM local_state ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list state keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
