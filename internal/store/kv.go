package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Read returns the raw JSON stored under key. ok is false when the key is absent.
func (s *Store) Read(key string) (value []byte, ok bool, err error) {
	var raw string
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %q: %w", ErrStorage, key, err)
	}
	return []byte(raw), true, nil
}

// Write replaces the value under key. value must be a valid JSON document.
func (s *Store) Write(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("%w: write %q: invalid json", ErrStorage, key)
	}
	if err := upsert(s.db, key, value); err != nil {
		return fmt.Errorf("%w: write %q: %w", ErrStorage, key, err)
	}
	return nil
}

// Erase removes key. Erasing an absent key is not an error.
func (s *Store) Erase(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: erase %q: %w", ErrStorage, key, err)
	}
	return nil
}

// Update runs a read-modify-write of key inside one transaction.
// fn receives the current raw value (nil, false when absent) and returns the
// replacement; a nil replacement leaves the key untouched. An error from fn
// rolls back and is returned unchanged.
func (s *Store) Update(key string, fn func(cur []byte, ok bool) ([]byte, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin %q: %w", ErrStorage, key, err)
	}
	defer tx.Rollback()

	var raw string
	ok := true
	err = tx.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		ok = false
	} else if err != nil {
		return fmt.Errorf("%w: read %q: %w", ErrStorage, key, err)
	}

	var cur []byte
	if ok {
		cur = []byte(raw)
	}
	next, err := fn(cur, ok)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if !json.Valid(next) {
		return fmt.Errorf("%w: write %q: invalid json", ErrStorage, key)
	}
	if err := upsert(tx, key, next); err != nil {
		return fmt.Errorf("%w: write %q: %w", ErrStorage, key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %q: %w", ErrStorage, key, err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsert(db execer, key string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), now,
	)
	return err
}

// Get decodes the JSON value under key into a T.
func Get[T any](s *Store, key string) (T, bool, error) {
	var v T
	raw, ok, err := s.Read(key)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("%w: decode %q: %w", ErrStorage, key, err)
	}
	return v, true, nil
}

// Put encodes v as JSON and writes it under key.
func Put(s *Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrStorage, key, err)
	}
	return s.Write(key, data)
}

// Modify is the typed form of Update. fn reports whether it changed the
// value; unchanged values are not written back.
func Modify[T any](s *Store, key string, fn func(cur T) (next T, changed bool, err error)) error {
	return s.Update(key, func(raw []byte, ok bool) ([]byte, error) {
		var cur T
		if ok {
			if err := json.Unmarshal(raw, &cur); err != nil {
				return nil, fmt.Errorf("%w: decode %q: %w", ErrStorage, key, err)
			}
		}
		next, changed, err := fn(cur)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %q: %w", ErrStorage, key, err)
		}
		return data, nil
	})
}

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
