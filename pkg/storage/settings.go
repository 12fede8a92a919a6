package storage

import (
	"database/sql"
	"errors"
	"strings"
)

// Scope identifies the settings layer a value belongs to.
type Scope string

const (
	ScopeUser      Scope = "user"
	ScopeWorkspace Scope = "workspace"
	ScopeSystem    Scope = "system"
)

// scopePrecedence orders scopes for reads: workspace overrides user, which
// overrides system.
var scopePrecedence = []Scope{ScopeWorkspace, ScopeUser, ScopeSystem}

// Settings keys used by the fallback subsystem.
const (
	KeyAutoFallbackEnabled = "auto_fallback.enabled"
	KeyAutoFallbackType    = "auto_fallback.type"
	KeyPreferredFallback   = "fallback.preferred_model"
)

// ValidScope reports whether the scope is one of the known settings layers.
func ValidScope(scope Scope) bool {
	switch scope {
	case ScopeUser, ScopeWorkspace, ScopeSystem:
		return true
	}
	return false
}

// ParseScope converts user input to a Scope.
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToLower(strings.TrimSpace(s)))
	if !ValidScope(scope) {
		return "", errors.New("scope must be user, workspace, or system")
	}
	return scope, nil
}

// GetValue returns the effective value for a key, resolving across scopes
// (workspace > user > system). Returns ok=false when no scope has the key.
func (s *Store) GetValue(key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrStoreClosed
	}
	for _, scope := range scopePrecedence {
		value, ok, err := s.GetValueScoped(scope, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

// GetValueScoped returns the value stored for a key within a single scope.
func (s *Store) GetValueScoped(scope Scope, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrStoreClosed
	}
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE scope = ? AND key = ?`,
		string(scope), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetValue upserts a setting value in the given scope. An empty value deletes
// the row.
func (s *Store) SetValue(scope Scope, key, value string) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	if !ValidScope(scope) {
		return errors.New("storage: unknown settings scope " + string(scope))
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		_, err := s.db.Exec(`DELETE FROM settings WHERE scope = ? AND key = ?`, string(scope), key)
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (scope, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, string(scope), key, value)
	return err
}
