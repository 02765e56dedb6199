package rest

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultSessionKey is the web storage key the session is kept under.
const DefaultSessionKey = "session"

// WebStorage is a persistent string key/value store. *store.Store
// implements it.
type WebStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Session is a login session as returned by the session endpoint. SID is
// the session id; a session without one is logged out.
type Session struct {
	SID    string `json:"sid"`
	App    string `json:"app,omitempty"`
	User   string `json:"user,omitempty"`
	UserID string `json:"userID,omitempty"`
}

// Credentials are posted to the session endpoint to log in.
type Credentials struct {
	App      string `json:"app,omitempty"`
	User     string `json:"user"`
	Password string `json:"pwd"`
}

// SessionAuth keeps the session in web storage and provides its id as the
// auth token.
type SessionAuth struct {
	Storage WebStorage
	Key     string // Default: DefaultSessionKey
}

func (a *SessionAuth) key() string {
	return orDefault(a.Key, DefaultSessionKey)
}

// Load returns the stored session. It reports false when none is stored
// or the stored one has no SID.
func (a *SessionAuth) Load(ctx context.Context) (Session, bool, error) {
	raw, ok, err := a.Storage.Get(ctx, a.key())
	if err != nil || !ok {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	return s, s.SID != "", nil
}

// Save stores s. A session without SID is removed instead, so storage
// never holds a logged-out session.
func (a *SessionAuth) Save(ctx context.Context, s Session) error {
	if s.SID == "" {
		return a.Clear(ctx)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return a.Storage.Set(ctx, a.key(), string(data))
}

// Clear removes the stored session.
func (a *SessionAuth) Clear(ctx context.Context) error {
	return a.Storage.Remove(ctx, a.key())
}

// Token returns the stored session id.
func (a *SessionAuth) Token(ctx context.Context) (string, bool, error) {
	s, ok, err := a.Load(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	return s.SID, true, nil
}
