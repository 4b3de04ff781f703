// Package telegram – session.go stores the MTProto session as a single
// portable string (base64 of the native session payload), so the login
// credential can live in an env var or the OS keyring like any other secret.
package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/gotd/td/session"
)

// StringSessionStorage adapts a session string to gotd's session.Storage.
type StringSessionStorage struct {
	mu   sync.Mutex
	data []byte
}

// NewStringSessionStorage decodes an existing session string. An empty
// string yields an empty storage, suitable for a fresh login.
func NewStringSessionStorage(s string) (*StringSessionStorage, error) {
	st := &StringSessionStorage{}
	if s == "" {
		return st, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding session string: %w", err)
	}
	st.data = data
	return st, nil
}

// LoadSession implements session.Storage.
func (s *StringSessionStorage) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, session.ErrNotFound
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

// StoreSession implements session.Storage.
func (s *StringSessionStorage) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

// String encodes the current session payload. Empty when no login happened.
func (s *StringSessionStorage) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(s.data)
}
