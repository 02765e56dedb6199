package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SetJSON stores v as JSON under key. HTML escaping is disabled so the
// stored text matches what a browser's JSON.stringify would write.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	// Encoder adds a trailing newline, remove it
	return s.Set(ctx, key, strings.TrimSpace(buf.String()))
}

// GetJSON decodes the JSON stored under key into dst. It reports false,
// leaving dst untouched, when the key is absent.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return true, nil
}
