package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/avada/internal/rotation"
)

// marshalRotations converts a rotation set to JSON TEXT for storage.
// HTML escaping is disabled so stored rows stay byte-identical to what
// json.Marshal would produce for plain ints.
func marshalRotations(set rotation.Set) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(set); err != nil {
		return "", fmt.Errorf("marshal rotations: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalRotations parses JSON TEXT to a rotation set.
// Empty or "{}" yields a zero set, which the engine treats as stale.
func unmarshalRotations(data string) (rotation.Set, error) {
	var set rotation.Set
	if data == "" || data == "{}" {
		return set, nil
	}
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return rotation.Set{}, fmt.Errorf("unmarshal rotations: %w", err)
	}
	return set, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}
