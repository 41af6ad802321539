package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/jobstate/internal/state"
)

// Record is the persisted envelope.
type Record struct {
	State     json.RawMessage `json:"state"`
	Version   string          `json:"version"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
}

// Loaded is a decoded record whose state has not yet been accepted.
// State is kept raw so it can be migrated before it is typed.
type Loaded struct {
	State     map[string]any
	Version   string
	WrittenAt time.Time
}

// Age returns how long ago the record was written.
func (l *Loaded) Age(now time.Time) time.Duration {
	return now.Sub(l.WrittenAt)
}

// Seal serializes s into an encoded record stamped with now.
func Seal(codec Codec, s state.State, now time.Time) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	rec, err := json.Marshal(Record{
		State:     body,
		Version:   s.Version,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return codec.Encode(rec)
}

// Open decodes an encoded record. Every failure wraps ErrCorrupt.
func Open(codec Codec, blob string) (*Loaded, error) {
	plain, err := codec.Decode(blob)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return nil, fmt.Errorf("%w: record: %v", ErrCorrupt, err)
	}
	if len(rec.State) == 0 || bytes.Equal(rec.State, []byte("null")) {
		return nil, fmt.Errorf("%w: record has no state", ErrCorrupt)
	}

	// UseNumber keeps file sizes and counters exact through migration.
	dec := json.NewDecoder(bytes.NewReader(rec.State))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: state: %v", ErrCorrupt, err)
	}

	version := rec.Version
	if version == "" {
		if v, ok := raw["version"].(string); ok {
			version = v
		}
	}

	return &Loaded{
		State:     raw,
		Version:   version,
		WrittenAt: time.UnixMilli(rec.Timestamp).UTC(),
	}, nil
}

// DecodeState converts an accepted raw state into the typed aggregate.
func DecodeState(raw map[string]any) (state.State, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return state.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var s state.State
	if err := json.Unmarshal(data, &s); err != nil {
		return state.State{}, fmt.Errorf("%w: state: %v", ErrCorrupt, err)
	}
	if s.Jobs == nil {
		s.Jobs = []state.Job{}
	}
	return s, nil
}
