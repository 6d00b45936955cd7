// Package journal appends resolved check-in outcomes to a Redis list for offline tallying.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/models"
)

// Key is the Redis list holding journal entries.
const Key = "checkin:outcomes"

// Path names how an outcome was produced.
type Path string

const (
	PathCamera Path = "camera"
	PathManual Path = "manual"
)

// Entry is one journaled outcome.
type Entry struct {
	ID           string             `json:"id"`
	EventID      int64              `json:"event_id"`
	Path         Path               `json:"path"`
	Kind         models.OutcomeKind `json:"kind"`
	AttendeeName string             `json:"attendee_name,omitempty"`
	Code         string             `json:"code,omitempty"`
	Message      string             `json:"message,omitempty"`
	RecordedAt   time.Time          `json:"recorded_at"`
}

// NewEntry builds an entry for outcome o.
func NewEntry(eventID int64, path Path, o models.Outcome) Entry {
	return Entry{
		ID:           uuid.New().String(),
		EventID:      eventID,
		Path:         path,
		Kind:         o.Kind,
		AttendeeName: o.AttendeeName,
		Code:         o.Code,
		Message:      o.Message,
		RecordedAt:   time.Now().UTC(),
	}
}

// Journal writes and reads entries. A nil *Journal discards writes.
type Journal struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a Redis-backed journal.
func New(client *redis.Client, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{client: client, logger: logger}
}

// Record appends e. Failures are returned for logging only; they never change an outcome.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil || j.client == nil {
		return nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := j.client.RPush(ctx, Key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	j.logger.Debug("journaled outcome", zap.String("entry_id", e.ID), zap.Int64("event_id", e.EventID), zap.String("kind", string(e.Kind)))
	return nil
}

// Dequeue blocks until an entry is available, timeout elapses or ctx is done.
// It returns nil without error when nothing arrived or the entry was malformed.
func (j *Journal) Dequeue(ctx context.Context, timeout time.Duration) (*Entry, error) {
	result, err := j.client.BLPop(ctx, timeout, Key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(result[1]), &e); err != nil {
		j.logger.Warn("invalid journal entry", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &e, nil
}

// Len returns the number of pending entries.
func (j *Journal) Len(ctx context.Context) (int64, error) {
	return j.client.LLen(ctx, Key).Result()
}

// Tally counts outcomes per event and kind.
type Tally struct {
	mu     sync.Mutex
	counts map[int64]map[models.OutcomeKind]int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[int64]map[models.OutcomeKind]int)}
}

// Add counts e and returns the event's updated counts.
func (t *Tally) Add(e Entry) map[models.OutcomeKind]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	byKind, ok := t.counts[e.EventID]
	if !ok {
		byKind = make(map[models.OutcomeKind]int)
		t.counts[e.EventID] = byKind
	}
	byKind[e.Kind]++
	out := make(map[models.OutcomeKind]int, len(byKind))
	for k, v := range byKind {
		out[k] = v
	}
	return out
}

// Count returns how many outcomes of kind were seen for eventID.
func (t *Tally) Count(eventID int64, kind models.OutcomeKind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[eventID][kind]
}
