// Package manualcode tracks organizer-entered attendee codes, one independent
// entry and result popup per event.
package manualcode

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/journal"
	"github.com/ttatard/attendance-frontend/internal/metrics"
	"github.com/ttatard/attendance-frontend/internal/models"
)

const (
	DefaultCodeLength = 6
	DefaultDismiss    = 5 * time.Second
	journalTimeout    = 2 * time.Second
)

var (
	// ErrIncompleteCode is returned when the buffer is shorter than the code length.
	ErrIncompleteCode = errors.New("code is incomplete")
	// ErrSubmitInFlight is returned while a submission for the same event is pending.
	ErrSubmitInFlight = errors.New("code submission already in progress")
)

// Submitter verifies a code with the backend.
type Submitter interface {
	SubmitCode(ctx context.Context, token string, eventID int64, code string) models.Outcome
}

// Recorder persists resolved outcomes.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Entry is one event's input buffer and popup.
type Entry struct {
	EventID    int64           `json:"event_id"`
	Input      string          `json:"input"`
	Submitting bool            `json:"submitting"`
	PopupOpen  bool            `json:"popup_open"`
	Outcome    *models.Outcome `json:"outcome,omitempty"`
	Message    string          `json:"message,omitempty"`
	Version    uint64          `json:"version"`
}

// Registry holds entries keyed by event id. Updates replace a single key and
// never touch another event's entry.
type Registry struct {
	submitter  Submitter
	codeLength int
	dismiss    time.Duration
	journal    Recorder
	metrics    *metrics.Collectors
	logger     *zap.Logger

	mu       sync.Mutex
	entries  map[int64]Entry
	timers   map[int64]*time.Timer
	version  uint64
	onChange func(Entry)
}

// Options configures a Registry. Zero values take defaults.
type Options struct {
	CodeLength int
	Dismiss    time.Duration
	Journal    Recorder
	Metrics    *metrics.Collectors
	Logger     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(submitter Submitter, opts Options) *Registry {
	if opts.CodeLength <= 0 {
		opts.CodeLength = DefaultCodeLength
	}
	if opts.Dismiss <= 0 {
		opts.Dismiss = DefaultDismiss
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		submitter:  submitter,
		codeLength: opts.CodeLength,
		dismiss:    opts.Dismiss,
		journal:    opts.Journal,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		entries:    make(map[int64]Entry),
		timers:     make(map[int64]*time.Timer),
	}
}

// OnChange registers fn to receive every updated entry. A closed popup is
// reported as an entry with PopupOpen false and no input.
func (r *Registry) OnChange(fn func(Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// CodeLength is the number of characters a complete code has.
func (r *Registry) CodeLength() int { return r.codeLength }

// Normalize uppercases s, drops anything but letters and digits, and truncates to the code length.
func (r *Registry) Normalize(s string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(s) {
		if c > unicode.MaxASCII || !(unicode.IsLetter(c) || unicode.IsDigit(c)) {
			continue
		}
		if b.Len() == r.codeLength {
			break
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Get returns the entry for eventID.
func (r *Registry) Get(eventID int64) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[eventID]
	return e, ok
}

// All returns every entry ordered by event id.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// SetInput replaces the event's input buffer.
func (r *Registry) SetInput(eventID int64, input string) (Entry, error) {
	r.mu.Lock()
	e := r.entries[eventID]
	if e.Submitting {
		r.mu.Unlock()
		return e, ErrSubmitInFlight
	}
	e.EventID = eventID
	e.Input = r.Normalize(input)
	e = r.storeLocked(e)
	fn := r.onChange
	r.mu.Unlock()

	notify(fn, e)
	return e, nil
}

// Ready reports whether the event's buffer holds a complete code.
func (r *Registry) Ready(eventID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries[eventID].Input) == r.codeLength
}

// Submit verifies the buffered code for eventID and opens the event's popup
// with the outcome. The popup auto-dismisses after the configured delay,
// keeping whatever is in the buffer.
func (r *Registry) Submit(ctx context.Context, token string, eventID int64) (models.Outcome, error) {
	r.mu.Lock()
	e := r.entries[eventID]
	switch {
	case e.Submitting:
		r.mu.Unlock()
		return models.Outcome{}, ErrSubmitInFlight
	case len(e.Input) != r.codeLength:
		r.mu.Unlock()
		return models.Outcome{}, ErrIncompleteCode
	case e.PopupOpen && e.Outcome != nil && e.Outcome.IsSuccess() && e.Outcome.Code == e.Input:
		o := *e.Outcome
		r.mu.Unlock()
		return o, nil
	}
	code := e.Input
	if t := r.timers[eventID]; t != nil {
		t.Stop()
		delete(r.timers, eventID)
	}
	e.Submitting = true
	e = r.storeLocked(e)
	started := e.Version
	fn := r.onChange
	r.mu.Unlock()
	notify(fn, e)

	o := r.submitter.SubmitCode(ctx, token, eventID, code)
	o.Code = code
	r.metrics.Outcome(string(o.Kind), string(journal.PathManual))
	r.record(eventID, o)

	r.mu.Lock()
	cur, ok := r.entries[eventID]
	if !ok || cur.Version != started {
		r.mu.Unlock()
		r.logger.Debug("manual code result discarded", zap.Int64("event_id", eventID))
		return o, nil
	}
	cur.Submitting = false
	cur.PopupOpen = true
	cur.Outcome = &o
	cur.Message = o.DisplayMessage()
	cur = r.storeLocked(cur)
	r.armDismissLocked(eventID)
	fn = r.onChange
	r.mu.Unlock()

	notify(fn, cur)
	r.logger.Info("manual code verified", zap.Int64("event_id", eventID), zap.String("kind", string(o.Kind)))
	return o, nil
}

// Close dismisses the event's popup and clears its buffer. Other events are untouched.
func (r *Registry) Close(eventID int64) {
	r.mu.Lock()
	_, ok := r.entries[eventID]
	r.removeLocked(eventID)
	fn := r.onChange
	r.mu.Unlock()
	if ok {
		notify(fn, Entry{EventID: eventID})
	}
}

// CloseAll stops every pending dismissal and drops all entries.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.entries {
		r.removeLocked(id)
	}
}

func (r *Registry) storeLocked(e Entry) Entry {
	r.version++
	e.Version = r.version
	r.entries[e.EventID] = e
	return e
}

func (r *Registry) removeLocked(eventID int64) {
	if t := r.timers[eventID]; t != nil {
		t.Stop()
		delete(r.timers, eventID)
	}
	delete(r.entries, eventID)
}

func (r *Registry) armDismissLocked(eventID int64) {
	if t := r.timers[eventID]; t != nil {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(r.dismiss, func() {
		r.mu.Lock()
		cur, ok := r.entries[eventID]
		if !ok || r.timers[eventID] != t {
			r.mu.Unlock()
			return
		}
		delete(r.timers, eventID)
		cur.PopupOpen = false
		cur.Outcome = nil
		cur.Message = ""
		cur = r.storeLocked(cur)
		fn := r.onChange
		r.mu.Unlock()
		notify(fn, cur)
	})
	r.timers[eventID] = t
}

func (r *Registry) record(eventID int64, o models.Outcome) {
	if r.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := r.journal.Record(ctx, journal.NewEntry(eventID, journal.PathManual, o)); err != nil {
		r.logger.Warn("journal record failed", zap.Error(err))
	}
}

func notify(fn func(Entry), e Entry) {
	if fn != nil {
		fn(e)
	}
}
