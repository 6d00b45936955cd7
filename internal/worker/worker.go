// Package worker drains the check-in outcome journal and keeps per-event tallies.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/journal"
)

// RetryBackoff is how long Run waits after a failed dequeue.
const RetryBackoff = time.Second

// Source yields journal entries.
type Source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*journal.Entry, error)
}

// TallyProcessor counts journaled outcomes per event and kind.
type TallyProcessor struct {
	source      Source
	tally       *journal.Tally
	pollTimeout time.Duration
	logger      *zap.Logger
}

// NewTallyProcessor creates a processor reading from source.
func NewTallyProcessor(source Source, pollTimeout time.Duration, logger *zap.Logger) *TallyProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &TallyProcessor{source: source, tally: journal.NewTally(), pollTimeout: pollTimeout, logger: logger}
}

// Tally returns the running counts.
func (p *TallyProcessor) Tally() *journal.Tally { return p.tally }

// Process counts one entry and logs the event's running totals.
func (p *TallyProcessor) Process(e journal.Entry) {
	counts := p.tally.Add(e)
	fields := []zap.Field{
		zap.String("entry_id", e.ID),
		zap.Int64("event_id", e.EventID),
		zap.String("path", string(e.Path)),
		zap.String("kind", string(e.Kind)),
	}
	for kind, n := range counts {
		fields = append(fields, zap.Int("total_"+string(kind), n))
	}
	p.logger.Info("outcome tallied", fields...)
}

// Run dequeues and processes entries until ctx is done.
func (p *TallyProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("tally worker stopping")
			return
		default:
		}

		e, err := p.source.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(RetryBackoff):
			}
			continue
		}
		if e == nil {
			continue
		}
		p.Process(*e)
	}
}
