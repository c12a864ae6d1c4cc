package advisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/horasecreta/advisor/ai/tracker"
	"github.com/horasecreta/advisor/db"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/logger"
)

const (
	ledgerWriteTimeout = 2 * time.Second
	ledgerQueueSize    = 256
)

type ledgerEntry struct {
	ctx     context.Context
	outcome AttemptOutcome
}

// LedgerRecorder writes attempt outcomes to the usage ledger from a single
// background writer. RecordAttempt only enqueues, so a slow or locked
// database never delays the fallback chain. Write failures are logged and
// never affect the request.
type LedgerRecorder struct {
	tracker *tracker.UsageTracker
	logger  *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	queue  chan ledgerEntry
	done   chan struct{}
}

// NewLedgerRecorder creates a recorder over t and starts its writer.
// Call Close to flush pending rows.
func NewLedgerRecorder(t *tracker.UsageTracker, log *zap.SugaredLogger) *LedgerRecorder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &LedgerRecorder{
		tracker: t,
		logger:  log,
		queue:   make(chan ledgerEntry, ledgerQueueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// RecordAttempt queues one attempt row without blocking. The row survives
// cancellation of the request context. When the queue is full or the
// recorder is closed the row is dropped.
func (r *LedgerRecorder) RecordAttempt(ctx context.Context, o AttemptOutcome) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := logger.FromContext(ctx, r.logger)
	if r.closed {
		log.Debugw("Ledger recorder closed, attempt dropped",
			logger.FieldModel, o.Model,
			logger.FieldAttempt, o.Index)
		return
	}

	select {
	case r.queue <- ledgerEntry{ctx: context.WithoutCancel(ctx), outcome: o}:
	default:
		log.Warnw("Ledger queue full, attempt dropped",
			logger.FieldModel, o.Model,
			logger.FieldAttempt, o.Index)
	}
}

// Close stops accepting rows and waits for queued rows to be written or for
// ctx to end.
func (r *LedgerRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "ledger drain left %d rows unwritten", len(r.queue))
	}
}

func (r *LedgerRecorder) run() {
	defer close(r.done)
	for e := range r.queue {
		r.write(e.ctx, e.outcome)
	}
}

func (r *LedgerRecorder) write(ctx context.Context, o AttemptOutcome) {
	wctx, cancel := context.WithTimeout(ctx, ledgerWriteTimeout)
	defer cancel()

	usage := &tracker.AttemptUsage{
		RequestID:    logger.RequestIDFromContext(ctx),
		AttemptIndex: o.Index,
		Provider:     o.Provider,
		ModelName:    o.Model,
		Success:      o.OK(),
		StartedAt:    o.StartedAt,
		DurationMS:   o.Duration.Milliseconds(),
		TimeoutMS:    o.TimeoutMS,
		MaxTokens:    o.MaxTokens,
	}
	if o.Failure != "" {
		kind := o.Failure
		usage.ErrorKind = &kind
	}
	if o.OK() {
		pt, ct, tt, cost := o.Usage.PromptTokens, o.Usage.CompletionTokens, o.Usage.TotalTokens, o.Usage.CostUSD
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, usage.Cost = &pt, &ct, &tt, &cost
	}

	err := r.tracker.TrackAttempt(wctx, usage)
	switch {
	case err == nil:
	case db.IsDatabaseClosed(err):
		logger.FromContext(ctx, r.logger).Debugw("Ledger closed, attempt not recorded",
			logger.FieldModel, o.Model,
			logger.FieldAttempt, o.Index)
	default:
		logger.FromContext(ctx, r.logger).Warnw("Failed to record attempt",
			logger.FieldModel, o.Model,
			logger.FieldAttempt, o.Index,
			logger.FieldError, err)
	}
}
