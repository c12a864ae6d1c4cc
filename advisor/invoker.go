package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/ai/provider"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/logger"
)

// GeneratorSource resolves a chain entry's provider to a generator.
// *provider.Registry satisfies it.
type GeneratorSource interface {
	Lookup(name string) (provider.Generator, error)
}

// AttemptRecorder receives every attempt outcome, successful or not.
// RecordAttempt is called between attempts and must return promptly: any
// time it spends is added to the caller's wait.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, outcome AttemptOutcome)
}

// Invoker walks the fallback chain. It holds no per-request state and is
// safe for concurrent use.
type Invoker struct {
	generators GeneratorSource
	recorder   AttemptRecorder
	logger     *zap.SugaredLogger
}

// InvokerOption configures an Invoker
type InvokerOption func(*Invoker)

// WithRecorder sends attempt outcomes to r
func WithRecorder(r AttemptRecorder) InvokerOption {
	return func(inv *Invoker) { inv.recorder = r }
}

// WithLogger sets the invoker logger
func WithLogger(l *zap.SugaredLogger) InvokerOption {
	return func(inv *Invoker) { inv.logger = l }
}

// NewInvoker creates an invoker over generators
func NewInvoker(generators GeneratorSource, opts ...InvokerOption) *Invoker {
	inv := &Invoker{generators: generators, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke tries each chain entry in order and returns the first non-empty
// text. Attempts never overlap; each one runs under its own deadline, so the
// call returns within the sum of the chain timeouts.
func (inv *Invoker) Invoke(ctx context.Context, prompt Prompt, chain []ModelAttempt) InvocationResult {
	log := logger.FromContext(ctx, inv.logger)

	var (
		attempts    []AttemptOutcome
		lastErr     error
		allTimeouts = true
	)

	for i, a := range chain {
		if err := ctx.Err(); err != nil {
			lastErr = errors.Wrap(err, "request ended before fallback chain finished")
			allTimeouts = allTimeouts && errors.IsTimeout(err)
			break
		}

		out, text := inv.attempt(ctx, i, prompt, a)
		attempts = append(attempts, out)
		if inv.recorder != nil {
			inv.recorder.RecordAttempt(ctx, out)
		}

		if out.OK() {
			log.Infow("Attempt succeeded",
				logger.FieldAttempt, i,
				logger.FieldProvider, a.Provider,
				logger.FieldModel, a.ModelID,
				logger.FieldDurationMS, out.Duration.Milliseconds())
			return InvocationResult{OK: true, Text: text, ModelUsed: a.ModelID, Attempts: attempts}
		}

		log.Warnw("Attempt failed, trying next model",
			logger.FieldAttempt, i,
			logger.FieldProvider, a.Provider,
			logger.FieldModel, a.ModelID,
			logger.FieldErrorKind, out.Failure,
			logger.FieldDurationMS, out.Duration.Milliseconds(),
			logger.FieldError, llm.Truncate(out.Err.Error(), 300))

		lastErr = out.Err
		if out.Failure != llm.FailureTimeout {
			allTimeouts = false
		}
	}

	kind := KindUpstreamExhausted
	if allTimeouts && len(attempts) > 0 {
		kind = KindUpstreamTimeout
	}
	if lastErr == nil {
		lastErr = errors.New("fallback chain is empty")
	}

	return InvocationResult{
		ErrorKind: kind,
		Err:       errors.Mark(errors.Wrapf(lastErr, "fallback chain exhausted after %d attempts", len(attempts)), errors.ErrUpstreamExhausted),
		Attempts:  attempts,
	}
}

type generation struct {
	resp *llm.Response
	err  error
}

// attempt runs one chain entry. The upstream call is raced against the
// attempt deadline so a generator that ignores its context still cannot
// hold the request past TimeoutMS.
func (inv *Invoker) attempt(ctx context.Context, idx int, prompt Prompt, a ModelAttempt) (out AttemptOutcome, text string) {
	out = AttemptOutcome{
		Index:     idx,
		Provider:  a.Provider,
		Model:     a.ModelID,
		StartedAt: time.Now(),
		TimeoutMS: a.TimeoutMS,
		MaxTokens: a.MaxOutputTokens,
	}
	defer func() {
		out.Duration = time.Since(out.StartedAt)
		if out.Err != nil {
			out.Failure = llm.Classify(out.Err)
		}
	}()

	label := fmt.Sprintf("attempt %d (%s/%s)", idx, a.Provider, a.ModelID)

	if a.TimeoutMS <= 0 {
		out.Err = errors.Newf("%s: timeout must be positive", label)
		return out, ""
	}

	gen, err := inv.generators.Lookup(a.Provider)
	if err != nil {
		out.Err = errors.Wrap(err, label)
		return out, ""
	}

	actx, cancel := context.WithTimeout(ctx, a.Timeout())
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: errors.Newf("generator panic: %v", r)}
			}
		}()
		resp, err := gen.Generate(actx, llm.Request{
			Model:        a.ModelID,
			SystemPrompt: prompt.SystemInstructions,
			UserPrompt:   prompt.UserContent,
			MaxTokens:    a.MaxOutputTokens,
		})
		done <- generation{resp: resp, err: err}
	}()

	var g generation
	select {
	case g = <-done:
	case <-actx.Done():
		g.err = actx.Err()
	}

	if g.err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			out.Err = errors.WrapTimeout(g.err, fmt.Sprintf("%s after %dms", label, a.TimeoutMS))
		} else {
			out.Err = errors.Wrap(g.err, label)
		}
		return out, ""
	}

	if g.resp == nil || strings.TrimSpace(g.resp.Text) == "" {
		out.Err = errors.Wrap(errors.ErrEmptyCompletion, label)
		return out, ""
	}

	out.Usage = g.resp.Usage
	return out, strings.TrimSpace(g.resp.Text)
}
