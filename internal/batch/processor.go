package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/nfesynth/internal/accesskey"
	"github.com/roach88/nfesynth/internal/clock"
	"github.com/roach88/nfesynth/internal/credential"
	"github.com/roach88/nfesynth/internal/document"
	"github.com/roach88/nfesynth/internal/metrics"
	"github.com/roach88/nfesynth/internal/region"
	"github.com/roach88/nfesynth/internal/store"
)

// CredentialValidator checks the credential a run is bound to.
type CredentialValidator interface {
	Validate(path, secret string) (*credential.Handle, error)
}

// RunRecorder persists finished run summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, r store.RunSummary) error
}

// Config holds the per-run settings.
type Config struct {
	CredentialPath   string
	CredentialSecret string

	// Region is the UF abbreviation; unknown values use region.Default.
	Region      string
	Environment document.Environment

	// VerifyCheckDigit turns check-digit mismatches into decode failures.
	VerifyCheckDigit bool

	// Workers bounds concurrent key processing. Values below 2 run sequentially.
	Workers int
}

// Outcome is the result of processing one key.
type Outcome struct {
	Index int
	Key   string
	Err   error
}

// OK reports whether the key was persisted.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result summarises a finished run.
type Result struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	// Total is the number of keys that reached processing.
	Total    int
	Success  int
	Errors   int
	Filtered int

	// Outcomes holds one entry per processed key, in input order.
	Outcomes []Outcome

	Credential *credential.Handle
	Region     region.Info
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock sets the clock used for document timestamps and run times.
func WithClock(c clock.Clock) Option {
	return func(p *Processor) { p.clock = c }
}

// WithRunIDGenerator overrides the default UUIDv7 run IDs.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(p *Processor) { p.ids = g }
}

// WithSynthesizer overrides the default synthesizer.
func WithSynthesizer(s *document.Synthesizer) Option {
	return func(p *Processor) { p.synth = s }
}

// WithMetrics records outcome counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithObserver registers fn to receive each outcome in input order.
// fn is never called concurrently.
func WithObserver(fn func(Outcome)) Option {
	return func(p *Processor) { p.observe = fn }
}

// WithStartHook registers fn to run once the credential is validated and
// before the first key is processed. The Result carries no outcomes yet.
func WithStartHook(fn func(*Result)) Option {
	return func(p *Processor) { p.onStart = fn }
}

// WithRunRecorder stores the run summary once the run finishes.
// Recording failures are logged and do not affect the result.
func WithRunRecorder(r RunRecorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// Processor runs one batch. A Processor is single-use.
type Processor struct {
	cfg      Config
	gate     CredentialValidator
	sink     store.Sink
	synth    *document.Synthesizer
	clock    clock.Clock
	ids      RunIDGenerator
	metrics  *metrics.Metrics
	observe  func(Outcome)
	onStart  func(*Result)
	recorder RunRecorder

	state atomic.Int32
}

// New creates a Processor.
func New(cfg Config, gate CredentialValidator, sink store.Sink, opts ...Option) *Processor {
	p := &Processor{
		cfg:   cfg,
		gate:  gate,
		sink:  sink,
		synth: document.NewSynthesizer(document.DefaultIssuer()),
		clock: clock.System{},
		ids:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.Environment == 0 {
		p.cfg.Environment = document.Production
	}
	return p
}

// State returns the current lifecycle state.
func (p *Processor) State() State {
	return State(p.state.Load())
}

func (p *Processor) transition(from, to State) bool {
	return p.state.CompareAndSwap(int32(from), int32(to))
}

// Run filters lines to access-key shape and processes the survivors.
func (p *Processor) Run(ctx context.Context, lines []string) (*Result, error) {
	return p.RunKeys(ctx, accesskey.FilterKeys(lines))
}

// RunKeys validates the credential and processes every key in list.
//
// A credential failure moves the processor to Aborted and returns the error
// with a nil Result: nothing is persisted. Otherwise the returned error is
// always nil; per-key failures are reported in Result.Outcomes.
func (p *Processor) RunKeys(ctx context.Context, list accesskey.KeyList) (*Result, error) {
	if !p.transition(StateNotStarted, StateCredentialPending) {
		return nil, ErrAlreadyRun
	}

	handle, err := p.gate.Validate(p.cfg.CredentialPath, p.cfg.CredentialSecret)
	if err != nil {
		p.state.Store(int32(StateAborted))
		slog.Error("credential validation failed, aborting run", "error", err)
		return nil, fmt.Errorf("credential validation failed: %w", err)
	}
	p.state.Store(int32(StateRunning))

	res := &Result{
		RunID:      p.ids.Generate(),
		Started:    p.clock.Now(),
		Total:      len(list.Keys),
		Filtered:   list.Filtered,
		Credential: handle,
		Region:     region.CodesFor(p.cfg.Region),
	}
	if !region.Known(p.cfg.Region) {
		slog.Warn("unknown region, using default", "region", p.cfg.Region, "default", res.Region.Abbreviation)
	}
	slog.Info("batch started",
		"run_id", res.RunID,
		"keys", len(list.Keys),
		"filtered", list.Filtered,
		"region", res.Region.Abbreviation,
		"environment", p.cfg.Environment.String(),
		"workers", p.workers(),
	)
	if p.metrics != nil {
		p.metrics.AddFiltered(list.Filtered)
	}
	if p.onStart != nil {
		p.onStart(res)
	}

	if p.workers() > 1 {
		res.Outcomes = p.runParallel(ctx, list.Keys)
	} else {
		res.Outcomes = p.runSequential(ctx, list.Keys)
	}

	for _, o := range res.Outcomes {
		if o.OK() {
			res.Success++
		} else {
			res.Errors++
		}
	}
	res.Finished = p.clock.Now()
	p.state.Store(int32(StateFinished))

	if p.metrics != nil {
		p.metrics.ObserveBatch(res.Finished.Sub(res.Started))
	}
	p.record(ctx, res)

	slog.Info("batch finished",
		"run_id", res.RunID,
		"success", res.Success,
		"errors", res.Errors,
		"filtered", res.Filtered,
	)
	return res, nil
}

func (p *Processor) workers() int {
	if p.cfg.Workers < 1 {
		return 1
	}
	return p.cfg.Workers
}

func (p *Processor) runSequential(ctx context.Context, keys []string) []Outcome {
	outcomes := make([]Outcome, len(keys))
	for i, raw := range keys {
		outcomes[i] = p.processKey(ctx, i, raw)
		p.emit(outcomes[i])
	}
	return outcomes
}

// runParallel processes keys on a bounded pool. Workers write disjoint
// slots of outcomes; the calling goroutine reorders completions so that
// emit sees input order.
func (p *Processor) runParallel(ctx context.Context, keys []string) []Outcome {
	outcomes := make([]Outcome, len(keys))
	done := make(chan int, len(keys))

	go func() {
		var g errgroup.Group
		g.SetLimit(p.workers())
		for i, raw := range keys {
			g.Go(func() error {
				outcomes[i] = p.processKey(ctx, i, raw)
				done <- i
				return nil
			})
		}
		_ = g.Wait() // Workers never return errors
		close(done)
	}()

	ready := make([]bool, len(keys))
	next := 0
	for i := range done {
		ready[i] = true
		for next < len(keys) && ready[next] {
			p.emit(outcomes[next])
			next++
		}
	}
	return outcomes
}

// processKey is the per-key failure boundary. It never panics and never
// returns anything but an Outcome.
func (p *Processor) processKey(ctx context.Context, index int, raw string) (out Outcome) {
	out = Outcome{Index: index, Key: raw}

	defer func() {
		if r := recover(); r != nil {
			out.Err = &ItemError{Code: ErrCodePanic, Key: raw, Err: &PanicError{Value: r}}
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = &ItemError{Code: ErrCodeCanceled, Key: raw, Err: err}
		return out
	}

	key, err := accesskey.Decode(raw)
	if err != nil {
		out.Err = &ItemError{Code: ErrCodeDecodeFailed, Key: raw, Err: err}
		return out
	}
	if p.cfg.VerifyCheckDigit {
		if err := key.Verify(); err != nil {
			out.Err = &ItemError{Code: ErrCodeDecodeFailed, Key: raw, Err: err}
			return out
		}
	}

	info := region.CodesFor(p.cfg.Region)

	doc, err := p.synth.Synthesize(key, info, p.cfg.Environment, p.clock.Now())
	if err != nil {
		out.Err = &ItemError{Code: ErrCodeSynthesisFailed, Key: raw, Err: err}
		return out
	}

	if err := p.sink.Put(ctx, doc.Key, doc.Content); err != nil {
		out.Err = &ItemError{Code: ErrCodePersistFailed, Key: raw, Err: err}
		return out
	}

	return out
}

func (p *Processor) emit(o Outcome) {
	if o.OK() {
		slog.Debug("document persisted", "key", o.Key)
	} else {
		slog.Warn("key failed", "key", o.Key, "code", CodeOf(o.Err), "error", o.Err)
	}

	if p.metrics != nil {
		if o.OK() {
			p.metrics.IncrementSuccess()
		} else {
			p.metrics.IncrementError()
		}
	}
	if p.observe != nil {
		p.observe(o)
	}
}

func (p *Processor) record(ctx context.Context, res *Result) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.RecordRun(context.WithoutCancel(ctx), store.RunSummary{
		ID:         res.RunID,
		StartedAt:  res.Started,
		FinishedAt: res.Finished,
		Success:    res.Success,
		Errors:     res.Errors,
		Filtered:   res.Filtered,
	})
	if err != nil {
		slog.Error("failed to record run", "run_id", res.RunID, "error", err)
	}
}
