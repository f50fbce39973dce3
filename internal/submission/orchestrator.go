package submission

import (
	"context"
	"errors"
	"slices"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

var ErrEmptyPlan = errors.New("submission: plan has no calls")

const (
	TextCodeFailed        = "SUBMISSION_FAILED"
	DefaultSuccessMessage = "Saved successfully"
	defaultWorkers        = 4
)

// Result is the outcome of one call.
type Result struct {
	Call     Call
	Err      error
	Duration time.Duration
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report is the single aggregate outcome of a plan. Redirect is only meant to
// be followed when OK.
type Report struct {
	Plan     string
	Results  []Result
	Err      error
	Message  string
	Redirect string
}

// OK reports whether every call succeeded.
func (r Report) OK() bool {
	return r.Err == nil
}

// Failed returns the calls that did not succeed, keys included.
func (r Report) Failed() []Call {
	var out []Call
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res.Call)
		}
	}
	return out
}

// Succeeded returns the number of calls that completed.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Orchestrator issues the calls of a plan concurrently, awaits them jointly
// and reports one outcome.
type Orchestrator struct {
	workers  int
	timeout  time.Duration
	notifier interfaces.Notifier
	logger   interfaces.Logger
	fallback string
	newKey   func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds the number of calls in flight.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTimeout bounds a whole plan execution.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = timeout
	}
}

// WithNotifier sets where the outcome toast goes.
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = notifier
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFallbackMessage sets the toast used when a failure carries no message.
func WithFallbackMessage(message string) Option {
	return func(o *Orchestrator) {
		if message != "" {
			o.fallback = message
		}
	}
}

// WithKeyGenerator overrides idempotency key generation.
func WithKeyGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newKey = fn
		}
	}
}

// New creates an orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		workers:  defaultWorkers,
		logger:   logging.NoOp(),
		fallback: apiclient.DefaultFallbackMessage,
		newKey:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Execute runs every call of plan. Calls without a key get one derived from
// the plan token, or a fresh one when the plan has none, so a later Retry or
// a resubmission with the same token can replay them safely.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) Report {
	if plan == nil || len(plan.Calls) == 0 {
		return Report{Err: ErrEmptyPlan, Message: o.fallback}
	}
	calls := slices.Clone(plan.Calls)
	seen := make(map[string]int, len(calls))
	for i := range calls {
		if calls[i].Key != "" {
			continue
		}
		if plan.Token == "" {
			calls[i].Key = o.newKey()
			continue
		}
		label := calls[i].Label()
		calls[i].Key = callKey(plan.Token, calls[i], seen[label])
		seen[label]++
	}
	report := Report{Plan: plan.Name, Redirect: plan.Redirect}
	report.Results = o.run(ctx, plan.Name, calls)
	return o.finish(ctx, report, plan.SuccessMessage)
}

// Retry re-issues only the failed calls of report with their original keys.
// Calls that already succeeded are not repeated.
func (o *Orchestrator) Retry(ctx context.Context, report Report) Report {
	var (
		indexes []int
		calls   []Call
	)
	for i, res := range report.Results {
		if !res.OK() {
			indexes = append(indexes, i)
			calls = append(calls, res.Call)
		}
	}
	if len(calls) == 0 {
		return report
	}

	retried := o.run(ctx, report.Plan, calls)
	next := Report{
		Plan:     report.Plan,
		Redirect: report.Redirect,
		Results:  slices.Clone(report.Results),
	}
	for i, idx := range indexes {
		next.Results[idx] = retried[i]
	}
	return o.finish(ctx, next, "")
}

func (o *Orchestrator) run(ctx context.Context, name string, calls []Call) []Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	logger := logging.WithFields(o.logger.WithContext(ctx), map[string]any{"plan": name})
	results := make([]Result, len(calls))
	p := pool.New().WithMaxGoroutines(o.workers).WithContext(ctx)
	for i, call := range calls {
		p.Go(func(ctx context.Context) error {
			started := time.Now()
			err := call.Run(ctx, call.Key)
			results[i] = Result{Call: call, Err: err, Duration: time.Since(started)}
			if err != nil {
				logger.Warn("submission.call.failed", "call", call.Label(), "key", call.Key, "error", err)
				return err
			}
			logger.Debug("submission.call.completed", "call", call.Label())
			return nil
		})
	}
	_ = p.Wait()
	return results
}

func (o *Orchestrator) finish(ctx context.Context, report Report, success string) Report {
	collector := goerrors.NewCollector(goerrors.WithMaxErrors(len(report.Results) + 1))
	var first error
	for _, res := range report.Results {
		if res.Err == nil {
			continue
		}
		if first == nil {
			first = res.Err
		}
		collector.Add(res.Err)
	}

	if !collector.HasErrors() {
		if success == "" {
			success = DefaultSuccessMessage
		}
		report.Message = success
		o.notify(ctx, interfaces.Toast{Level: interfaces.ToastSuccess, Message: success})
		o.logger.Info("submission.completed", "plan", report.Plan, "calls", len(report.Results))
		return report
	}

	merged := collector.Merge().
		WithTextCode(TextCodeFailed).
		WithMetadata(map[string]any{
			"plan":      report.Plan,
			"failed":    collector.Count(),
			"succeeded": report.Succeeded(),
		})
	report.Err = merged
	report.Message = apiclient.ErrorMessage(first, o.fallback)
	o.notify(ctx, interfaces.Toast{Level: interfaces.ToastError, Message: report.Message})
	o.logger.Error("submission.failed", "plan", report.Plan, "failed", collector.Count(), "error", merged)
	return report
}

func (o *Orchestrator) notify(ctx context.Context, toast interfaces.Toast) {
	if o.notifier != nil {
		o.notifier.Notify(ctx, toast)
	}
}
