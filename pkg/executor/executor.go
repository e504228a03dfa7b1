// Package executor runs compiled plans: one request per execution, rows
// drained from the root operator, metrics and logs recorded per request.
package executor

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/execution"
	"recsrc/pkg/logging"
	"recsrc/pkg/metrics"
	"recsrc/pkg/plan"
	"recsrc/pkg/request"
)

// Result is the output of one execution.
type Result struct {
	RequestID string
	Columns   []string
	Rows      []execution.Row
	Elapsed   time.Duration
}

// Executor executes one compiled plan, possibly many times concurrently.
type Executor struct {
	compiled    *plan.Compiled
	metrics     *metrics.Metrics
	parallelism int
}

type Option func(*Executor)

// WithMetrics records every execution in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithParallelism bounds how many requests ExecuteConcurrent runs at once.
func WithParallelism(n int) Option {
	return func(e *Executor) { e.parallelism = n }
}

func New(compiled *plan.Compiled, opts ...Option) (*Executor, error) {
	if compiled == nil || compiled.Root == nil || compiled.Layout == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "executor needs a compiled plan").
			WithOperation("New", "Executor")
	}

	e := &Executor{
		compiled:    compiled,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallelism < 1 {
		e.parallelism = 1
	}
	return e, nil
}

// Execute runs the plan once under ctx. Errors from closing the plan are
// merged with any error raised while pulling rows.
func (e *Executor) Execute(ctx context.Context) (*Result, error) {
	req := request.New(ctx, e.compiled.Layout)
	log := logging.WithRequest(req.ID()).With("plan", e.compiled.Name, "component", "executor")
	start := time.Now()

	if e.metrics != nil {
		e.metrics.InFlight.Inc()
		defer e.metrics.InFlight.Dec()
	}

	log.Debugw("opening plan")
	rows, err := e.run(req)
	elapsed := time.Since(start)

	e.observe(len(rows), elapsed, err)
	if err != nil {
		log.Warnw("execution failed", "error", err, "elapsed", elapsed)
		return nil, errors.Wrapf(err, "execute plan %q", e.compiled.Name)
	}

	log.Debugw("execution finished", "rows", len(rows), "elapsed", elapsed)
	return &Result{
		RequestID: req.ID(),
		Columns:   e.compiled.Columns,
		Rows:      rows,
		Elapsed:   elapsed,
	}, nil
}

func (e *Executor) run(req *request.Request) ([]execution.Row, error) {
	root := e.compiled.Root

	if err := root.Open(req); err != nil {
		var result error
		result = multierror.Append(result, err)
		if cerr := root.Close(req); cerr != nil {
			result = multierror.Append(result, cerr)
		}
		return nil, flatten(result)
	}

	var result error
	rows, err := execution.Collect(req, root, e.compiled.Streams...)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if cerr := root.Close(req); cerr != nil {
		result = multierror.Append(result, cerr)
	}
	if result != nil {
		return nil, flatten(result)
	}
	return rows, nil
}

// flatten unwraps a single-error multierror so callers see the original.
func flatten(err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return err
}

// ExecuteConcurrent runs the plan n times, at most parallelism at once, each
// execution under its own request. The first failure cancels the rest.
func (e *Executor) ExecuteConcurrent(ctx context.Context, n int) ([]*Result, error) {
	if n < 1 {
		return nil, nil
	}

	results := make([]*Result, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			res, err := e.Execute(gctx)
			if err != nil {
				return errors.Wrapf(err, "execution %d", i)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.WithPlan(e.compiled.Name).Infow("concurrent execution finished",
		"component", "executor", "executions", n, "parallelism", e.parallelism)
	return results, nil
}

func (e *Executor) observe(rows int, elapsed time.Duration, err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.Observe(e.compiled.Name, status(err), rows, elapsed)
}

func status(err error) string {
	switch {
	case err == nil:
		return metrics.StatusOK
	case dberror.HasCode(err, dberror.CodeCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusCancelled
	default:
		return metrics.StatusError
	}
}
