// Package loadtest drives ramping virtual users against the booking
// site's home page.  Every iteration fetches the page, checks the status
// and the site name, records the latency and pauses for the think time.
// The run passes when the 95th percentile latency stays under budget.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Check names as shown in the report.
const (
	CheckStatus = "status is 200"
	CheckMarker = "page contains marker"
)

// Options configures a run.  Zero values fall back to the defaults of
// the booking site's load test.
type Options struct {
	URL       string
	Marker    string
	Stages    []Stage
	StartVUs  int
	P95Budget time.Duration
	ThinkTime time.Duration
	Client    *http.Client
	Clock     clockwork.Clock
	Logger    *slog.Logger
	// Tick is how often the user count is adjusted.
	Tick time.Duration
}

// Runner executes one load test.
type Runner struct {
	opts    Options
	metrics *metrics
}

func New(opts Options) (*Runner, error) {
	if opts.URL == "" {
		return nil, errors.New("loadtest: URL is required")
	}
	if opts.Marker == "" {
		opts.Marker = "CINEMA X1X"
	}
	if len(opts.Stages) == 0 {
		opts.Stages = DefaultStages()
	}
	if opts.P95Budget <= 0 {
		opts.P95Budget = 500 * time.Millisecond
	}
	if opts.ThinkTime < 0 {
		opts.ThinkTime = 0
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tick <= 0 {
		opts.Tick = 100 * time.Millisecond
	}
	return &Runner{opts: opts, metrics: newMetrics()}, nil
}

// vu is one running virtual user.
type vu struct {
	stop chan struct{}
}

// Run blocks until every stage has finished and the remaining users have
// completed their iteration.  A cancelled ctx ends the run early; the
// partial report is returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	o := r.opts
	g, gctx := errgroup.WithContext(ctx)
	var active []*vu
	maxVUs := 0

	scale := func(target int) {
		for len(active) < target {
			u := &vu{stop: make(chan struct{})}
			active = append(active, u)
			g.Go(func() error {
				r.loop(gctx, u)
				return nil
			})
		}
		for len(active) > target {
			last := active[len(active)-1]
			close(last.stop)
			active = active[:len(active)-1]
		}
		maxVUs = max(maxVUs, len(active))
	}

	o.Logger.Info("load test starting", "url", o.URL, "duration", TotalDuration(o.Stages))
	start := o.Clock.Now()
	ticker := o.Clock.NewTicker(o.Tick)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		target, done := TargetAt(o.Stages, o.StartVUs, o.Clock.Since(start))
		if done {
			break
		}
		scale(target)
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		case <-ticker.Chan():
		}
	}
	scale(0)
	_ = g.Wait()

	rep := r.metrics.report(o.Clock.Since(start), maxVUs, o.P95Budget)
	o.Logger.Info("load test finished", "requests", rep.Requests, "p95", rep.P95, "passed", rep.Passed())
	return rep, runErr
}

func (r *Runner) loop(ctx context.Context, u *vu) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.stop:
			return
		default:
		}
		r.iterate(ctx)
		if r.opts.ThinkTime == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-u.stop:
			return
		case <-r.opts.Clock.After(r.opts.ThinkTime):
		}
	}
}

func (r *Runner) iterate(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.URL, nil)
	if err != nil {
		r.metrics.failure(err)
		return
	}
	began := r.opts.Clock.Now()
	resp, err := r.opts.Client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			r.metrics.failure(err)
		}
		return
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	elapsed := r.opts.Clock.Since(began)
	if err != nil {
		r.metrics.failure(fmt.Errorf("read body: %w", err))
		return
	}
	r.metrics.sample(elapsed, map[string]bool{
		CheckStatus: resp.StatusCode == http.StatusOK,
		CheckMarker: strings.Contains(string(body), r.opts.Marker),
	})
}

type metrics struct {
	mu        sync.Mutex
	latencies []time.Duration
	checks    map[string]*CheckResult
	failures  int
	lastErr   error
}

func newMetrics() *metrics {
	return &metrics{checks: map[string]*CheckResult{
		CheckStatus: {Name: CheckStatus},
		CheckMarker: {Name: CheckMarker},
	}}
}

func (m *metrics) sample(d time.Duration, checks map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, d)
	for name, ok := range checks {
		c := m.checks[name]
		if ok {
			c.Passed++
		} else {
			c.Failed++
		}
	}
}

func (m *metrics) failure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	m.lastErr = err
}
