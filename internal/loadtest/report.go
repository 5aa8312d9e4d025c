package loadtest

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"
)

// CheckResult counts the outcomes of one named check.
type CheckResult struct {
	Name   string
	Passed int
	Failed int
}

// ThresholdResult is the verdict on one pass/fail criterion.
type ThresholdResult struct {
	Name   string
	Actual time.Duration
	Pass   bool
}

// Report summarises a run.
type Report struct {
	Duration   time.Duration
	Requests   int // responses received
	Failures   int // requests that got no response
	LastError  string
	MaxVUs     int
	Avg        time.Duration
	Min        time.Duration
	Med        time.Duration
	P90        time.Duration
	P95        time.Duration
	Max        time.Duration
	Checks     []CheckResult
	Thresholds []ThresholdResult
}

// Passed reports whether every threshold held.
func (r *Report) Passed() bool {
	for _, t := range r.Thresholds {
		if !t.Pass {
			return false
		}
	}
	return true
}

func (m *metrics) report(elapsed time.Duration, maxVUs int, budget time.Duration) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := slices.Clone(m.latencies)
	slices.Sort(sorted)
	rep := &Report{
		Duration: elapsed,
		Requests: len(sorted),
		Failures: m.failures,
		MaxVUs:   maxVUs,
	}
	if m.lastErr != nil {
		rep.LastError = m.lastErr.Error()
	}
	if len(sorted) > 0 {
		var sum time.Duration
		for _, d := range sorted {
			sum += d
		}
		rep.Avg = sum / time.Duration(len(sorted))
		rep.Min = sorted[0]
		rep.Max = sorted[len(sorted)-1]
		rep.Med = Percentile(sorted, 50)
		rep.P90 = Percentile(sorted, 90)
		rep.P95 = Percentile(sorted, 95)
	}
	for _, name := range []string{CheckStatus, CheckMarker} {
		rep.Checks = append(rep.Checks, *m.checks[name])
	}
	rep.Thresholds = []ThresholdResult{{
		Name:   fmt.Sprintf("http_req_duration p(95)<%s", budget),
		Actual: rep.P95,
		// no samples means nothing was measured, which is not a pass
		Pass: len(sorted) > 0 && rep.P95 < budget,
	}}
	return rep
}

// Percentile interpolates linearly between the closest ranks of sorted,
// which must be in ascending order.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + time.Duration(frac*float64(sorted[hi]-sorted[lo]))
}

// Write prints the report in a k6-like layout.
func (r *Report) Write(w io.Writer) error {
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}
	ew := &errWriter{w: w}
	for _, c := range r.Checks {
		ew.printf("     %s %s (%d passed, %d failed)\n", mark(c.Failed == 0 && c.Passed > 0), c.Name, c.Passed, c.Failed)
	}
	ew.printf("\n     http_reqs..........: %d\n", r.Requests)
	ew.printf("     http_req_failed....: %d\n", r.Failures)
	ew.printf("     http_req_duration..: avg=%s min=%s med=%s max=%s p(90)=%s p(95)=%s\n",
		round(r.Avg), round(r.Min), round(r.Med), round(r.Max), round(r.P90), round(r.P95))
	ew.printf("     vus_max............: %d\n", r.MaxVUs)
	ew.printf("     duration...........: %s\n\n", round(r.Duration))
	for _, t := range r.Thresholds {
		ew.printf("   %s %s (actual %s)\n", mark(t.Pass), t.Name, round(t.Actual))
	}
	if r.LastError != "" {
		ew.printf("\n   last error: %s\n", r.LastError)
	}
	return ew.err
}

func round(d time.Duration) time.Duration {
	if d > time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Microsecond)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
