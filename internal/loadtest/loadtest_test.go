package loadtest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStages(t *testing.T) {
	got, err := ParseStages("10s:20, 30s:20,5s:0")
	require.NoError(t, err)
	assert.Equal(t, DefaultStages(), got)
	assert.Equal(t, 45*time.Second, TotalDuration(got))

	for _, bad := range []string{"", "10s", "ten:20", "10s:-1", "10s:x", "-1s:3"} {
		_, err := ParseStages(bad)
		assert.Error(t, err, bad)
	}
}

func TestTargetAt(t *testing.T) {
	stages := DefaultStages()
	cases := []struct {
		elapsed time.Duration
		target  int
		done    bool
	}{
		{0, 0, false},
		{5 * time.Second, 10, false},
		{10 * time.Second, 20, false},
		{25 * time.Second, 20, false},
		{40 * time.Second, 20, false},
		{42500 * time.Millisecond, 10, false},
		{45 * time.Second, 0, true},
		{time.Minute, 0, true},
	}
	for _, tc := range cases {
		target, done := TargetAt(stages, 0, tc.elapsed)
		assert.Equal(t, tc.target, target, "at %s", tc.elapsed)
		assert.Equal(t, tc.done, done, "at %s", tc.elapsed)
	}

	target, _ := TargetAt([]Stage{{Duration: 10 * time.Second, Target: 11}}, 1, 5*time.Second)
	assert.Equal(t, 6, target)
}

func TestPercentile(t *testing.T) {
	var s []time.Duration
	for i := 1; i <= 100; i++ {
		s = append(s, time.Duration(i)*time.Millisecond)
	}
	assert.Equal(t, 50500*time.Microsecond, Percentile(s, 50))
	assert.InDelta(t, float64(95050*time.Microsecond), float64(Percentile(s, 95)), float64(time.Microsecond))
	assert.Equal(t, 100*time.Millisecond, Percentile(s, 100))
	assert.Equal(t, time.Duration(0), Percentile(nil, 95))
	assert.Equal(t, 7*time.Millisecond, Percentile([]time.Duration{7 * time.Millisecond}, 95))
}

func shortRun(url string, budget time.Duration) Options {
	return Options{
		URL: url,
		Stages: []Stage{
			{Duration: 150 * time.Millisecond, Target: 3},
			{Duration: 150 * time.Millisecond, Target: 3},
			{Duration: 100 * time.Millisecond, Target: 0},
		},
		StartVUs:  1,
		P95Budget: budget,
		ThinkTime: 10 * time.Millisecond,
		Tick:      10 * time.Millisecond,
	}
}

func TestRunPasses(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<h1>CINEMA X1X</h1>"))
	}))
	defer srv.Close()

	r, err := New(shortRun(srv.URL, 500*time.Millisecond))
	require.NoError(t, err)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rep.Passed())
	assert.Equal(t, int(hits.Load()), rep.Requests)
	assert.Greater(t, rep.Requests, 3)
	assert.Zero(t, rep.Failures)
	assert.Equal(t, 3, rep.MaxVUs)
	for _, c := range rep.Checks {
		assert.Equal(t, rep.Requests, c.Passed, c.Name)
		assert.Zero(t, c.Failed, c.Name)
	}

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	assert.Contains(t, buf.String(), "✓ status is 200")
	assert.Contains(t, buf.String(), "✓ http_req_duration p(95)<500ms")
}

func TestRunFailsChecksAndThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Millisecond)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, err := New(shortRun(srv.URL, time.Millisecond))
	require.NoError(t, err)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, rep.Passed())
	for _, c := range rep.Checks {
		assert.Zero(t, c.Passed, c.Name)
		assert.Equal(t, rep.Requests, c.Failed, c.Name)
	}
	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	assert.Contains(t, buf.String(), "✗ page contains marker")
	assert.Contains(t, buf.String(), "✗ http_req_duration p(95)<1ms")
}

func TestRunUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, err := New(shortRun(url, 500*time.Millisecond))
	require.NoError(t, err)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Requests)
	assert.Greater(t, rep.Failures, 0)
	assert.NotEmpty(t, rep.LastError)
	assert.False(t, rep.Passed(), "no samples is not a pass")
}

func TestRunCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("CINEMA X1X"))
	}))
	defer srv.Close()

	opts := shortRun(srv.URL, time.Second)
	opts.Stages = []Stage{{Duration: time.Hour, Target: 2}}
	r, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	rep, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, rep)
	assert.Less(t, rep.Duration, time.Minute)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
