package loadtest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stage ramps the number of virtual users linearly to Target over
// Duration.
type Stage struct {
	Duration time.Duration
	Target   int
}

// DefaultStages ramps up to 20 users in 10s, holds them for 30s and ramps
// down to zero in 5s.
func DefaultStages() []Stage {
	return []Stage{
		{Duration: 10 * time.Second, Target: 20},
		{Duration: 30 * time.Second, Target: 20},
		{Duration: 5 * time.Second, Target: 0},
	}
}

// ParseStages reads a comma separated list of duration:target pairs such
// as "10s:20,30s:20,5s:0".
func ParseStages(s string) ([]Stage, error) {
	var out []Stage
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dur, target, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("stage %q: want duration:target", part)
		}
		d, err := time.ParseDuration(strings.TrimSpace(dur))
		if err != nil || d < 0 {
			return nil, fmt.Errorf("stage %q: bad duration", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(target))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("stage %q: bad target", part)
		}
		out = append(out, Stage{Duration: d, Target: n})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no stages in %q", s)
	}
	return out, nil
}

// TotalDuration is the sum of the stage durations.
func TotalDuration(stages []Stage) time.Duration {
	var d time.Duration
	for _, s := range stages {
		d += s.Duration
	}
	return d
}

// TargetAt returns how many users should be running elapsed into the
// test, interpolating from start within the current stage.  done reports
// that every stage has finished.
func TargetAt(stages []Stage, start int, elapsed time.Duration) (target int, done bool) {
	from := start
	for _, s := range stages {
		if elapsed < s.Duration {
			delta := int64(s.Target-from) * int64(elapsed) / int64(s.Duration)
			return from + int(delta), false
		}
		elapsed -= s.Duration
		from = s.Target
	}
	return from, true
}
