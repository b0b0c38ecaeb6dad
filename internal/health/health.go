// Package health runs readiness probes against the client's dependencies.
package health

import (
	"context"
	"time"
)

const defaultProbeTimeout = 5 * time.Second

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// Result is the outcome of one probe.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// OK reports whether the probe passed.
func (r Result) OK() bool { return r.Err == nil }

// Checker runs named probes in registration order.
type Checker struct {
	Timeout time.Duration
	names   []string
	probes  []Probe
}

// Add registers probe under name.
func (c *Checker) Add(name string, probe Probe) {
	c.names = append(c.names, name)
	c.probes = append(c.probes, probe)
}

// Run executes every probe, each bounded by Timeout, and returns the results in order.
func (c *Checker) Run(ctx context.Context) []Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	out := make([]Result, 0, len(c.probes))
	for i, probe := range c.probes {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := probe(pctx)
		cancel()
		out = append(out, Result{Name: c.names[i], Err: err, Duration: time.Since(start)})
	}
	return out
}

// Healthy reports whether every result passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}
