// Package health probes the external collaborators independently so one
// hung dependency cannot mask the state of the others.
package health

import (
	"context"
	"sync"
	"time"
)

// Probe is a liveness check against one collaborator.
type Probe func(ctx context.Context) error

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Report aggregates the probe outcomes. Healthy is true only when every
// probe succeeded.
type Report struct {
	Healthy  bool
	Services map[string]string
	Errors   map[string]string
}

// Aggregator runs each registered probe under its own bounded timeout.
type Aggregator struct {
	timeout time.Duration

	mu     sync.Mutex
	probes map[string]Probe
}

func NewAggregator(timeout time.Duration) *Aggregator {
	return &Aggregator{
		timeout: timeout,
		probes:  make(map[string]Probe),
	}
}

// RegisterProbe adds a named collaborator check. Registration happens at
// wiring time, before the aggregator serves traffic.
func (a *Aggregator) RegisterProbe(name string, probe Probe) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes[name] = probe
}

// Check runs all probes concurrently, each under its own timeout, and
// reports every outcome independently.
func (a *Aggregator) Check(ctx context.Context) Report {
	a.mu.Lock()
	probes := make(map[string]Probe, len(a.probes))
	for name, probe := range a.probes {
		probes[name] = probe
	}
	a.mu.Unlock()

	report := Report{
		Healthy:  true,
		Services: make(map[string]string, len(probes)),
		Errors:   make(map[string]string),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			err := probe(probeCtx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Healthy = false
				report.Services[name] = StatusDisconnected
				report.Errors[name] = err.Error()
				return
			}
			report.Services[name] = StatusConnected
		}(name, probe)
	}
	wg.Wait()
	return report
}
