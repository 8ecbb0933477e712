// Package health probes the server's dependencies for the HTTP and gRPC
// health endpoints.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	ServiceUp   = "healthy"
	ServiceDown = "unhealthy"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function, e.g. (*sql.DB).PingContext, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Report struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (r Report) Healthy() bool { return r.Status == StatusOK }

// Checker pings every registered dependency concurrently, each bounded by
// timeout.
type Checker struct {
	deps    map[string]Pinger
	timeout time.Duration
	now     func() time.Time
}

func NewChecker(timeout time.Duration) *Checker {
	return &Checker{deps: map[string]Pinger{}, timeout: timeout, now: time.Now}
}

// Add registers a dependency under name. Call before the first Check.
func (c *Checker) Add(name string, p Pinger) *Checker {
	c.deps[name] = p
	return c
}

func (c *Checker) Names() []string {
	names := make([]string, 0, len(c.deps))
	for n := range c.deps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Checker) Check(ctx context.Context) Report {
	rep := Report{Status: StatusOK, Timestamp: c.now().UTC(), Services: make(map[string]string, len(c.deps))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range c.deps {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			state := ServiceUp
			if err := p.Ping(pctx); err != nil {
				state = ServiceDown
			}

			mu.Lock()
			rep.Services[name] = state
			if state == ServiceDown {
				rep.Status = StatusDegraded
			}
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	return rep
}

// Ready reports whether all dependencies answer.
func (c *Checker) Ready(ctx context.Context) bool {
	return c.Check(ctx).Healthy()
}
