package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/prepforge/prepforge/internal/logging"
)

// HealthChecker is the slice of the backend client the prober needs.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober determines backend reachability exactly once per client lifetime.
// The first Probe call performs a bounded health check and latches the
// answer; every later call returns the cached result. An unreachable
// verdict is final, so a backend that comes up mid-session is not picked up
// until the next invocation.
type Prober struct {
	checker HealthChecker
	timeout time.Duration
	log     *logging.Logger

	once      sync.Once
	available bool
}

// NewProber creates a prober with the given per-probe timeout.
func NewProber(checker HealthChecker, timeout time.Duration, log *logging.Logger) *Prober {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Prober{
		checker: checker,
		timeout: timeout,
		log:     log,
	}
}

// Probe reports whether the backend is reachable. Only the first call
// touches the network.
func (p *Prober) Probe(ctx context.Context) bool {
	p.once.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		start := time.Now()
		err := p.checker.Health(probeCtx)
		if err != nil {
			p.log.Warn("backend unavailable, using fallback for this run",
				"error", err, "elapsed", time.Since(start).String())
			return
		}
		p.available = true
		p.log.Debug("backend reachable", "elapsed", time.Since(start).String())
	})
	return p.available
}
