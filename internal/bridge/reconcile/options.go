package reconcile

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/bridge/fetch"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTickInterval sets the period of the reconciliation tick.
func WithTickInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithFetchTimeoutTicks sets how many incomplete ticks a mission download may take.
func WithFetchTimeoutTicks(n int) Option {
	return func(o *Orchestrator) {
		o.session = fetch.NewSession(n)
	}
}

// WithFrame sets the MAV_FRAME of the landing items built from a plan.
func WithFrame(frame uint8) Option {
	return func(o *Orchestrator) {
		o.frame = frame
	}
}

// WithEventBuffer sets the capacity of the vehicle event queue.
func WithEventBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.events = make(chan core.Event, n)
		}
	}
}

// WithCommandTimeout bounds every vehicle command and exchange channel call
// made from the loop.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.commandTimeout = d
		}
	}
}

// WithClock sets the clock driving the tick and stamping telemetry.
func WithClock(c clock.WithTicker) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}
