package reconcile

import (
	"time"

	"k8s.io/utils/ptr"

	"github.com/autopeer-io/efls/internal/bridge/core"
)

// Status is a point in time view of the orchestrator.
type Status struct {
	Session      string                 `json:"session"`
	Expected     int                    `json:"expected"`
	Received     int                    `json:"received"`
	TimeoutTicks int                    `json:"timeoutTicks"`
	JumpPending  bool                   `json:"jumpPending"`
	SpliceIndex  *uint16                `json:"spliceIndex,omitempty"`
	LastError    string                 `json:"lastError,omitempty"`
	Ticks        uint64                 `json:"ticks"`
	Telemetry    core.TelemetrySnapshot `json:"telemetry"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// Status returns the state published after the last tick or event.
func (o *Orchestrator) Status() Status {
	return *o.status.Load()
}

func (o *Orchestrator) publish() {
	st := &Status{
		Session:      string(o.session.Status()),
		Expected:     o.session.Expected(),
		Received:     o.session.Received(),
		TimeoutTicks: o.session.TimeoutTicks(),
		JumpPending:  o.jumpPending,
		Ticks:        o.ticks,
		Telemetry:    o.sink.Snapshot(),
		UpdatedAt:    o.clock.Now(),
	}
	if o.hasSpliced {
		st.SpliceIndex = ptr.To(o.spliceIndex)
	}
	if o.lastErr != nil {
		st.LastError = o.lastErr.Error()
	}
	o.status.Store(st)
}
