package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ReconcileOptions)(nil)

// ReconcileOptions tunes the mission reconciliation loop.
type ReconcileOptions struct {
	// TickInterval is the period of the reconciliation tick.
	TickInterval time.Duration `json:"tick-interval" mapstructure:"tick-interval"`

	// FetchTimeoutTicks is how many incomplete ticks a mission download may
	// accumulate; the download is abandoned once the count exceeds it.
	FetchTimeoutTicks int `json:"fetch-timeout-ticks" mapstructure:"fetch-timeout-ticks"`

	// Frame is the MAV_FRAME assigned to landing items built from a plan.
	Frame uint8 `json:"frame" mapstructure:"frame"`

	// EventBuffer is the capacity of the vehicle event queue.
	EventBuffer int `json:"event-buffer" mapstructure:"event-buffer"`

	// CommandTimeout bounds each vehicle command and exchange call of a tick.
	CommandTimeout time.Duration `json:"command-timeout" mapstructure:"command-timeout"`
}

// NewReconcileOptions creates a ReconcileOptions object with default parameters.
func NewReconcileOptions() *ReconcileOptions {
	return &ReconcileOptions{
		TickInterval:      time.Second,
		FetchTimeoutTicks: 3,
		Frame:             3, // MAV_FRAME_GLOBAL_RELATIVE_ALT
		EventBuffer:       256,
		CommandTimeout:    5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *ReconcileOptions) Validate() []error {
	var errors []error

	if o.TickInterval <= 0 {
		errors = append(errors, fmt.Errorf("--reconcile.tick-interval must be positive"))
	}
	if o.FetchTimeoutTicks < 0 {
		errors = append(errors, fmt.Errorf("--reconcile.fetch-timeout-ticks must not be negative"))
	}
	if o.EventBuffer <= 0 {
		errors = append(errors, fmt.Errorf("--reconcile.event-buffer must be positive"))
	}
	if o.CommandTimeout <= 0 {
		errors = append(errors, fmt.Errorf("--reconcile.command-timeout must be positive"))
	}

	return errors
}

// AddFlags adds flags related to reconciliation to the specified FlagSet.
func (o *ReconcileOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.TickInterval, "reconcile.tick-interval", o.TickInterval, "Period of the reconciliation tick.")
	fs.IntVar(&o.FetchTimeoutTicks, "reconcile.fetch-timeout-ticks", o.FetchTimeoutTicks, "Incomplete ticks tolerated before a mission download is retried.")
	fs.Uint8Var(&o.Frame, "reconcile.frame", o.Frame, "MAV_FRAME of the landing items built from a plan.")
	fs.IntVar(&o.EventBuffer, "reconcile.event-buffer", o.EventBuffer, "Capacity of the vehicle event queue.")
	fs.DurationVar(&o.CommandTimeout, "reconcile.command-timeout", o.CommandTimeout, "Upper bound of each vehicle command and exchange call.")
}
