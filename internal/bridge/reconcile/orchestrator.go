// Package reconcile drives the replacement of the vehicle landing sequence with
// the plans computed by EFLS.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/bridge/fetch"
	"github.com/autopeer-io/efls/internal/bridge/splice"
	"github.com/autopeer-io/efls/internal/bridge/telemetry"
	"github.com/autopeer-io/efls/internal/pkg/metrics"
	"github.com/autopeer-io/efls/pkg/log"
)

const (
	defaultTickInterval   = time.Second
	defaultEventBuffer    = 256
	defaultCommandTimeout = 5 * time.Second
)

var _ core.Receiver = (*Orchestrator)(nil)

// Orchestrator owns the fetch session and the telemetry sink. Tick and Apply
// must be called from one goroutine; Start does so. Post and Status are safe
// for concurrent use.
type Orchestrator struct {
	vehicle core.VehicleMissionService
	channel core.ExchangeChannel

	sink    *telemetry.Sink
	session *fetch.Session
	engine  *splice.Engine
	frame   uint8

	clock          clock.WithTicker
	interval       time.Duration
	commandTimeout time.Duration
	events         chan core.Event

	jumpPending bool
	spliceIndex uint16
	hasSpliced  bool
	lastErr     error
	ticks       uint64

	status  atomic.Pointer[Status]
	running atomic.Bool
}

// New returns an Orchestrator reconciling the mission of vehicle with the
// plans read from channel.
func New(vehicle core.VehicleMissionService, channel core.ExchangeChannel, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		vehicle:        vehicle,
		channel:        channel,
		session:        fetch.NewSession(fetch.DefaultTimeoutTicks),
		frame:          core.FrameGlobalRelativeAlt,
		clock:          clock.RealClock{},
		interval:       defaultTickInterval,
		commandTimeout: defaultCommandTimeout,
		events:         make(chan core.Event, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sink = telemetry.NewSink(telemetry.WithClock(o.clock))
	o.engine = splice.NewEngine(splice.WithFrame(o.frame))
	o.publish()
	return o
}

// Post queues a vehicle event for the control loop. It never blocks and
// reports false when the queue is full.
func (o *Orchestrator) Post(ev core.Event) bool {
	select {
	case o.events <- ev:
		return true
	default:
		metrics.DroppedEvents.Inc()
		return false
	}
}

// Start runs the control loop until ctx is done. Ticks, queued events and
// inbound change notifications are handled strictly one at a time.
func (o *Orchestrator) Start(ctx context.Context) error {
	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	var changes <-chan struct{}
	if n, ok := o.channel.(core.ChangeNotifier); ok {
		changes = n.Changes()
	}

	o.running.Store(true)
	defer o.running.Store(false)
	log.Info("Reconciliation loop started", "interval", o.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Reconciliation loop stopped")
			return nil
		case ev := <-o.events:
			o.Apply(ctx, ev)
		case <-ticker.C():
			o.Tick(ctx)
		case <-changes:
			if o.session.Status() == fetch.StatusIdle {
				log.Debug("Inbound plan changed, ticking early")
				o.Tick(ctx)
			}
		}
	}
}

// Running reports whether the control loop is active.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Apply handles one vehicle event.
func (o *Orchestrator) Apply(ctx context.Context, ev core.Event) {
	defer o.publish()
	before := o.session.Status()

	switch e := ev.(type) {
	case core.TelemetryEvent:
		o.sink.Update(e.Update)
	case core.MissionCountEvent:
		if err := o.session.OnCount(ctx, e.Count); err != nil {
			log.Error(err, "Failed to record MISSION_COUNT", "count", e.Count)
		}
		log.Debug("Mission count received", "count", e.Count, "session", o.session.Status())
		o.observeComplete(before)
	case core.MissionItemEvent:
		if err := o.session.OnItem(ctx, e.Item); err != nil {
			o.fail(err)
			if errors.Is(err, core.ErrProtocolAnomaly) {
				log.Warn("Abandoning mission download", "reason", err.Error())
				metrics.FetchAttempts.WithLabelValues("anomaly").Inc()
			} else {
				log.Error(err, "Failed to record MISSION_ITEM", "seq", e.Item.Seq)
			}
		}
		o.observeComplete(before)
	}
}

func (o *Orchestrator) observeComplete(before fetch.Status) {
	if before != fetch.StatusComplete && o.session.IsComplete() {
		log.Info("Mission download complete", "items", o.session.Received())
		metrics.FetchAttempts.WithLabelValues("complete").Inc()
	}
}

// Tick runs one reconciliation step.
func (o *Orchestrator) Tick(ctx context.Context) {
	o.ticks++
	metrics.ReconcileTicks.Inc()
	defer o.publish()

	if o.jumpPending {
		err := o.bounded(ctx, func(ctx context.Context) error {
			return o.vehicle.SetCurrentItem(ctx, o.spliceIndex)
		})
		if err != nil {
			o.fail(err)
			log.Error(err, "Failed to command jump to landing sequence", "seq", o.spliceIndex)
		} else {
			o.jumpPending = false
			log.Info("Commanded jump to landing sequence", "seq", o.spliceIndex)
		}
	}

	snap := o.sink.Snapshot()
	if err := o.bounded(ctx, func(ctx context.Context) error { return o.channel.WriteOutbound(ctx, snap) }); err != nil {
		metrics.ExchangeErrors.WithLabelValues("write").Inc()
		log.Error(err, "Failed to write telemetry to exchange channel")
	}

	var plan *core.LandingPlan
	err := o.bounded(ctx, func(ctx context.Context) (err error) {
		plan, err = o.channel.ReadInbound(ctx)
		return err
	})
	if err != nil {
		metrics.ExchangeErrors.WithLabelValues("read").Inc()
		log.Error(err, "Failed to read landing plan from exchange channel")
		return
	}
	if plan.Empty() {
		return
	}

	switch o.session.Status() {
	case fetch.StatusIdle, fetch.StatusTimedOut:
		o.beginFetch(ctx)
	case fetch.StatusRequesting, fetch.StatusCollecting:
		if st := o.session.Tick(ctx); st == fetch.StatusTimedOut {
			o.fail(o.session.Cause())
			metrics.FetchAttempts.WithLabelValues("timeout").Inc()
			log.Warn("Mission download timed out, retrying", "reason", o.session.Cause().Error())
		}
	case fetch.StatusComplete:
		o.reconcile(ctx, plan)
	}
}

func (o *Orchestrator) beginFetch(ctx context.Context) {
	if err := o.session.Begin(ctx); err != nil {
		log.Error(err, "Failed to start mission download")
		return
	}
	metrics.FetchAttempts.WithLabelValues("started").Inc()
	log.Info("Landing plan pending, requesting vehicle mission")

	if err := o.bounded(ctx, o.vehicle.RequestMissionList); err != nil {
		o.fail(err)
		log.Error(err, "Failed to request mission list")
	}
}

func (o *Orchestrator) reconcile(ctx context.Context, plan *core.LandingPlan) {
	mission, err := o.session.Drain(ctx)
	if err != nil {
		log.Error(err, "Failed to drain mission download")
		return
	}
	metrics.MissionItems.Set(float64(len(mission)))

	res, err := o.engine.Splice(mission, plan)
	if err != nil {
		o.reject(ctx, err)
		return
	}

	full := res.Apply(mission)
	if err := o.bounded(ctx, func(ctx context.Context) error { return o.vehicle.UploadMission(ctx, full) }); err != nil {
		o.fail(err)
		metrics.Splices.WithLabelValues("upload_failed").Inc()
		log.Error(err, "Failed to upload spliced mission", "items", len(full))
		return
	}
	metrics.Splices.WithLabelValues("success").Inc()

	if err := o.bounded(ctx, o.channel.ClearInbound); err != nil {
		metrics.ExchangeErrors.WithLabelValues("clear").Inc()
		log.Error(err, "Failed to clear landing plan from exchange channel")
	}

	o.jumpPending = true
	o.spliceIndex = res.Index
	o.hasSpliced = true
	o.lastErr = nil

	log.Info("Uploaded spliced mission", "items", len(full), "landingStart", res.Index, "landingItems", len(res.Segment))
	o.notify(ctx, core.SeverityNotice, fmt.Sprintf("EFLS: landing plan loaded at item %d", res.Index))
}

func (o *Orchestrator) reject(ctx context.Context, err error) {
	o.fail(err)

	result := "error"
	switch {
	case errors.Is(err, core.ErrNoLandingAnchor):
		result = "no_anchor"
	case errors.Is(err, core.ErrEmptyPlan):
		result = "empty_plan"
	}
	metrics.Splices.WithLabelValues(result).Inc()

	log.Warn("Landing plan rejected", "reason", err.Error())
	o.notify(ctx, core.SeverityWarning, "EFLS: plan rejected, "+err.Error())
}

func (o *Orchestrator) notify(ctx context.Context, severity core.Severity, text string) {
	err := o.bounded(ctx, func(ctx context.Context) error { return o.vehicle.SendStatusText(ctx, severity, text) })
	if err != nil {
		log.Error(err, "Failed to send status text", "text", text)
	}
}

// bounded runs one vehicle command or exchange call under the command timeout.
func (o *Orchestrator) bounded(ctx context.Context, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.commandTimeout)
	defer cancel()
	return call(ctx)
}

func (o *Orchestrator) fail(err error) {
	if err != nil {
		o.lastErr = err
	}
}
