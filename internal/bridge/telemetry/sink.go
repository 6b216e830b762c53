// Package telemetry merges per-category vehicle telemetry into one snapshot.
package telemetry

import (
	"k8s.io/utils/clock"

	"github.com/autopeer-io/efls/internal/bridge/core"
)

// Sink holds the latest known telemetry. It is not safe for concurrent use;
// the reconciliation loop is its only owner.
type Sink struct {
	snap  core.TelemetrySnapshot
	clock clock.PassiveClock
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock overrides the time source used to stamp updates.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Sink) {
		s.clock = c
	}
}

// NewSink returns an empty Sink.
func NewSink(opts ...Option) *Sink {
	s := &Sink{clock: clock.RealClock{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Update merges one category, overwriting only the fields it carries.
func (s *Sink) Update(u core.TelemetryUpdate) {
	switch v := u.(type) {
	case core.PositionUpdate:
		s.snap.Lat = v.Lat
		s.snap.Lon = v.Lon
		s.snap.Heading = v.Heading
		s.snap.GroundSpeed = v.GroundSpeed
		s.snap.RelativeAlt = v.RelativeAlt
	case core.BatteryUpdate:
		s.snap.BatteryCurrent = v.Current
	case core.ThrottleUpdate:
		s.snap.Throttle = v.Throttle
	case core.WindUpdate:
		s.snap.WindSpeed = v.Speed
		s.snap.WindDirection = v.Direction
	default:
		return
	}
	s.snap.Timestamp = s.clock.Now()
}

// Snapshot returns a copy of the merged telemetry.
func (s *Sink) Snapshot() core.TelemetrySnapshot {
	return s.snap
}
