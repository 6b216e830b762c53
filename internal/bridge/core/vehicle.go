package core

import "context"

// Severity is a MAV_SEVERITY value.
type Severity uint8

const (
	SeverityError   Severity = 3
	SeverityWarning Severity = 4
	SeverityNotice  Severity = 5
	SeverityInfo    Severity = 6
)

// VehicleMissionService is the mission protocol of the vehicle.
// Calls are fire-and-forget; results arrive later as Events.
type VehicleMissionService interface {
	// RequestMissionList asks the vehicle to stream its mission.
	RequestMissionList(ctx context.Context) error

	// UploadMission replaces the whole mission of the vehicle.
	UploadMission(ctx context.Context, mission Mission) error

	// SetCurrentItem makes the vehicle resume at seq.
	SetCurrentItem(ctx context.Context, seq uint16) error

	// SendStatusText shows a notice to the operator.
	SendStatusText(ctx context.Context, severity Severity, text string) error
}

// Event is a message from the vehicle handed to the control loop.
type Event interface {
	event()
}

// MissionCountEvent reports MISSION_COUNT.
type MissionCountEvent struct {
	Count uint16
}

// MissionItemEvent reports one MISSION_ITEM_INT.
type MissionItemEvent struct {
	Item MissionItem
}

// TelemetryEvent reports one telemetry category.
type TelemetryEvent struct {
	Update TelemetryUpdate
}

func (MissionCountEvent) event() {}
func (MissionItemEvent) event()  {}
func (TelemetryEvent) event()    {}

// Receiver accepts vehicle events. Post must not block.
type Receiver interface {
	Post(ev Event) bool
}

// ReceiverFunc adapts a function to a Receiver.
type ReceiverFunc func(ev Event) bool

func (f ReceiverFunc) Post(ev Event) bool { return f(ev) }
