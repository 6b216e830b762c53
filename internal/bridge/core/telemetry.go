package core

import "time"

// TelemetrySnapshot is the merged vehicle state reported to EFLS.
// Fields that were never updated stay zero.
type TelemetrySnapshot struct {
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	Heading        float64   `json:"heading"`
	GroundSpeed    float64   `json:"groundSpeed"`
	RelativeAlt    float64   `json:"relativeAlt"`
	BatteryCurrent float64   `json:"batteryCurrent"`
	Throttle       float64   `json:"throttle"`
	WindSpeed      float64   `json:"windSpeed"`
	WindDirection  float64   `json:"windDirection"`
	Timestamp      time.Time `json:"timestamp"`
}

// TelemetryUpdate is one category of telemetry. The set of categories is closed:
// PositionUpdate, BatteryUpdate, ThrottleUpdate and WindUpdate.
type TelemetryUpdate interface {
	telemetryUpdate()
}

// PositionUpdate carries GLOBAL_POSITION_INT derived fields.
type PositionUpdate struct {
	Lat         float64
	Lon         float64
	Heading     float64
	GroundSpeed float64
	RelativeAlt float64
}

// BatteryUpdate carries SYS_STATUS derived fields.
type BatteryUpdate struct {
	Current float64
}

// ThrottleUpdate carries VFR_HUD derived fields.
type ThrottleUpdate struct {
	Throttle float64
}

// WindUpdate carries WIND derived fields.
type WindUpdate struct {
	Speed     float64
	Direction float64
}

func (PositionUpdate) telemetryUpdate() {}
func (BatteryUpdate) telemetryUpdate()  {}
func (ThrottleUpdate) telemetryUpdate() {}
func (WindUpdate) telemetryUpdate()     {}
