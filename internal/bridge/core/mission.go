package core

import "fmt"

// MavCmd is a MAVLink MAV_CMD value.
type MavCmd uint16

// Commands the splice engine assigns. Every other command is passed through.
const (
	CmdNavWaypoint MavCmd = 16
	CmdNavLand     MavCmd = 21
	CmdDoLandStart MavCmd = 189
)

// FrameGlobalRelativeAlt is MAV_FRAME_GLOBAL_RELATIVE_ALT.
const FrameGlobalRelativeAlt uint8 = 3

func (c MavCmd) String() string {
	switch c {
	case CmdNavWaypoint:
		return "NAV_WAYPOINT"
	case CmdNavLand:
		return "NAV_LAND"
	case CmdDoLandStart:
		return "DO_LAND_START"
	default:
		return fmt.Sprintf("MAV_CMD(%d)", uint16(c))
	}
}

// MissionItem is one entry of a vehicle mission. Coordinates are in degrees.
type MissionItem struct {
	Seq          uint16  `json:"seq"`
	Command      MavCmd  `json:"command"`
	Frame        uint8   `json:"frame"`
	Param1       float32 `json:"param1"`
	Param2       float32 `json:"param2"`
	Param3       float32 `json:"param3"`
	Param4       float32 `json:"param4"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Alt          float32 `json:"alt"`
	Autocontinue bool    `json:"autocontinue"`
}

// Mission is an ordered list of items with Seq 0..N-1.
type Mission []MissionItem

// Clone returns a copy that shares no storage with m.
func (m Mission) Clone() Mission {
	if m == nil {
		return nil
	}
	out := make(Mission, len(m))
	copy(out, m)
	return out
}

// Validate checks that item sequence numbers are contiguous from zero.
func (m Mission) Validate() error {
	for i, item := range m {
		if int(item.Seq) != i {
			return fmt.Errorf("mission item at index %d has seq %d", i, item.Seq)
		}
	}
	return nil
}

// Waypoint is a point of a landing plan.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// WaypointGroup is a named, ordered list of plan points.
type WaypointGroup struct {
	Name   string     `json:"name"`
	Points []Waypoint `json:"points"`
}

// LandingPlan is the forced landing plan supplied by EFLS.
type LandingPlan struct {
	Groups []WaypointGroup `json:"groups"`
}

// Points flattens the groups in message order.
func (p *LandingPlan) Points() []Waypoint {
	if p == nil {
		return nil
	}
	var out []Waypoint
	for _, g := range p.Groups {
		out = append(out, g.Points...)
	}
	return out
}

// Empty reports whether the plan carries no waypoints at all.
func (p *LandingPlan) Empty() bool {
	if p == nil {
		return true
	}
	for _, g := range p.Groups {
		if len(g.Points) > 0 {
			return false
		}
	}
	return true
}
