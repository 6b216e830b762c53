package vehicle

import (
	"github.com/autopeer-io/efls/internal/bridge/core"
)

// Payloads mirror the MAVLink messages of the same name, in raw MAVLink units.

type missionRequestList struct {
	ID           string `json:"id"`
	TargetSystem uint8  `json:"target_system"`
}

type missionUpload struct {
	ID           string           `json:"id"`
	TargetSystem uint8            `json:"target_system"`
	Items        []missionItemInt `json:"items"`
}

type missionSetCurrent struct {
	ID           string `json:"id"`
	TargetSystem uint8  `json:"target_system"`
	Seq          uint16 `json:"seq"`
}

type statusText struct {
	ID       string `json:"id"`
	Severity uint8  `json:"severity"`
	Text     string `json:"text"`
}

type missionCount struct {
	Count uint16 `json:"count"`
}

type missionItemInt struct {
	Seq          uint16  `json:"seq"`
	Frame        uint8   `json:"frame"`
	Command      uint16  `json:"command"`
	Current      uint8   `json:"current"`
	Autocontinue uint8   `json:"autocontinue"`
	Param1       float32 `json:"param1"`
	Param2       float32 `json:"param2"`
	Param3       float32 `json:"param3"`
	Param4       float32 `json:"param4"`
	X            int32   `json:"x"` // latitude, degE7
	Y            int32   `json:"y"` // longitude, degE7
	Z            float32 `json:"z"`
}

type globalPositionInt struct {
	Lat         int32  `json:"lat"`          // degE7
	Lon         int32  `json:"lon"`          // degE7
	Alt         int32  `json:"alt"`          // mm
	RelativeAlt int32  `json:"relative_alt"` // mm
	Vx          int16  `json:"vx"`           // cm/s
	Vy          int16  `json:"vy"`           // cm/s
	Vz          int16  `json:"vz"`           // cm/s
	Hdg         uint16 `json:"hdg"`          // cdeg
}

type sysStatus struct {
	CurrentBattery int16 `json:"current_battery"` // cA
}

type vfrHud struct {
	Throttle uint16 `json:"throttle"` // percent
}

type wind struct {
	Direction float32 `json:"direction"` // deg
	Speed     float32 `json:"speed"`     // m/s
	SpeedZ    float32 `json:"speed_z"`   // m/s
}

const degE7 = 1e7

func fromMissionItemInt(m *missionItemInt) core.MissionItem {
	return core.MissionItem{
		Seq:          m.Seq,
		Command:      core.MavCmd(m.Command),
		Frame:        m.Frame,
		Param1:       m.Param1,
		Param2:       m.Param2,
		Param3:       m.Param3,
		Param4:       m.Param4,
		Lat:          float64(m.X) / degE7,
		Lon:          float64(m.Y) / degE7,
		Alt:          m.Z,
		Autocontinue: m.Autocontinue != 0,
	}
}

func toMissionItemInt(item core.MissionItem) missionItemInt {
	m := missionItemInt{
		Seq:     item.Seq,
		Frame:   item.Frame,
		Command: uint16(item.Command),
		Param1:  item.Param1,
		Param2:  item.Param2,
		Param3:  item.Param3,
		Param4:  item.Param4,
		X:       toDegE7(item.Lat),
		Y:       toDegE7(item.Lon),
		Z:       item.Alt,
	}
	if item.Autocontinue {
		m.Autocontinue = 1
	}
	return m
}

func toDegE7(deg float64) int32 {
	v := deg * degE7
	if v < 0 {
		return int32(v - 0.5)
	}
	return int32(v + 0.5)
}

// EFLS expects relative_alt scaled by 1e-2 and ground speed as the sum of the
// horizontal velocity components.
func (m *globalPositionInt) update() core.PositionUpdate {
	return core.PositionUpdate{
		Lat:         float64(m.Lat) * 1e-7,
		Lon:         float64(m.Lon) * 1e-7,
		Heading:     float64(m.Hdg) * 1e-2,
		GroundSpeed: float64(int32(m.Vx)+int32(m.Vy)) * 1e-2,
		RelativeAlt: float64(m.RelativeAlt) * 1e-2,
	}
}

func (m *sysStatus) update() core.BatteryUpdate {
	return core.BatteryUpdate{Current: float64(m.CurrentBattery) * 1e-2}
}

func (m *vfrHud) update() core.ThrottleUpdate {
	return core.ThrottleUpdate{Throttle: float64(m.Throttle)}
}

func (m *wind) update() core.WindUpdate {
	return core.WindUpdate{Speed: float64(m.Speed), Direction: float64(m.Direction)}
}
