package paths

// Topic segments for the EFLS vehicle link.
// These constants define the routing contract between the bridge and the
// MAVLink router running next to the flight controller. Every topic is
// {root}/{segment}/{systemID}.

// Downstream: Bridge -> Vehicle (mission protocol requests)
const (
	// MissionRequestList asks the vehicle to start streaming its mission (MISSION_REQUEST_LIST).
	MissionRequestList = "mission/request-list"

	// MissionUpload carries a complete replacement mission. The router performs
	// the MISSION_COUNT / MISSION_REQUEST_INT / MISSION_ITEM_INT handshake.
	MissionUpload = "mission/upload"

	// MissionSetCurrent selects the item the vehicle resumes at (MISSION_SET_CURRENT).
	MissionSetCurrent = "mission/set-current"

	// StatusText forwards an operator-visible notice (STATUSTEXT).
	StatusText = "statustext"
)

// Upstream: Vehicle -> Bridge
const (
	// MissionCount reports how many items the vehicle will stream (MISSION_COUNT).
	MissionCount = "mission/count"

	// MissionItem carries one streamed mission item (MISSION_ITEM_INT).
	MissionItem = "mission/item"

	// GlobalPosition carries GLOBAL_POSITION_INT.
	GlobalPosition = "telemetry/global-position"

	// SysStatus carries SYS_STATUS.
	SysStatus = "telemetry/sys-status"

	// VfrHud carries VFR_HUD.
	VfrHud = "telemetry/vfr-hud"

	// Wind carries WIND.
	Wind = "telemetry/wind"

	// Online is the retained bridge presence topic, also used as the MQTT last will.
	Online = "online"
)
