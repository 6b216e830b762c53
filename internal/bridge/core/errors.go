package core

import "errors"

var (
	// ErrNoLandingAnchor means the loaded mission has no DO_LAND_START item.
	ErrNoLandingAnchor = errors.New("mission has no DO_LAND_START item")

	// ErrEmptyPlan means the landing plan carries no waypoints.
	ErrEmptyPlan = errors.New("landing plan has no waypoints")

	// ErrFetchTimeout means a mission download did not complete in time.
	ErrFetchTimeout = errors.New("mission download timed out")

	// ErrProtocolAnomaly means the vehicle sent an item that cannot belong to the
	// current download, such as a duplicate sequence number.
	ErrProtocolAnomaly = errors.New("mission protocol anomaly")

	// ErrChannelUnavailable wraps I/O failures of the exchange channel.
	ErrChannelUnavailable = errors.New("exchange channel unavailable")
)
