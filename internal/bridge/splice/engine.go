// Package splice replaces the landing sequence of a mission with an EFLS plan.
package splice

import (
	"fmt"

	"github.com/autopeer-io/efls/internal/bridge/core"
)

// Engine builds landing segments. The zero value is not usable; use NewEngine.
type Engine struct {
	frame uint8
}

// Option configures an Engine.
type Option func(*Engine)

// WithFrame sets the MAV_FRAME of generated items.
func WithFrame(frame uint8) Option {
	return func(e *Engine) {
		e.frame = frame
	}
}

// NewEngine returns an Engine that emits items in MAV_FRAME_GLOBAL_RELATIVE_ALT
// unless configured otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{frame: core.FrameGlobalRelativeAlt}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Result is the outcome of a splice.
type Result struct {
	// Index is the position of the anchor and the item the vehicle jumps to.
	Index uint16

	// Segment holds the new items, numbered from Index.
	Segment core.Mission
}

// Splice locates the last DO_LAND_START of mission and builds a segment from
// the points of plan to replace everything from it onwards. Neither argument
// is modified.
func (e *Engine) Splice(mission core.Mission, plan *core.LandingPlan) (Result, error) {
	anchor := -1
	for i := len(mission) - 1; i >= 0; i-- {
		if mission[i].Command == core.CmdDoLandStart {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return Result{}, core.ErrNoLandingAnchor
	}

	points := plan.Points()
	if len(points) == 0 {
		return Result{}, core.ErrEmptyPlan
	}

	if anchor+len(points) > 1<<16 {
		return Result{}, fmt.Errorf("spliced mission would hold %d items", anchor+len(points))
	}

	segment := make(core.Mission, len(points))
	last := len(points) - 1
	for i, pt := range points {
		cmd := core.CmdNavWaypoint
		switch i {
		case 0:
			cmd = core.CmdDoLandStart
		case last:
			cmd = core.CmdNavLand
		}
		segment[i] = core.MissionItem{
			Seq:          uint16(anchor + i),
			Command:      cmd,
			Frame:        e.frame,
			Lat:          pt.Lat,
			Lon:          pt.Lon,
			Alt:          float32(pt.Alt),
			Autocontinue: true,
		}
	}

	return Result{Index: uint16(anchor), Segment: segment}, nil
}

// Apply returns the mission to upload: the items of mission before Index,
// followed by the segment. Items of mission from Index onwards are dropped.
func (r Result) Apply(mission core.Mission) core.Mission {
	head := int(r.Index)
	if head > len(mission) {
		head = len(mission)
	}
	out := make(core.Mission, 0, head+len(r.Segment))
	out = append(out, mission[:head]...)
	out = append(out, r.Segment...)
	return out
}
