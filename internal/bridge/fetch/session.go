// Package fetch tracks the download of the mission currently loaded on the vehicle.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/efls/internal/bridge/core"
	fsmutil "github.com/autopeer-io/efls/internal/pkg/util/fsm"
)

// Status is the state of a Session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRequesting Status = "requesting"
	StatusCollecting Status = "collecting"
	StatusTimedOut   Status = "timed_out"
	StatusComplete   Status = "complete"
)

const (
	eventBegin   = "begin"
	eventCount   = "count"
	eventFinish  = "finish"
	eventAbandon = "abandon"
	eventReset   = "reset"
)

// DefaultTimeoutTicks is how many incomplete ticks a download may take.
const DefaultTimeoutTicks = 3

// ErrSessionNotComplete is returned by Drain before every item has arrived.
var ErrSessionNotComplete = errors.New("mission download is not complete")

// Session is one attempt to download the vehicle mission. It is not safe for
// concurrent use.
type Session struct {
	fsm *fsm.FSM

	limit    int
	ticks    int
	expected int
	received map[uint16]core.MissionItem
	cause    error
}

// NewSession returns an idle Session that abandons a download once more than
// limit ticks pass without completion. A negative limit selects DefaultTimeoutTicks.
func NewSession(limit int) *Session {
	if limit < 0 {
		limit = DefaultTimeoutTicks
	}
	s := &Session{
		limit:    limit,
		received: make(map[uint16]core.MissionItem),
	}

	events := fsm.Events{
		{Name: eventBegin, Src: []string{string(StatusIdle), string(StatusTimedOut), string(StatusComplete)}, Dst: string(StatusRequesting)},
		{Name: eventCount, Src: []string{string(StatusRequesting)}, Dst: string(StatusCollecting)},
		{Name: eventFinish, Src: []string{string(StatusRequesting), string(StatusCollecting)}, Dst: string(StatusComplete)},
		{Name: eventAbandon, Src: []string{string(StatusRequesting), string(StatusCollecting)}, Dst: string(StatusTimedOut)},
		{Name: eventReset, Src: []string{string(StatusRequesting), string(StatusCollecting), string(StatusTimedOut), string(StatusComplete)}, Dst: string(StatusIdle)},
	}

	callbacks := fsm.Callbacks{
		"enter_" + string(StatusRequesting): fsmutil.WrapEvent(s.enterRequesting),
		"enter_" + string(StatusTimedOut):   fsmutil.WrapEvent(s.enterTimedOut),
		"enter_" + string(StatusIdle):       fsmutil.WrapEvent(s.enterIdle),
	}

	s.fsm = fsm.NewFSM(string(StatusIdle), events, callbacks)
	return s
}

func (s *Session) enterRequesting(ctx context.Context, e *fsm.Event) error {
	s.clear()
	return nil
}

func (s *Session) enterTimedOut(ctx context.Context, e *fsm.Event) error {
	cause, ok := fsmutil.Arg[error](e, 0)
	if !ok {
		cause = core.ErrFetchTimeout
	}
	s.cause = cause
	return nil
}

func (s *Session) enterIdle(ctx context.Context, e *fsm.Event) error {
	s.clear()
	return nil
}

func (s *Session) clear() {
	s.ticks = 0
	s.expected = 0
	s.cause = nil
	clear(s.received)
}

// Begin starts a new download. Any previous progress is discarded.
func (s *Session) Begin(ctx context.Context) error {
	return s.fsm.Event(ctx, eventBegin)
}

// OnCount records the number of items the vehicle announced.
// It is ignored unless a download was requested.
func (s *Session) OnCount(ctx context.Context, n uint16) error {
	if !s.is(StatusRequesting) {
		return nil
	}
	if n == 0 {
		return s.fsm.Event(ctx, eventFinish)
	}
	if err := s.fsm.Event(ctx, eventCount); err != nil {
		return err
	}
	s.expected = int(n)
	return nil
}

// OnItem records one streamed item. A duplicate or out of range sequence
// number abandons the download with core.ErrProtocolAnomaly.
// It is ignored unless items are being collected.
func (s *Session) OnItem(ctx context.Context, item core.MissionItem) error {
	if !s.is(StatusCollecting) {
		return nil
	}

	if int(item.Seq) >= s.expected {
		return s.abandon(ctx, fmt.Errorf("%w: item %d outside announced count %d", core.ErrProtocolAnomaly, item.Seq, s.expected))
	}
	if _, dup := s.received[item.Seq]; dup {
		return s.abandon(ctx, fmt.Errorf("%w: duplicate item %d", core.ErrProtocolAnomaly, item.Seq))
	}

	s.received[item.Seq] = item
	if len(s.received) == s.expected {
		return s.fsm.Event(ctx, eventFinish)
	}
	return nil
}

// Tick advances the timeout counter of an active download and returns the
// resulting status.
func (s *Session) Tick(ctx context.Context) Status {
	if s.is(StatusRequesting) || s.is(StatusCollecting) {
		s.ticks++
		if s.ticks > s.limit {
			_ = s.abandon(ctx, fmt.Errorf("%w after %d ticks with %d/%d items", core.ErrFetchTimeout, s.ticks, len(s.received), s.expected))
		}
	}
	return s.Status()
}

func (s *Session) abandon(ctx context.Context, cause error) error {
	if err := s.fsm.Event(ctx, eventAbandon, cause); err != nil {
		return err
	}
	return cause
}

// Drain returns the downloaded mission ordered by sequence number and resets
// the session to idle. It fails with ErrSessionNotComplete in any other state.
func (s *Session) Drain(ctx context.Context) (core.Mission, error) {
	if !s.is(StatusComplete) {
		return nil, fmt.Errorf("%w: session is %s", ErrSessionNotComplete, s.Status())
	}

	mission := make(core.Mission, 0, len(s.received))
	for _, item := range s.received {
		mission = append(mission, item)
	}
	sort.Slice(mission, func(i, j int) bool { return mission[i].Seq < mission[j].Seq })

	if err := s.fsm.Event(ctx, eventReset); err != nil {
		return nil, err
	}
	return mission, nil
}

// Reset discards any progress and returns to idle.
func (s *Session) Reset(ctx context.Context) {
	if s.is(StatusIdle) {
		s.clear()
		return
	}
	_ = s.fsm.Event(ctx, eventReset)
}

// Status returns the current state.
func (s *Session) Status() Status {
	return Status(s.fsm.Current())
}

// IsComplete reports whether every announced item has arrived.
func (s *Session) IsComplete() bool {
	return s.is(StatusComplete)
}

// Cause explains why the last download was abandoned. It is nil unless the
// session is timed out.
func (s *Session) Cause() error {
	return s.cause
}

// TimeoutTicks returns the ticks elapsed in the current download.
func (s *Session) TimeoutTicks() int {
	return s.ticks
}

// Expected returns the announced item count, or zero before MISSION_COUNT.
func (s *Session) Expected() int {
	return s.expected
}

// Received returns how many distinct items have arrived.
func (s *Session) Received() int {
	return len(s.received)
}

func (s *Session) is(st Status) bool {
	return s.fsm.Is(string(st))
}
