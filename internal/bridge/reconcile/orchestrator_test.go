package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/bridge/fetch"
)

type fakeVehicle struct {
	calls      []string
	uploads    []core.Mission
	current    []uint16
	notices    []string
	requestErr error
	uploadErr  error
	jumpErr    error

	// stall makes RequestMissionList wait for its context like an
	// unacknowledged QoS 1 publish.
	stall bool
}

func (v *fakeVehicle) RequestMissionList(ctx context.Context) error {
	v.calls = append(v.calls, "request")
	if v.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	return v.requestErr
}

func (v *fakeVehicle) UploadMission(ctx context.Context, m core.Mission) error {
	v.calls = append(v.calls, "upload")
	if v.uploadErr != nil {
		return v.uploadErr
	}
	v.uploads = append(v.uploads, m)
	return nil
}

func (v *fakeVehicle) SetCurrentItem(ctx context.Context, seq uint16) error {
	v.calls = append(v.calls, "jump")
	if v.jumpErr != nil {
		return v.jumpErr
	}
	v.current = append(v.current, seq)
	return nil
}

func (v *fakeVehicle) SendStatusText(ctx context.Context, severity core.Severity, text string) error {
	v.notices = append(v.notices, text)
	return nil
}

func (v *fakeVehicle) count(name string) int {
	n := 0
	for _, c := range v.calls {
		if c == name {
			n++
		}
	}
	return n
}

type fakeChannel struct {
	inbound  *core.LandingPlan
	written  []core.TelemetrySnapshot
	cleared  int
	readErr  error
	writeErr error
	changes  chan struct{}
}

func (c *fakeChannel) WriteOutbound(ctx context.Context, s core.TelemetrySnapshot) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, s)
	return nil
}

func (c *fakeChannel) ReadInbound(ctx context.Context) (*core.LandingPlan, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.inbound, nil
}

func (c *fakeChannel) ClearInbound(ctx context.Context) error {
	c.cleared++
	c.inbound = nil
	return nil
}

func (c *fakeChannel) Changes() <-chan struct{} { return c.changes }

func loadedMission() core.Mission {
	cmds := []core.MavCmd{22, 16, 16, 16, 16, core.CmdDoLandStart, 16, core.CmdNavLand}
	m := make(core.Mission, len(cmds))
	for i, c := range cmds {
		m[i] = core.MissionItem{Seq: uint16(i), Command: c, Lat: float64(i), Autocontinue: true}
	}
	return m
}

func testPlan() *core.LandingPlan {
	return &core.LandingPlan{Groups: []core.WaypointGroup{{
		Name:   "efls",
		Points: []core.Waypoint{{Lat: 1, Lon: 1, Alt: 10}, {Lat: 2, Lon: 2, Alt: 20}, {Lat: 3, Lon: 3, Alt: 30}},
	}}}
}

func stream(ctx context.Context, o *Orchestrator, m core.Mission) {
	o.Apply(ctx, core.MissionCountEvent{Count: uint16(len(m))})
	for _, it := range m {
		o.Apply(ctx, core.MissionItemEvent{Item: it})
	}
}

func TestReconcileHappyPath(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	ch := &fakeChannel{inbound: testPlan()}
	o := New(v, ch)

	o.Tick(ctx)
	if v.count("request") != 1 || o.session.Status() != fetch.StatusRequesting {
		t.Fatalf("after first tick: calls=%v session=%s", v.calls, o.session.Status())
	}

	stream(ctx, o, loadedMission())
	if !o.session.IsComplete() {
		t.Fatalf("session = %s, want complete", o.session.Status())
	}

	o.Tick(ctx)
	if len(v.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(v.uploads))
	}
	up := v.uploads[0]
	if len(up) != 8 {
		t.Fatalf("uploaded %d items, want 8", len(up))
	}
	for i, want := range []core.MavCmd{core.CmdDoLandStart, core.CmdNavWaypoint, core.CmdNavLand} {
		if got := up[5+i]; got.Command != want || int(got.Seq) != 5+i || got.Lat != float64(i+1) {
			t.Errorf("item %d = %+v, want %s", 5+i, got, want)
		}
	}
	if ch.cleared != 1 {
		t.Errorf("inbound cleared %d times, want 1", ch.cleared)
	}
	if len(v.current) != 0 {
		t.Error("jump issued in the same tick as the upload")
	}
	if st := o.Status(); !st.JumpPending || st.SpliceIndex == nil || *st.SpliceIndex != 5 {
		t.Errorf("status = %+v", st)
	}

	o.Tick(ctx)
	if len(v.current) != 1 || v.current[0] != 5 {
		t.Fatalf("jumps = %v, want [5]", v.current)
	}
	if v.calls[len(v.calls)-1] != "jump" {
		t.Errorf("calls = %v", v.calls)
	}
	if o.Status().JumpPending {
		t.Error("jump still pending")
	}

	o.Tick(ctx)
	if len(v.current) != 1 || v.count("request") != 1 {
		t.Errorf("extra vehicle calls after completion: %v", v.calls)
	}
}

func TestReconcileWritesTelemetryEveryTick(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{}
	o := New(&fakeVehicle{}, ch)

	o.Apply(ctx, core.TelemetryEvent{Update: core.PositionUpdate{Lat: 3}})
	o.Tick(ctx)
	o.Apply(ctx, core.TelemetryEvent{Update: core.WindUpdate{Speed: 2}})
	o.Tick(ctx)

	if len(ch.written) != 2 {
		t.Fatalf("written = %d, want 2", len(ch.written))
	}
	if ch.written[1].Lat != 3 || ch.written[1].WindSpeed != 2 {
		t.Errorf("second snapshot = %+v", ch.written[1])
	}
}

func TestReconcileNoPlanNoRequest(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	ch := &fakeChannel{inbound: &core.LandingPlan{Groups: []core.WaypointGroup{{Name: "empty"}}}}
	o := New(v, ch)

	o.Tick(ctx)
	o.Tick(ctx)
	if len(v.calls) != 0 {
		t.Errorf("calls = %v, want none", v.calls)
	}
}

func TestReconcileRejectsPlanWithoutAnchor(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	ch := &fakeChannel{inbound: testPlan()}
	o := New(v, ch)

	o.Tick(ctx)
	stream(ctx, o, core.Mission{{Seq: 0, Command: 16}, {Seq: 1, Command: core.CmdNavLand}})
	o.Tick(ctx)

	if v.count("upload") != 0 {
		t.Error("mission uploaded without a landing anchor")
	}
	if ch.cleared != 0 || ch.inbound == nil {
		t.Error("inbound plan cleared after rejection")
	}
	if len(v.notices) != 1 {
		t.Errorf("notices = %v, want one", v.notices)
	}
	st := o.Status()
	if st.Session != string(fetch.StatusIdle) || st.LastError == "" {
		t.Errorf("status = %+v", st)
	}

	o.Tick(ctx)
	if v.count("request") != 2 {
		t.Errorf("plan not retried: calls = %v", v.calls)
	}
}

func TestReconcileFetchTimeoutRetries(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	o := New(v, &fakeChannel{inbound: testPlan()})

	o.Tick(ctx)
	o.Apply(ctx, core.MissionCountEvent{Count: 4})
	o.Apply(ctx, core.MissionItemEvent{Item: core.MissionItem{Seq: 0}})

	for i := 0; i < fetch.DefaultTimeoutTicks; i++ {
		o.Tick(ctx)
	}
	if o.session.Status() != fetch.StatusCollecting {
		t.Fatalf("session = %s before the limit, want collecting", o.session.Status())
	}

	o.Tick(ctx)
	if o.session.Status() != fetch.StatusTimedOut {
		t.Fatalf("session = %s after the limit, want timed_out", o.session.Status())
	}

	o.Tick(ctx)
	if o.session.Status() != fetch.StatusRequesting || o.session.Received() != 0 || o.session.TimeoutTicks() != 0 {
		t.Errorf("after retry: session=%s received=%d ticks=%d", o.session.Status(), o.session.Received(), o.session.TimeoutTicks())
	}
	if v.count("request") != 2 {
		t.Errorf("requests = %d, want 2", v.count("request"))
	}
}

func TestReconcileDuplicateItemRetries(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	o := New(v, &fakeChannel{inbound: testPlan()})

	o.Tick(ctx)
	o.Apply(ctx, core.MissionCountEvent{Count: 3})
	o.Apply(ctx, core.MissionItemEvent{Item: core.MissionItem{Seq: 0}})
	o.Apply(ctx, core.MissionItemEvent{Item: core.MissionItem{Seq: 0}})

	if o.session.Status() != fetch.StatusTimedOut {
		t.Fatalf("session = %s, want timed_out", o.session.Status())
	}
	if !errors.Is(o.session.Cause(), core.ErrProtocolAnomaly) {
		t.Errorf("cause = %v", o.session.Cause())
	}

	o.Tick(ctx)
	if v.count("request") != 2 {
		t.Errorf("requests = %d, want 2", v.count("request"))
	}
}

func TestReconcileUploadFailureKeepsPlan(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{uploadErr: errors.New("link down")}
	ch := &fakeChannel{inbound: testPlan()}
	o := New(v, ch)

	o.Tick(ctx)
	stream(ctx, o, loadedMission())
	o.Tick(ctx)

	if ch.cleared != 0 {
		t.Error("inbound cleared after a failed upload")
	}
	if o.Status().JumpPending {
		t.Error("jump pending after a failed upload")
	}
}

func TestReconcileJumpRetriedOnFailure(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	o := New(v, &fakeChannel{inbound: testPlan()})

	o.Tick(ctx)
	stream(ctx, o, loadedMission())
	o.Tick(ctx)

	v.jumpErr = errors.New("link down")
	o.Tick(ctx)
	if !o.Status().JumpPending {
		t.Fatal("failed jump cleared the pending flag")
	}

	v.jumpErr = nil
	o.Tick(ctx)
	if len(v.current) != 1 || o.Status().JumpPending {
		t.Errorf("jumps = %v pending = %v", v.current, o.Status().JumpPending)
	}
}

func TestReconcileChannelErrorsAreNotFatal(t *testing.T) {
	ctx := context.Background()
	v := &fakeVehicle{}
	ch := &fakeChannel{
		inbound:  testPlan(),
		readErr:  core.ErrChannelUnavailable,
		writeErr: core.ErrChannelUnavailable,
	}
	o := New(v, ch)

	o.Tick(ctx)
	if len(v.calls) != 0 {
		t.Errorf("calls = %v with an unreadable channel", v.calls)
	}

	ch.readErr = nil
	o.Tick(ctx)
	if v.count("request") != 1 {
		t.Errorf("requests = %d after channel recovered", v.count("request"))
	}
}

func TestReconcileIgnoresItemsOutsideFetch(t *testing.T) {
	ctx := context.Background()
	o := New(&fakeVehicle{}, &fakeChannel{})

	stream(ctx, o, loadedMission())
	if o.session.Status() != fetch.StatusIdle || o.session.Received() != 0 {
		t.Errorf("session = %s received=%d", o.session.Status(), o.session.Received())
	}
}

func TestPostDropsWhenFull(t *testing.T) {
	o := New(&fakeVehicle{}, &fakeChannel{}, WithEventBuffer(1))
	if !o.Post(core.MissionCountEvent{Count: 1}) {
		t.Fatal("first Post() dropped")
	}
	if o.Post(core.MissionCountEvent{Count: 2}) {
		t.Error("Post() into a full queue succeeded")
	}
}

func TestStartRunsLoop(t *testing.T) {
	v := &fakeVehicle{}
	ch := &fakeChannel{changes: make(chan struct{}, 1)}
	o := New(v, ch, WithTickInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Start(ctx) }()

	o.Post(core.TelemetryEvent{Update: core.ThrottleUpdate{Throttle: 55}})
	ch.changes <- struct{}{}

	deadline := time.Now().Add(5 * time.Second)
	for st := o.Status(); st.Ticks == 0 || st.Telemetry.Throttle != 55; st = o.Status() {
		if time.Now().After(deadline) {
			t.Fatalf("loop did not handle the event and the change notification: %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !o.Running() {
		t.Error("Running() = false while the loop runs")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if o.Running() {
		t.Error("Running() = true after the loop stopped")
	}
}

func TestTickBoundsStalledCommand(t *testing.T) {
	v := &fakeVehicle{stall: true}
	ch := &fakeChannel{inbound: testPlan()}
	o := New(v, ch, WithCommandTimeout(20*time.Millisecond))

	done := make(chan struct{})
	go func() {
		o.Tick(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Tick() blocked on a stalled vehicle command")
	}

	if v.count("request") != 1 {
		t.Fatalf("calls = %v, want one request", v.calls)
	}
	if st := o.Status(); !strings.Contains(st.LastError, context.DeadlineExceeded.Error()) {
		t.Errorf("LastError = %q, want deadline exceeded", st.LastError)
	}
	if len(ch.written) != 1 {
		t.Errorf("telemetry writes = %d, want 1", len(ch.written))
	}
}

func TestStartTicksOnClock(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ch := &fakeChannel{}
	o := New(&fakeVehicle{}, ch, WithClock(clk), WithTickInterval(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Start(ctx) }()

	waitFor := func(cond func() bool, what string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s", what)
			}
			time.Sleep(time.Millisecond)
		}
	}

	waitFor(clk.HasWaiters, "the loop ticker")
	if st := o.Status(); st.Ticks != 0 {
		t.Fatalf("Ticks = %d before the clock moved", st.Ticks)
	}

	clk.Step(time.Second)
	waitFor(func() bool { return o.Status().Ticks == 1 }, "the first tick")
	if st := o.Status(); !st.UpdatedAt.Equal(clk.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", st.UpdatedAt, clk.Now())
	}

	clk.Step(time.Second)
	waitFor(func() bool { return o.Status().Ticks == 2 }, "the second tick")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if len(ch.written) != 2 {
		t.Errorf("telemetry writes = %d, want 2", len(ch.written))
	}
}
