package exchange

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/autopeer-io/efls/internal/bridge/core"
)

func newTestFile(t *testing.T) (*File, string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "aircraftLink_waypoints")
	out := filepath.Join(dir, "aircraftLink_aircraft")
	return NewFile(in, out), in, out
}

var testPlan = &core.LandingPlan{Groups: []core.WaypointGroup{
	{Name: "efls", Points: []core.Waypoint{{Lat: 1, Lon: 1, Alt: 10}, {Lat: 2, Lon: 2, Alt: 20}}},
}}

func TestFileWriteOutboundOverwrites(t *testing.T) {
	ctx := context.Background()
	f, _, out := newTestFile(t)

	if err := f.WriteOutbound(ctx, core.TelemetrySnapshot{Lat: 1, Lon: 2, Heading: 3}); err != nil {
		t.Fatalf("WriteOutbound() error = %v", err)
	}
	if err := f.WriteOutbound(ctx, core.TelemetrySnapshot{Lat: 7}); err != nil {
		t.Fatalf("WriteOutbound() error = %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := UnmarshalTelemetry(b)
	if err != nil {
		t.Fatalf("UnmarshalTelemetry() error = %v", err)
	}
	if len(snaps) != 1 || snaps[0].Lat != 7 || snaps[0].Heading != 0 {
		t.Errorf("outbound = %+v, want only the last snapshot", snaps)
	}

	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestFileReadInbound(t *testing.T) {
	ctx := context.Background()
	f, in, _ := newTestFile(t)

	plan, err := f.ReadInbound(ctx)
	if plan != nil || err != nil {
		t.Fatalf("ReadInbound() on missing file = %v, %v", plan, err)
	}

	if err := os.WriteFile(in, mustMarshalPlan(t, testPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	plan, err = f.ReadInbound(ctx)
	if err != nil {
		t.Fatalf("ReadInbound() error = %v", err)
	}
	if len(plan.Points()) != 2 {
		t.Errorf("Points() = %+v", plan.Points())
	}
}

func TestFileReadInboundCorrupt(t *testing.T) {
	f, in, _ := newTestFile(t)
	if err := os.WriteFile(in, []byte{0x12, 0x09}, 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := f.ReadInbound(context.Background())
	if plan != nil {
		t.Errorf("ReadInbound() returned plan %+v", plan)
	}
	if !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("ReadInbound() error = %v, want ErrCorruptPayload", err)
	}
}

func TestFileReadInboundEmptyGroups(t *testing.T) {
	f, in, _ := newTestFile(t)
	empty := &core.LandingPlan{Groups: []core.WaypointGroup{{Name: "none"}}}
	if err := os.WriteFile(in, mustMarshalPlan(t, empty), 0o644); err != nil {
		t.Fatal(err)
	}
	if plan, err := f.ReadInbound(context.Background()); plan != nil || err != nil {
		t.Errorf("ReadInbound() = %v, %v, want no plan", plan, err)
	}
}

func TestFileClearInbound(t *testing.T) {
	ctx := context.Background()
	f, in, _ := newTestFile(t)

	if err := f.ClearInbound(ctx); err != nil {
		t.Fatalf("ClearInbound() on missing file error = %v", err)
	}

	if err := os.WriteFile(in, mustMarshalPlan(t, testPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.ClearInbound(ctx); err != nil {
		t.Fatalf("ClearInbound() error = %v", err)
	}
	if plan, err := f.ReadInbound(ctx); plan != nil || err != nil {
		t.Fatalf("ReadInbound() after clear = %v, %v", plan, err)
	}

	if err := os.WriteFile(in, mustMarshalPlan(t, testPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	if plan, _ := f.ReadInbound(ctx); plan == nil {
		t.Error("ReadInbound() after a new write returned no plan")
	}
}

func TestFileUnavailable(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(dir, filepath.Join(dir, "missing", "out"))

	if _, err := f.ReadInbound(context.Background()); !errors.Is(err, core.ErrChannelUnavailable) {
		t.Errorf("ReadInbound() of a directory error = %v", err)
	}
	if err := f.WriteOutbound(context.Background(), core.TelemetrySnapshot{}); !errors.Is(err, core.ErrChannelUnavailable) {
		t.Errorf("WriteOutbound() into missing dir error = %v", err)
	}
}

func TestFileWatchSignalsChanges(t *testing.T) {
	f, in, _ := newTestFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.Start(ctx) }()

	// fsnotify registers the watch asynchronously to this goroutine; keep
	// writing until the first signal arrives.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for signalled := false; !signalled; {
		select {
		case <-f.Changes():
			signalled = true
		case <-ticker.C:
			if err := os.WriteFile(in, mustMarshalPlan(t, testPlan), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no change signalled")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestFileWatchMissingDirIdles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "missing", "in"), filepath.Join(dir, "out"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.Start(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}
