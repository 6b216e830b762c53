package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/bridge/exchange"
)

const missionYAML = `
- seq: 0
  command: 16
  frame: 3
  lat: 47.1
  lon: 8.1
  alt: 50
  autocontinue: true
- seq: 1
  command: 189
  frame: 3
- seq: 2
  command: 21
  frame: 3
  lat: 47.2
  lon: 8.2
`

func writeFiles(t *testing.T, mission string, plan *core.LandingPlan) *spliceOptions {
	t.Helper()
	dir := t.TempDir()
	o := &spliceOptions{
		mission: filepath.Join(dir, "mission.yaml"),
		plan:    filepath.Join(dir, "plan.pb"),
		frame:   core.FrameGlobalRelativeAlt,
	}
	if err := os.WriteFile(o.mission, []byte(mission), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := exchange.MarshalPlan(plan)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(o.plan, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestRunSplice(t *testing.T) {
	plan := &core.LandingPlan{Groups: []core.WaypointGroup{{
		Name:   "approach",
		Points: []core.Waypoint{{Lat: 47.3, Lon: 8.3, Alt: 30}, {Lat: 47.4, Lon: 8.4, Alt: 10}, {Lat: 47.5, Lon: 8.5}},
	}}}
	o := writeFiles(t, missionYAML, plan)

	var out bytes.Buffer
	if err := runSplice(&out, o); err != nil {
		t.Fatalf("runSplice() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"SEQ", "NAV_WAYPOINT", "DO_LAND_START", "NAV_LAND", "47.5000000", "<- jump"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	// Header plus head item plus three segment items.
	if lines := strings.Count(strings.TrimSpace(got), "\n") + 1; lines != 5 {
		t.Errorf("output has %d lines, want 5:\n%s", lines, got)
	}
}

func TestRunSpliceJSONMission(t *testing.T) {
	plan := &core.LandingPlan{Groups: []core.WaypointGroup{{Points: []core.Waypoint{{Lat: 1, Lon: 2, Alt: 3}}}}}
	o := writeFiles(t, `[{"seq":0,"command":189,"frame":3}]`, plan)

	var out bytes.Buffer
	if err := runSplice(&out, o); err != nil {
		t.Fatalf("runSplice() error = %v", err)
	}
	if !strings.Contains(out.String(), "DO_LAND_START") {
		t.Errorf("output = %s", out.String())
	}
}

func TestRunSpliceErrors(t *testing.T) {
	plan := &core.LandingPlan{Groups: []core.WaypointGroup{{Points: []core.Waypoint{{Lat: 1}}}}}

	t.Run("no anchor", func(t *testing.T) {
		o := writeFiles(t, `[{"seq":0,"command":16}]`, plan)
		if err := runSplice(&bytes.Buffer{}, o); !errors.Is(err, core.ErrNoLandingAnchor) {
			t.Errorf("runSplice() error = %v, want %v", err, core.ErrNoLandingAnchor)
		}
	})

	t.Run("gap in seq", func(t *testing.T) {
		o := writeFiles(t, `[{"seq":0,"command":189},{"seq":2,"command":21}]`, plan)
		if err := runSplice(&bytes.Buffer{}, o); err == nil {
			t.Error("runSplice() error = nil, want invalid mission")
		}
	})

	t.Run("missing plan", func(t *testing.T) {
		o := writeFiles(t, missionYAML, plan)
		o.plan = filepath.Join(t.TempDir(), "absent.pb")
		if err := runSplice(&bytes.Buffer{}, o); err == nil {
			t.Error("runSplice() error = nil, want read failure")
		}
	})
}
