package core

import "testing"

func TestLandingPlanPoints(t *testing.T) {
	plan := &LandingPlan{Groups: []WaypointGroup{
		{Name: "approach", Points: []Waypoint{{Lat: 1}, {Lat: 2}}},
		{Name: "empty"},
		{Name: "final", Points: []Waypoint{{Lat: 3}}},
	}}

	pts := plan.Points()
	if len(pts) != 3 {
		t.Fatalf("len(Points()) = %d, want 3", len(pts))
	}
	for i, want := range []float64{1, 2, 3} {
		if pts[i].Lat != want {
			t.Errorf("Points()[%d].Lat = %v, want %v", i, pts[i].Lat, want)
		}
	}
}

func TestLandingPlanEmpty(t *testing.T) {
	tests := []struct {
		name string
		plan *LandingPlan
		want bool
	}{
		{"nil", nil, true},
		{"no groups", &LandingPlan{}, true},
		{"empty groups", &LandingPlan{Groups: []WaypointGroup{{Name: "a"}, {Name: "b"}}}, true},
		{"one point", &LandingPlan{Groups: []WaypointGroup{{}, {Points: []Waypoint{{}}}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissionValidate(t *testing.T) {
	if err := (Mission{{Seq: 0}, {Seq: 1}}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (Mission{{Seq: 0}, {Seq: 2}}).Validate(); err == nil {
		t.Error("Validate() accepted a gap in seq")
	}
}

func TestMissionClone(t *testing.T) {
	m := Mission{{Seq: 0, Lat: 1}}
	c := m.Clone()
	c[0].Lat = 2
	if m[0].Lat != 1 {
		t.Error("Clone shares storage with the original")
	}
	if Mission(nil).Clone() != nil {
		t.Error("Clone of nil mission is not nil")
	}
}

func TestMavCmdString(t *testing.T) {
	if CmdDoLandStart.String() != "DO_LAND_START" {
		t.Errorf("String() = %q", CmdDoLandStart.String())
	}
	if MavCmd(22).String() != "MAV_CMD(22)" {
		t.Errorf("String() = %q", MavCmd(22).String())
	}
}
