package exchange

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	eflsv1 "github.com/autopeer-io/efls/api/proto/efls/v1"
	"github.com/autopeer-io/efls/internal/bridge/core"
)

// ErrCorruptPayload is returned when inbound content is not a valid AircraftLink.
var ErrCorruptPayload = errors.New("corrupt exchange payload")

var (
	marshalOptions   = proto.MarshalOptions{Deterministic: true}
	unmarshalOptions = proto.UnmarshalOptions{}
)

// Fields of link.proto, resolved once.
var (
	linkAircrafts      = field(eflsv1.AircraftLink, "aircrafts")
	linkWaypointGroups = field(eflsv1.AircraftLink, "waypoint_groups")

	aircraftLat           = field(eflsv1.Aircraft, "lat")
	aircraftLon           = field(eflsv1.Aircraft, "lon")
	aircraftBearing       = field(eflsv1.Aircraft, "bearing")
	aircraftSpeed         = field(eflsv1.Aircraft, "speed")
	aircraftAltitude      = field(eflsv1.Aircraft, "altitude")
	aircraftWindSpeed     = field(eflsv1.Aircraft, "wind_speed")
	aircraftWindDirection = field(eflsv1.Aircraft, "wind_direction")
	aircraftMotorCurrent  = field(eflsv1.Aircraft, "motor_current")
	aircraftMotorThrottle = field(eflsv1.Aircraft, "motor_throttle")
	aircraftTimestamp     = field(eflsv1.Aircraft, "timestamp")

	groupName     = field(eflsv1.WaypointGroup, "name")
	groupWaypoint = field(eflsv1.WaypointGroup, "waypoint")

	waypointLat = field(eflsv1.Waypoint, "lat")
	waypointLon = field(eflsv1.Waypoint, "lon")
	waypointAlt = field(eflsv1.Waypoint, "alt")
)

func field(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := md.Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("%s has no field %s", md.FullName(), name))
	}
	return fd
}

// MarshalTelemetry encodes an AircraftLink carrying one aircraft per snapshot.
func MarshalTelemetry(snaps ...core.TelemetrySnapshot) ([]byte, error) {
	link := dynamicpb.NewMessage(eflsv1.AircraftLink)
	aircrafts := link.Mutable(linkAircrafts).List()
	for _, s := range snaps {
		a := aircrafts.NewElement()
		setAircraft(a.Message(), s)
		aircrafts.Append(a)
	}
	return marshalOptions.Marshal(link)
}

func setAircraft(m protoreflect.Message, s core.TelemetrySnapshot) {
	m.Set(aircraftLat, protoreflect.ValueOfFloat64(s.Lat))
	m.Set(aircraftLon, protoreflect.ValueOfFloat64(s.Lon))
	m.Set(aircraftBearing, protoreflect.ValueOfFloat64(s.Heading))
	m.Set(aircraftSpeed, protoreflect.ValueOfFloat64(s.GroundSpeed))
	m.Set(aircraftAltitude, protoreflect.ValueOfFloat64(s.RelativeAlt))
	m.Set(aircraftWindSpeed, protoreflect.ValueOfFloat64(s.WindSpeed))
	m.Set(aircraftWindDirection, protoreflect.ValueOfFloat64(s.WindDirection))
	m.Set(aircraftMotorCurrent, protoreflect.ValueOfFloat64(s.BatteryCurrent))
	m.Set(aircraftMotorThrottle, protoreflect.ValueOfFloat64(s.Throttle))
	if !s.Timestamp.IsZero() {
		m.Set(aircraftTimestamp, protoreflect.ValueOfInt64(s.Timestamp.UnixMilli()))
	}
}

// MarshalPlan encodes an AircraftLink carrying the waypoint groups of plan.
func MarshalPlan(plan *core.LandingPlan) ([]byte, error) {
	if plan == nil {
		return nil, nil
	}
	link := dynamicpb.NewMessage(eflsv1.AircraftLink)
	groups := link.Mutable(linkWaypointGroups).List()
	for _, g := range plan.Groups {
		gv := groups.NewElement()
		gm := gv.Message()
		gm.Set(groupName, protoreflect.ValueOfString(g.Name))
		points := gm.Mutable(groupWaypoint).List()
		for _, p := range g.Points {
			pv := points.NewElement()
			pm := pv.Message()
			pm.Set(waypointLat, protoreflect.ValueOfFloat64(p.Lat))
			pm.Set(waypointLon, protoreflect.ValueOfFloat64(p.Lon))
			pm.Set(waypointAlt, protoreflect.ValueOfFloat64(p.Alt))
			points.Append(pv)
		}
		groups.Append(gv)
	}
	return marshalOptions.Marshal(link)
}

// UnmarshalPlan decodes the waypoint groups of an AircraftLink. Aircraft
// entries and unknown fields are ignored.
func UnmarshalPlan(b []byte) (*core.LandingPlan, error) {
	link, err := unmarshalLink(b)
	if err != nil {
		return nil, err
	}

	plan := &core.LandingPlan{}
	groups := link.Get(linkWaypointGroups).List()
	for i := 0; i < groups.Len(); i++ {
		gm := groups.Get(i).Message()
		g := core.WaypointGroup{Name: gm.Get(groupName).String()}
		points := gm.Get(groupWaypoint).List()
		for j := 0; j < points.Len(); j++ {
			pm := points.Get(j).Message()
			g.Points = append(g.Points, core.Waypoint{
				Lat: pm.Get(waypointLat).Float(),
				Lon: pm.Get(waypointLon).Float(),
				Alt: pm.Get(waypointAlt).Float(),
			})
		}
		plan.Groups = append(plan.Groups, g)
	}
	return plan, nil
}

// UnmarshalTelemetry decodes the aircraft entries of an AircraftLink.
func UnmarshalTelemetry(b []byte) ([]core.TelemetrySnapshot, error) {
	link, err := unmarshalLink(b)
	if err != nil {
		return nil, err
	}

	var out []core.TelemetrySnapshot
	aircrafts := link.Get(linkAircrafts).List()
	for i := 0; i < aircrafts.Len(); i++ {
		out = append(out, snapshotOf(aircrafts.Get(i).Message()))
	}
	return out, nil
}

func snapshotOf(m protoreflect.Message) core.TelemetrySnapshot {
	s := core.TelemetrySnapshot{
		Lat:            m.Get(aircraftLat).Float(),
		Lon:            m.Get(aircraftLon).Float(),
		Heading:        m.Get(aircraftBearing).Float(),
		GroundSpeed:    m.Get(aircraftSpeed).Float(),
		RelativeAlt:    m.Get(aircraftAltitude).Float(),
		WindSpeed:      m.Get(aircraftWindSpeed).Float(),
		WindDirection:  m.Get(aircraftWindDirection).Float(),
		BatteryCurrent: m.Get(aircraftMotorCurrent).Float(),
		Throttle:       m.Get(aircraftMotorThrottle).Float(),
	}
	if m.Has(aircraftTimestamp) {
		s.Timestamp = time.UnixMilli(m.Get(aircraftTimestamp).Int())
	}
	return s
}

func unmarshalLink(b []byte) (*dynamicpb.Message, error) {
	link := dynamicpb.NewMessage(eflsv1.AircraftLink)
	if err := unmarshalOptions.Unmarshal(b, link); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	return link, nil
}
