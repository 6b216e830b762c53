package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/autopeer-io/efls/internal/bridge/core"
	pkgmqtt "github.com/autopeer-io/efls/pkg/mqtt"
	"github.com/autopeer-io/efls/pkg/mqtt/topic"
)

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu         sync.Mutex
	published  []published
	handlers   map[string]pkgmqtt.MessageHandler
	publishErr error
	subscribed chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:   make(map[string]pkgmqtt.MessageHandler),
		subscribed: make(chan struct{}, 16),
	}
}

func (f *fakeClient) Start(ctx context.Context) error { return nil }
func (f *fakeClient) Disconnect(ctx context.Context)  {}
func (f *fakeClient) IsConnected() bool               { return true }

func (f *fakeClient) AwaitConnection(ctx context.Context) error { return nil }

func (f *fakeClient) Publish(ctx context.Context, t string, qos int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{topic: t, retain: retain, payload: payload})
	return nil
}

func (f *fakeClient) Subscribe(ctx context.Context, t string, qos int, handler pkgmqtt.MessageHandler) error {
	f.mu.Lock()
	f.handlers[t] = handler
	f.mu.Unlock()
	f.subscribed <- struct{}{}
	return nil
}

func (f *fakeClient) Unsubscribe(ctx context.Context, t string) error { return nil }

func (f *fakeClient) deliver(t string, payload string) {
	f.mu.Lock()
	h := f.handlers[t]
	f.mu.Unlock()
	if h != nil {
		h(context.Background(), t, []byte(payload))
	}
}

func (f *fakeClient) last() published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[len(f.published)-1]
}

type recorder struct {
	mu     sync.Mutex
	events []core.Event
	full   bool
}

func (r *recorder) Post(ev core.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

func startLink(t *testing.T, rec *recorder) (*Link, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	l := NewLink(client, topic.NewBuilder("efls/v1"), 1, 1, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Start() error = %v", err)
		}
	})

	for range l.routes() {
		select {
		case <-client.subscribed:
		case <-time.After(5 * time.Second):
			t.Fatal("link did not subscribe")
		}
	}
	return l, client
}

func TestLinkDecodesMissionMessages(t *testing.T) {
	rec := &recorder{}
	_, client := startLink(t, rec)

	client.deliver("efls/v1/mission/count/1", `{"count":2}`)
	client.deliver("efls/v1/mission/item/1", `{"seq":1,"frame":3,"command":189,"autocontinue":1,"x":-353632610,"y":1491652300,"z":50}`)

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	if ev, ok := rec.events[0].(core.MissionCountEvent); !ok || ev.Count != 2 {
		t.Errorf("events[0] = %#v", rec.events[0])
	}
	ev, ok := rec.events[1].(core.MissionItemEvent)
	if !ok {
		t.Fatalf("events[1] = %#v", rec.events[1])
	}
	want := core.MissionItem{Seq: 1, Frame: 3, Command: core.CmdDoLandStart, Lat: -35.363261, Lon: 149.16523, Alt: 50, Autocontinue: true}
	if math.Abs(ev.Item.Lat-want.Lat) > 1e-9 || math.Abs(ev.Item.Lon-want.Lon) > 1e-9 {
		t.Errorf("item position = %v,%v", ev.Item.Lat, ev.Item.Lon)
	}
	ev.Item.Lat, ev.Item.Lon = want.Lat, want.Lon
	if ev.Item != want {
		t.Errorf("item = %+v, want %+v", ev.Item, want)
	}
}

func TestLinkScalesTelemetry(t *testing.T) {
	rec := &recorder{}
	_, client := startLink(t, rec)

	client.deliver("efls/v1/telemetry/global-position/1", `{"lat":-353632610,"lon":1491652300,"relative_alt":12000,"vx":300,"vy":-100,"hdg":27150}`)
	client.deliver("efls/v1/telemetry/sys-status/1", `{"current_battery":1130}`)
	client.deliver("efls/v1/telemetry/vfr-hud/1", `{"throttle":48}`)
	client.deliver("efls/v1/telemetry/wind/1", `{"direction":200,"speed":4.5}`)

	if len(rec.events) != 4 {
		t.Fatalf("got %d events, want 4", len(rec.events))
	}

	pos := rec.events[0].(core.TelemetryEvent).Update.(core.PositionUpdate)
	if math.Abs(pos.Lat+35.363261) > 1e-9 || math.Abs(pos.Heading-271.5) > 1e-9 ||
		math.Abs(pos.GroundSpeed-2) > 1e-9 || math.Abs(pos.RelativeAlt-120) > 1e-9 {
		t.Errorf("position = %+v", pos)
	}
	if bat := rec.events[1].(core.TelemetryEvent).Update.(core.BatteryUpdate); math.Abs(bat.Current-11.3) > 1e-9 {
		t.Errorf("battery = %+v", bat)
	}
	if thr := rec.events[2].(core.TelemetryEvent).Update.(core.ThrottleUpdate); thr.Throttle != 48 {
		t.Errorf("throttle = %+v", thr)
	}
	if w := rec.events[3].(core.TelemetryEvent).Update.(core.WindUpdate); w.Speed != 4.5 || w.Direction != 200 {
		t.Errorf("wind = %+v", w)
	}
}

func TestLinkIgnoresMalformedPayload(t *testing.T) {
	rec := &recorder{}
	_, client := startLink(t, rec)

	client.deliver("efls/v1/mission/count/1", `not json`)
	if len(rec.events) != 0 {
		t.Errorf("malformed payload produced %d events", len(rec.events))
	}
}

func TestLinkCommands(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	l := NewLink(client, topic.NewBuilder("efls/v1"), 7, 1, &recorder{})

	if err := l.RequestMissionList(ctx); err != nil {
		t.Fatalf("RequestMissionList() error = %v", err)
	}
	if got := client.last().topic; got != "efls/v1/mission/request-list/7" {
		t.Errorf("topic = %q", got)
	}

	mission := core.Mission{
		{Seq: 0, Command: core.CmdNavWaypoint, Lat: 1.5, Lon: -2.25, Alt: 30, Autocontinue: true},
		{Seq: 1, Command: core.CmdNavLand},
	}
	if err := l.UploadMission(ctx, mission); err != nil {
		t.Fatalf("UploadMission() error = %v", err)
	}
	var up missionUpload
	if err := json.Unmarshal(client.last().payload, &up); err != nil {
		t.Fatal(err)
	}
	if up.TargetSystem != 7 || len(up.Items) != 2 || up.Items[0].X != 15000000 || up.Items[0].Y != -22500000 || up.Items[0].Autocontinue != 1 {
		t.Errorf("upload = %+v", up)
	}

	if err := l.SetCurrentItem(ctx, 5); err != nil {
		t.Fatalf("SetCurrentItem() error = %v", err)
	}
	var cur missionSetCurrent
	_ = json.Unmarshal(client.last().payload, &cur)
	if cur.Seq != 5 || client.last().topic != "efls/v1/mission/set-current/7" {
		t.Errorf("set current = %+v on %s", cur, client.last().topic)
	}

	long := "EFLS plan rejected: mission has no DO_LAND_START item, keeping current mission"
	if err := l.SendStatusText(ctx, core.SeverityWarning, long); err != nil {
		t.Fatalf("SendStatusText() error = %v", err)
	}
	var st statusText
	_ = json.Unmarshal(client.last().payload, &st)
	if len(st.Text) != statusTextLen || st.Severity != uint8(core.SeverityWarning) {
		t.Errorf("statustext = %+v", st)
	}
}

func TestLinkUploadRejectsGaps(t *testing.T) {
	l := NewLink(newFakeClient(), topic.NewBuilder("efls/v1"), 1, 1, &recorder{})
	if err := l.UploadMission(context.Background(), core.Mission{{Seq: 1}}); err == nil {
		t.Error("UploadMission() accepted a mission not numbered from zero")
	}
}

func TestLinkPublishError(t *testing.T) {
	client := newFakeClient()
	client.publishErr = errors.New("not connected")
	l := NewLink(client, topic.NewBuilder("efls/v1"), 1, 1, &recorder{})
	if err := l.SetCurrentItem(context.Background(), 3); !errors.Is(err, client.publishErr) {
		t.Errorf("SetCurrentItem() error = %v", err)
	}
}

func TestToDegE7(t *testing.T) {
	tests := []struct {
		deg  float64
		want int32
	}{
		{0, 0},
		{-35.3632610, -353632610},
		{149.1652300, 1491652300},
		{1e-7, 1},
	}
	for _, tt := range tests {
		if got := toDegE7(tt.deg); got != tt.want {
			t.Errorf("toDegE7(%v) = %d, want %d", tt.deg, got, tt.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	a49 := strings.Repeat("a", 49)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "short", in: "EFLS", want: "EFLS"},
		{name: "exact fit", in: a49[:48] + "é", want: a49[:48] + "é"},
		{name: "ascii cut", in: a49 + "bc", want: a49 + "b"},
		{name: "multibyte straddles limit", in: a49 + "é", want: a49},
		{name: "three byte rune", in: a49[:48] + "€x", want: a49[:48]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.in, statusTextLen)
			if got != tt.want {
				t.Errorf("truncateText() = %q, want %q", got, tt.want)
			}
			if len(got) > statusTextLen || !utf8.ValidString(got) {
				t.Errorf("truncateText() = %q: %d bytes, valid = %v", got, len(got), utf8.ValidString(got))
			}
		})
	}
}
