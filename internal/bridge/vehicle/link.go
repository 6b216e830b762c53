// Package vehicle implements the mission protocol of the vehicle over an MQTT
// link to the MAVLink router running next to the flight controller.
package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/pkg/metrics"
	"github.com/autopeer-io/efls/internal/pkg/mqtt/adapter"
	"github.com/autopeer-io/efls/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/efls/pkg/log"
	pkgmqtt "github.com/autopeer-io/efls/pkg/mqtt"
	"github.com/autopeer-io/efls/pkg/mqtt/topic"
)

var _ core.VehicleMissionService = (*Link)(nil)

// statusTextLen is the capacity of STATUSTEXT.text.
const statusTextLen = 50

// Link is the MQTT side of the vehicle.
type Link struct {
	client   pkgmqtt.Client
	topics   *topic.Builder
	systemID uint8
	id       string
	qos      int
	receiver core.Receiver
}

// NewLink returns a Link for the vehicle with the given MAVLink system id.
// Decoded upstream messages are posted to receiver.
func NewLink(client pkgmqtt.Client, builder *topic.Builder, systemID uint8, qos int, receiver core.Receiver) *Link {
	return &Link{
		client:   client,
		topics:   builder,
		systemID: systemID,
		id:       strconv.Itoa(int(systemID)),
		qos:      qos,
		receiver: receiver,
	}
}

// OnlineTopic is the retained presence topic of the bridge. It doubles as the
// MQTT last will.
func OnlineTopic(builder *topic.Builder, systemID uint8) string {
	return builder.Build(paths.Online, strconv.Itoa(int(systemID)))
}

// Start connects to the broker, subscribes to the upstream topics and blocks
// until ctx is done.
func (l *Link) Start(ctx context.Context) error {
	if err := l.client.Start(ctx); err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.client.Publish(shutdownCtx, OnlineTopic(l.topics, l.systemID), 1, true, []byte("false"))
		l.client.Disconnect(shutdownCtx)
		metrics.VehicleLinkUp.Set(0)
	}()

	log.Info("Waiting for MQTT connection...", "systemID", l.systemID)
	if err := l.client.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if err := l.subscribe(ctx); err != nil {
		return err
	}
	if err := l.client.Publish(ctx, OnlineTopic(l.topics, l.systemID), 1, true, []byte("true")); err != nil {
		log.Warn("Failed to publish presence", "error", err)
	}
	metrics.VehicleLinkUp.Set(1)
	log.Info("Vehicle link up", "systemID", l.systemID)

	<-ctx.Done()
	return nil
}

// Ready reports whether the broker connection is up.
func (l *Link) Ready() bool {
	return l.client.IsConnected()
}

func (l *Link) routes() map[string]adapter.HandlerFunc {
	return map[string]adapter.HandlerFunc{
		paths.MissionCount:   adapter.JSONHandler(l.handleMissionCount),
		paths.MissionItem:    adapter.JSONHandler(l.handleMissionItem),
		paths.GlobalPosition: adapter.JSONHandler(l.handleGlobalPosition),
		paths.SysStatus:      adapter.JSONHandler(l.handleSysStatus),
		paths.VfrHud:         adapter.JSONHandler(l.handleVfrHud),
		paths.Wind:           adapter.JSONHandler(l.handleWind),
	}
}

func (l *Link) subscribe(ctx context.Context) error {
	for segment, handler := range l.routes() {
		fullTopic := l.topics.Build(segment, l.id)
		if err := l.client.Subscribe(ctx, fullTopic, l.qos, func(c context.Context, _ string, p []byte) {
			if err := handler(c, p); err != nil {
				log.Error(err, "Handler execution failed", "topic", fullTopic)
			}
		}); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", fullTopic, err)
		}
	}
	return nil
}

func (l *Link) post(ev core.Event) error {
	if !l.receiver.Post(ev) {
		return fmt.Errorf("event queue full, dropped %T", ev)
	}
	return nil
}

func (l *Link) handleMissionCount(ctx context.Context, m *missionCount) error {
	log.Debug("MISSION_COUNT received", "count", m.Count)
	return l.post(core.MissionCountEvent{Count: m.Count})
}

func (l *Link) handleMissionItem(ctx context.Context, m *missionItemInt) error {
	return l.post(core.MissionItemEvent{Item: fromMissionItemInt(m)})
}

func (l *Link) handleGlobalPosition(ctx context.Context, m *globalPositionInt) error {
	return l.post(core.TelemetryEvent{Update: m.update()})
}

func (l *Link) handleSysStatus(ctx context.Context, m *sysStatus) error {
	return l.post(core.TelemetryEvent{Update: m.update()})
}

func (l *Link) handleVfrHud(ctx context.Context, m *vfrHud) error {
	return l.post(core.TelemetryEvent{Update: m.update()})
}

func (l *Link) handleWind(ctx context.Context, m *wind) error {
	return l.post(core.TelemetryEvent{Update: m.update()})
}

// RequestMissionList implements core.VehicleMissionService.
func (l *Link) RequestMissionList(ctx context.Context) error {
	return l.send(ctx, paths.MissionRequestList, &missionRequestList{
		ID:           uuid.NewString(),
		TargetSystem: l.systemID,
	})
}

// UploadMission implements core.VehicleMissionService.
func (l *Link) UploadMission(ctx context.Context, mission core.Mission) error {
	if err := mission.Validate(); err != nil {
		return err
	}
	items := make([]missionItemInt, len(mission))
	for i, item := range mission {
		items[i] = toMissionItemInt(item)
	}
	return l.send(ctx, paths.MissionUpload, &missionUpload{
		ID:           uuid.NewString(),
		TargetSystem: l.systemID,
		Items:        items,
	})
}

// SetCurrentItem implements core.VehicleMissionService.
func (l *Link) SetCurrentItem(ctx context.Context, seq uint16) error {
	return l.send(ctx, paths.MissionSetCurrent, &missionSetCurrent{
		ID:           uuid.NewString(),
		TargetSystem: l.systemID,
		Seq:          seq,
	})
}

// SendStatusText implements core.VehicleMissionService. Text longer than a
// STATUSTEXT message is truncated.
func (l *Link) SendStatusText(ctx context.Context, severity core.Severity, text string) error {
	return l.send(ctx, paths.StatusText, &statusText{
		ID:       uuid.NewString(),
		Severity: uint8(severity),
		Text:     truncateText(text, statusTextLen),
	})
}

// truncateText cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (l *Link) send(ctx context.Context, segment string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t := l.topics.Build(segment, l.id)
	err = l.client.Publish(ctx, t, l.qos, false, payload)
	metrics.VehicleCommands.WithLabelValues(segment, metrics.CommandStatus(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", t, err)
	}
	log.Debug("Published vehicle command", "topic", t, "payloadSize", len(payload))
	return nil
}
