package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/pkg/mqtt/adapter"
	"github.com/autopeer-io/efls/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/efls/pkg/log"
	pkgmqtt "github.com/autopeer-io/efls/pkg/mqtt"
	"github.com/autopeer-io/efls/pkg/mqtt/topic"
)

const defaultTelemetryInterval = time.Second

// Simulator plays the router side of the link for a vehicle holding mission
// in memory. It answers downloads, stores uploads and streams telemetry from
// the position of the current item.
type Simulator struct {
	client   pkgmqtt.Client
	topics   *topic.Builder
	id       string
	qos      int
	interval time.Duration

	mu      sync.Mutex
	mission core.Mission
	current uint16
	notices []string
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithTelemetryInterval sets the telemetry period. Zero disables telemetry.
func WithTelemetryInterval(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		s.interval = d
	}
}

func NewSimulator(client pkgmqtt.Client, builder *topic.Builder, systemID uint8, qos int, mission core.Mission, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		client:   client,
		topics:   builder,
		id:       strconv.Itoa(int(systemID)),
		qos:      qos,
		interval: defaultTelemetryInterval,
		mission:  mission.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects, subscribes to the downstream topics and streams telemetry
// until ctx is done.
func (s *Simulator) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	if err := s.client.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	routes := map[string]adapter.HandlerFunc{
		paths.MissionRequestList: adapter.JSONHandler(s.handleRequestList),
		paths.MissionUpload:      adapter.JSONHandler(s.handleUpload),
		paths.MissionSetCurrent:  adapter.JSONHandler(s.handleSetCurrent),
		paths.StatusText:         adapter.JSONHandler(s.handleStatusText),
	}
	for segment, handler := range routes {
		fullTopic := s.topics.Build(segment, s.id)
		if err := s.client.Subscribe(ctx, fullTopic, s.qos, func(c context.Context, _ string, p []byte) {
			if err := handler(c, p); err != nil {
				log.Error(err, "Simulator handler failed", "topic", fullTopic)
			}
		}); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", fullTopic, err)
		}
	}
	log.Info("Vehicle simulator up", "systemID", s.id, "items", len(s.Mission()))

	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.publishTelemetry(ctx)
		}
	}
}

// Mission returns the mission currently held by the vehicle.
func (s *Simulator) Mission() core.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mission.Clone()
}

// Current returns the active item.
func (s *Simulator) Current() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Notices returns the status texts received so far.
func (s *Simulator) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notices...)
}

func (s *Simulator) handleRequestList(ctx context.Context, m *missionRequestList) error {
	mission := s.Mission()
	if err := s.publish(ctx, paths.MissionCount, &missionCount{Count: uint16(len(mission))}); err != nil {
		return err
	}
	for _, item := range mission {
		mi := toMissionItemInt(item)
		if err := s.publish(ctx, paths.MissionItem, &mi); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) handleUpload(ctx context.Context, m *missionUpload) error {
	mission := make(core.Mission, len(m.Items))
	for i := range m.Items {
		mission[i] = fromMissionItemInt(&m.Items[i])
	}
	if err := mission.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.mission = mission
	if int(s.current) >= len(mission) {
		s.current = 0
	}
	s.mu.Unlock()
	log.Info("Mission uploaded", "items", len(mission))
	return nil
}

func (s *Simulator) handleSetCurrent(ctx context.Context, m *missionSetCurrent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(m.Seq) >= len(s.mission) {
		return fmt.Errorf("set current %d beyond mission of %d items", m.Seq, len(s.mission))
	}
	s.current = m.Seq
	log.Info("Current mission item set", "seq", m.Seq)
	return nil
}

func (s *Simulator) handleStatusText(ctx context.Context, m *statusText) error {
	s.mu.Lock()
	s.notices = append(s.notices, m.Text)
	s.mu.Unlock()
	log.Info("STATUSTEXT", "severity", m.Severity, "text", m.Text)
	return nil
}

func (s *Simulator) publishTelemetry(ctx context.Context) {
	s.mu.Lock()
	var pos core.MissionItem
	if int(s.current) < len(s.mission) {
		pos = s.mission[s.current]
	}
	s.mu.Unlock()

	msgs := map[string]any{
		paths.GlobalPosition: &globalPositionInt{
			Lat:         toDegE7(pos.Lat),
			Lon:         toDegE7(pos.Lon),
			RelativeAlt: int32(pos.Alt * 100),
			Vx:          1200,
			Hdg:         9000,
		},
		paths.SysStatus: &sysStatus{CurrentBattery: 1530},
		paths.VfrHud:    &vfrHud{Throttle: 48},
		paths.Wind:      &wind{Direction: 270, Speed: 4.5},
	}
	for segment, msg := range msgs {
		if err := s.publish(ctx, segment, msg); err != nil {
			log.Warn("Failed to publish telemetry", "segment", segment, "error", err)
		}
	}
}

func (s *Simulator) publish(ctx context.Context, segment string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.topics.Build(segment, s.id), s.qos, false, payload)
}
