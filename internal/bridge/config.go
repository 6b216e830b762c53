package bridge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/bridge/exchange"
	"github.com/autopeer-io/efls/internal/bridge/reconcile"
	"github.com/autopeer-io/efls/internal/bridge/server"
	"github.com/autopeer-io/efls/internal/bridge/server/grpc"
	"github.com/autopeer-io/efls/internal/bridge/server/http"
	"github.com/autopeer-io/efls/internal/bridge/vehicle"
	pkgmqtt "github.com/autopeer-io/efls/pkg/mqtt"
	"github.com/autopeer-io/efls/pkg/mqtt/topic"
	"github.com/autopeer-io/efls/pkg/options"
)

type Config struct {
	MqttOptions      *options.MqttOptions
	HttpOptions      *options.HttpOptions
	GrpcOptions      *options.GrpcOptions
	S3Options        *options.S3Options
	ExchangeOptions  *options.ExchangeOptions
	ReconcileOptions *options.ReconcileOptions
}

// NewBridge wires the exchange channel, the vehicle link, the reconciler and
// the servers. Nothing is started.
func (cfg *Config) NewBridge() (*Bridge, error) {
	b := &Bridge{}

	channel, err := cfg.newChannel(b)
	if err != nil {
		return nil, err
	}

	topicBuilder := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
	mqttClient, err := pkgmqtt.NewClient(cfg.clientConfig(topicBuilder))
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	// The link posts into the orchestrator, which commands the vehicle
	// through the link.
	var orch *reconcile.Orchestrator
	link := vehicle.NewLink(mqttClient, topicBuilder, cfg.MqttOptions.SystemID, cfg.MqttOptions.QoS,
		core.ReceiverFunc(func(ev core.Event) bool { return orch.Post(ev) }))

	ro := cfg.ReconcileOptions
	orch = reconcile.New(link, channel,
		reconcile.WithTickInterval(ro.TickInterval),
		reconcile.WithFetchTimeoutTicks(ro.FetchTimeoutTicks),
		reconcile.WithFrame(ro.Frame),
		reconcile.WithEventBuffer(ro.EventBuffer),
		reconcile.WithCommandTimeout(ro.CommandTimeout),
	)

	servers := []server.Server{orch, link}
	if b.watcher != nil {
		servers = append(servers, b.watcher)
	}
	if cfg.HttpOptions.Enabled {
		servers = append(servers, http.NewServer(cfg.HttpOptions, orch, map[string]func() bool{
			"reconciler":   orch.Running,
			"vehicle-link": link.Ready,
		}))
	}
	if cfg.GrpcOptions.Enabled {
		servers = append(servers, grpc.NewServer(cfg.GrpcOptions, orch.Running))
	}
	b.serverManager = server.NewManager(servers...)

	return b, nil
}

func (cfg *Config) newChannel(b *Bridge) (core.ExchangeChannel, error) {
	eo := cfg.ExchangeOptions
	switch eo.Backend {
	case options.ExchangeBackendS3:
		bucket, err := exchange.NewBucket(cfg.S3Options, eo.InboundKey, eo.OutboundKey)
		if err != nil {
			return nil, err
		}
		b.bucket = bucket
		return bucket, nil
	case options.ExchangeBackendFile:
		file := exchange.NewFile(eo.InboundPath, eo.OutboundPath)
		if eo.Watch {
			b.watcher = file
		}
		return file, nil
	default:
		return nil, fmt.Errorf("unknown exchange backend %q", eo.Backend)
	}
}

// clientConfig registers a retained "false" on the online topic as last will,
// so EFLS sees the bridge drop off the link.
func (cfg *Config) clientConfig(builder *topic.Builder) *pkgmqtt.ClientConfig {
	cc := cfg.MqttOptions.ToClientConfig()
	if cc.ClientID == "" {
		cc.ClientID = "efls-bridge-" + uuid.NewString()
	}
	cc.WillTopic = vehicle.OnlineTopic(builder, cfg.MqttOptions.SystemID)
	cc.WillPayload = []byte("false")
	cc.WillQoS = byte(cfg.MqttOptions.QoS)
	cc.WillRetain = true
	return cc
}
