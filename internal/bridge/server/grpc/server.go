package grpc

import (
	"context"
	"net"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/autopeer-io/efls/internal/pkg/metrics"
	middleware "github.com/autopeer-io/efls/internal/pkg/middleware/grpc"
	"github.com/autopeer-io/efls/pkg/log"
	"github.com/autopeer-io/efls/pkg/options"
)

// ServiceName is the health service the bridge reports on.
const ServiceName = "efls.bridge"

const checkInterval = 500 * time.Millisecond

var serverMetrics = grpcprom.NewServerMetrics()

func init() {
	metrics.Registry.MustRegister(serverMetrics)
}

type Server struct {
	server  *grpc.Server
	health  *health.Server
	options *options.GrpcOptions
	running func() bool
}

// NewServer builds the gRPC health endpoint. ServiceName is SERVING while
// running reports true.
func NewServer(opts *options.GrpcOptions, running func() bool) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			serverMetrics.UnaryServerInterceptor(),
			middleware.UnaryServerLoggingInterceptor(log.Std()),
			middleware.UnaryServerTimeoutInterceptor,
		),
		grpc.ChainStreamInterceptor(
			serverMetrics.StreamServerInterceptor(),
			middleware.StreamServerLoggingInterceptor(log.Std()),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s) // Enable grpc_cli support
	serverMetrics.InitializeMetrics(s)

	return &Server{
		server:  s,
		health:  hs,
		options: opts,
		running: running,
	}
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}

	log.Info("Starting gRPC Server", "addr", s.options.Addr)
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.updateHealth()

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.updateHealth()
		case <-ctx.Done():
			s.health.Shutdown()
			s.server.GracefulStop()
			return nil
		}
	}
}

func (s *Server) updateHealth() {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if s.running() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
}
