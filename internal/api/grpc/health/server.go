package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oshokin/lost-alarm/internal/logger"
)

// Server wraps a gRPC server exposing grpc.health.v1.
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
}

// NewServer registers health and reflection services. Every channel starts
// NOT_SERVING; the overall ("") status is SERVING.
func NewServer(channels ...string) *Server {
	hs := grpchealth.NewServer()

	for _, name := range channels {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &Server{
		grpc:   gs,
		health: hs,
	}
}

// SetChannelStatus reports whether a channel backend is usable.
func (s *Server) SetChannelStatus(name string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus(name, status)
}

// Serve accepts connections on lis until ctx is canceled, then drains them.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	ctx = logger.WithName(ctx, "grpc-health")

	// Closed after GracefulStop so Serve does not return before the drain ends.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC health server")
		s.health.Shutdown()
		s.grpc.GracefulStop()
		close(done)
	}()

	logger.InfoKV(ctx, "gRPC health server listening", "listen_address", lis.Addr().String())

	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done

	return nil
}
