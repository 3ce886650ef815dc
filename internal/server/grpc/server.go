// Package grpc runs the gRPC listener that exposes the health service.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/goblog/internal/logging"
)

type GRPCServer struct {
	address string
	health  *HealthServer
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, h *HealthServer) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		health:  h,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)

	// marks every service before the first Check
	s.health.Refresh(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
