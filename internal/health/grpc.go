package health

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer serves the standard grpc.health.v1 service
type GRPCServer struct {
	address string
	server  *grpc.Server
	health  *grpchealth.Server
	logger  *logrus.Entry
}

// NewGRPCServer creates a new gRPC health server. Every service starts as
// NOT_SERVING until SetServing is called.
func NewGRPCServer(address string, logger *logrus.Logger) *GRPCServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &GRPCServer{
		address: address,
		server:  server,
		health:  hs,
		logger:  logger.WithField("component", "grpc_health"),
	}
}

// SetServing sets the status of a service. The empty name is the overall
// server status.
func (g *GRPCServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus(service, status)
}

// Start listens on the configured address and serves in the background
// until ctx is cancelled
func (g *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.address, err)
	}

	go func() {
		g.logger.WithField("address", lis.Addr().String()).Info("gRPC health server starting")
		if err := g.Serve(lis); err != nil {
			g.logger.WithError(err).Error("gRPC health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		g.Stop()
	}()

	return nil
}

// Serve serves on lis until Stop is called
func (g *GRPCServer) Serve(lis net.Listener) error {
	return g.server.Serve(lis)
}

// Stop marks every service as not serving and stops the server
func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
	g.logger.Info("gRPC health server stopped")
}
