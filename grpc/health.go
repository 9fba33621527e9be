package grpc

import (
	"context"
	"fmt"
	"net"

	"guild-mirror/utils"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported for the store.
const ServiceName = "guildmirror.Store"

// Prober is the connectivity check behind the health service.
type Prober interface {
	Probe(ctx context.Context) error
}

// healthService answers Check by probing the store on every call.
type healthService struct {
	healthpb.UnimplementedHealthServer
	prober Prober
}

func (h *healthService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if err := h.prober.Probe(ctx); err != nil {
		utils.L().Warn("health probe failed", zap.Error(err))
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// Server exposes the grpc.health.v1 service.
type Server struct {
	srv *grpc.Server
}

// NewServer registers the health service for prober on a new gRPC server.
func NewServer(prober Prober) *Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, &healthService{prober: prober})
	return &Server{srv: srv}
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	utils.L().Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("gRPC server: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and serves in the background.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	go func() {
		if err := s.Serve(lis); err != nil {
			utils.L().Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight calls and stops the server.
func (s *Server) Stop() {
	s.srv.GracefulStop()
}
