package server

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

// HealthService is the service name the game host reports under.
const HealthService = "tcg.GameHost"

// RecoveryInterceptor turns handler panics into Internal errors.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in grpc handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Errorf(codes.Internal, "internal error: %v", r)
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every unary call at debug level.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		)
		return resp, err
	}
}

// HealthServer is a gRPC server exposing only the standard health service.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewHealthServer creates the server and marks the host as serving.
func NewHealthServer(logger *zap.Logger) *HealthServer {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(RecoveryInterceptor(logger), LoggingInterceptor(logger)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)
	return &HealthServer{grpc: s, health: hs}
}

// GRPC returns the underlying server for Serve and GracefulStop.
func (s *HealthServer) GRPC() *grpc.Server {
	return s.grpc
}

// SetServing flips the reported status of the host.
func (s *HealthServer) SetServing(serving bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(HealthService, st)
}

// Shutdown marks every service as not serving and stops the server.
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
