package grpctransport

import (
	"context"
	"net"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name the storefront reports its health under.
const ServiceName = "storefront"

// GRPCTransport serves the standard health service and reflection.
type GRPCTransport struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	log      *zap.Logger
}

// NewGRPCTransport creates a new GRPCTransport listening on server.grpc.port.
func NewGRPCTransport() *GRPCTransport {
	listener, err := net.Listen("tcp", ":"+viper.GetString("server.grpc.port"))
	if err != nil {
		panic(err)
	}

	return newGRPCTransport(listener)
}

func newGRPCTransport(listener net.Listener) *GRPCTransport {
	log := zap.L().Named("grpc")
	g := &GRPCTransport{
		server:   newGRPCServer(log),
		listener: listener,
		health:   health.NewServer(),
		log:      log,
	}
	g.RegisterServices()

	return g
}

// Run marks the services SERVING and blocks serving requests.
func (g *GRPCTransport) Run() error {
	g.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	g.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	g.log.Info("Starting gRPC server", zap.String("address", g.listener.Addr().String()))

	return g.server.Serve(g.listener)
}

// Shutdown reports NOT_SERVING and then gracefully stops the server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	healthpb.RegisterHealthServer(g.server, g.health)
	reflection.Register(g.server)
}

func keepaliveSetting(key string, unit time.Duration) time.Duration {
	return time.Duration(viper.GetInt("server.grpc.keepalive."+key)) * unit
}

// newGRPCServer builds the server with keepalive limits from server.grpc.keepalive.*.
func newGRPCServer(log *zap.Logger) *grpc.Server {
	return grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     keepaliveSetting("max_connection_idle", time.Minute),
			MaxConnectionAge:      keepaliveSetting("max_connection_age", time.Minute),
			MaxConnectionAgeGrace: keepaliveSetting("max_connection_age_grace", time.Second),
			Time:                  keepaliveSetting("time", time.Second),
			Timeout:               keepaliveSetting("timeout", time.Second),
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             keepaliveSetting("min_time", time.Second),
			PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
		}),
		grpc.ChainUnaryInterceptor(recoveryInterceptor(log), loggingInterceptor(log)),
	)
}

// recoveryInterceptor turns a handler panic into codes.Internal instead of killing the process.
func recoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("gRPC handler panicked", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Error(codes.Internal, "internal error")
			}
		}()

		return handler(ctx, req)
	}
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("gRPC call served", fields...)
		}

		return resp, err
	}
}
