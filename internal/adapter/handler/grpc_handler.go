package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ProductServiceName is the health-check service name reported for the
// product API.
const ProductServiceName = "inventory.ProductService"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GRPCHealth serves the standard gRPC health protocol for the server.
type GRPCHealth struct {
	server *health.Server
	deps   []Pinger
}

func NewGRPCHealth(deps ...Pinger) *GRPCHealth {
	return &GRPCHealth{server: health.NewServer(), deps: deps}
}

func (h *GRPCHealth) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Check pings every dependency and publishes SERVING or NOT_SERVING for
// both the overall server and the product service.
func (h *GRPCHealth) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, dep := range h.deps {
		if err := dep.PingContext(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			break
		}
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ProductServiceName, status)
	return status
}

// Shutdown flips every service to NOT_SERVING.
func (h *GRPCHealth) Shutdown() {
	h.server.Shutdown()
}
