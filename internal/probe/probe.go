// Package probe serves the standard gRPC health service, reporting SERVING
// while the latest computed report is successful.
package probe

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rallypc/pccalc/pkg/timing"
)

// Service is the health service name that tracks report state. The empty
// service name tracks it as well.
const Service = "pccalc.Report"

// Probe wraps a grpc health server.
type Probe struct {
	health *health.Server
}

// New returns a Probe that reports NOT_SERVING until the first successful
// report is seen.
func New() *Probe {
	p := &Probe{health: health.NewServer()}
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return p
}

// Update records the outcome of the latest run.
func (p *Probe) Update(r *timing.Report) {
	if r != nil && r.Success {
		p.set(healthpb.HealthCheckResponse_SERVING)
		return
	}
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (p *Probe) set(s healthpb.HealthCheckResponse_ServingStatus) {
	p.health.SetServingStatus("", s)
	p.health.SetServingStatus(Service, s)
}

// Register attaches the health service and server reflection to srv.
func (p *Probe) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, p.health)
	reflection.Register(srv)
}

// Shutdown flips every service to NOT_SERVING so watchers see the drain.
func (p *Probe) Shutdown() {
	p.health.Shutdown()
}

// Listen opens a TCP listener for the gRPC port.
func Listen(port int) (net.Listener, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("probe: listen on :%d: %w", port, err)
	}
	slog.Debug("probe: listening", "addr", lis.Addr().String())
	return lis, nil
}
