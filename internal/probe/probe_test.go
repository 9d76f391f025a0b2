package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rallypc/pccalc/internal/auth"
	"github.com/rallypc/pccalc/pkg/timing"
)

// startServer runs a gRPC server with p registered on an in-memory listener
// and returns a connected health client.
func startServer(t *testing.T, p *Probe, opts ...grpc.ServerOption) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(opts...)
	p.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, ctx context.Context, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error = %v", service, err)
	}
	return resp.GetStatus()
}

func TestProbe_FollowsReports(t *testing.T) {
	p := New()
	c := startServer(t, p)
	ctx := context.Background()

	if got := check(t, ctx, c, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("before first report = %v, want NOT_SERVING", got)
	}

	p.Update(timing.Compute(timing.Input{Files: map[string]string{
		"PC1START.csv": "h\nM,START,01:00:00.00,7\n",
	}}))
	for _, svc := range []string{"", Service} {
		if got := check(t, ctx, c, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) after success = %v, want SERVING", svc, got)
		}
	}

	p.Update(timing.FailedReport("no CSV files found"))
	if got := check(t, ctx, c, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("after failure = %v, want NOT_SERVING", got)
	}
}

func TestProbe_UnknownService(t *testing.T) {
	c := startServer(t, New())
	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other"})
	if code := status.Code(err); code != codes.NotFound {
		t.Errorf("code = %v, want NotFound", code)
	}
}

func TestProbe_APIKey(t *testing.T) {
	g := auth.NewGuard(auth.ModeAPIKey, "x-api-key", "secret")
	p := New()
	p.Update(timing.Compute(timing.Input{Files: map[string]string{
		"PC1GOAL.csv": "h\nM,GOAL,01:00:00.00,7\n",
	}}))
	c := startServer(t, p, grpc.UnaryInterceptor(g.UnaryInterceptor()))

	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Fatalf("without key: code = %v, want Unauthenticated", code)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", "secret")
	if got := check(t, ctx, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("with key = %v, want SERVING", got)
	}
}
