package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/goblog/internal/logging"
)

// Services reported by the health server besides the overall "" entry.
const (
	WebService = "goblog.web"
	APIService = "goblog.api"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer is the standard grpc.health.v1 service whose status follows
// database reachability. The status is refreshed on every Check.
type HealthServer struct {
	*health.Server
	db     Pinger
	logger logging.Logger
}

func NewHealthServer(db Pinger, l logging.Logger) *HealthServer {
	return &HealthServer{
		Server: health.NewServer(),
		db:     db,
		logger: l.With("module", "grpc_health"),
	}
}

func (h *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	h.Refresh(ctx)
	return h.Server.Check(ctx, req)
}

// Refresh pings the database and publishes the result for every service.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.db.PingContext(pingCtx); err != nil {
		h.logger.Warn(ctx, "database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	for _, svc := range []string{"", WebService, APIService} {
		h.SetServingStatus(svc, status)
	}

	return status
}
