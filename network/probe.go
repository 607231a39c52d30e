package network

import (
	"context"
	"time"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"

	"github.com/Mosas2000/BitHodl/sdk"
)

const DefaultProbeTimeout = 10 * time.Second

// Status is a point-in-time snapshot of chain-API reachability. IsOnline is
// the host-level signal (browser navigator.onLine equivalent), IsConnected
// means the chain API answered, LatencyMs is the measured round trip.
type Status struct {
	IsOnline    bool
	IsConnected bool
	LatencyMs   int64
	Err         string
}

// Probe measures connectivity and latency against the chain status API.
type Probe struct {
	lggr    logger.Logger
	client  sdk.StacksClient
	timeout time.Duration

	// Online reports host-level network availability. Injectable so tests
	// and embedders without such a signal can stub it; defaults to true.
	online func() bool
	now    func() time.Time
}

func NewProbe(lggr logger.Logger, client sdk.StacksClient, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Probe{
		lggr:    logger.Named(lggr, "NetworkProbe"),
		client:  client,
		timeout: timeout,
		online:  func() bool { return true },
		now:     time.Now,
	}
}

// SetOnlineFn overrides the host-level online signal.
func (p *Probe) SetOnlineFn(fn func() bool) {
	if fn != nil {
		p.online = fn
	}
}

// Connectivity checks whether the chain status API is reachable.
func (p *Probe) Connectivity(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.client.GetStatus(ctx); err != nil {
		p.lggr.Debugw("connectivity check failed", "err", err)
		return false
	}
	return true
}

// Latency measures the round-trip time of one status request.
func (p *Probe) Latency(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	if _, err := p.client.GetStatus(ctx); err != nil {
		return 0, err
	}
	return p.now().Sub(start), nil
}

// GetStatus computes a full Status snapshot: online flag, reachability and,
// when reachable, latency.
func (p *Probe) GetStatus(ctx context.Context) Status {
	status := Status{IsOnline: p.online(), LatencyMs: -1}
	if !status.IsOnline {
		return status
	}

	latency, err := p.Latency(ctx)
	if err != nil {
		status.Err = err.Error()
		return status
	}

	status.IsConnected = true
	status.LatencyMs = latency.Milliseconds()
	return status
}
