package network

import (
	"context"
	"sync"
	"time"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/smartcontractkit/chainlink-common/pkg/services"
	"github.com/smartcontractkit/chainlink-common/pkg/utils"
)

const DefaultStatusPollPeriod = 30 * time.Second

// Monitor periodically probes the chain API and broadcasts Status snapshots
// to subscribers.
type Monitor struct {
	services.StateMachine
	lggr       logger.Logger
	probe      *Probe
	pollPeriod time.Duration

	mu          sync.Mutex
	subscribers map[int]func(Status)
	nextSubID   int
	lastStatus  *Status

	stop services.StopChan
	done chan struct{}
}

func NewMonitor(lggr logger.Logger, probe *Probe, pollPeriod time.Duration) *Monitor {
	if pollPeriod <= 0 {
		pollPeriod = DefaultStatusPollPeriod
	}
	return &Monitor{
		lggr:        logger.Named(lggr, "NetworkMonitor"),
		probe:       probe,
		pollPeriod:  pollPeriod,
		subscribers: map[int]func(Status){},
		stop:        make(services.StopChan),
		done:        make(chan struct{}),
	}
}

func (m *Monitor) Name() string {
	return m.lggr.Name()
}

func (m *Monitor) Start(context.Context) error {
	return m.StartOnce("NetworkMonitor", func() error {
		go m.monitor()
		return nil
	})
}

func (m *Monitor) Close() error {
	return m.StopOnce("NetworkMonitor", func() error {
		close(m.stop)
		<-m.done
		return nil
	})
}

func (m *Monitor) HealthReport() map[string]error {
	return map[string]error{m.Name(): m.Healthy()}
}

// Subscribe registers a callback for status updates. The returned
// unsubscribe func is idempotent.
func (m *Monitor) Subscribe(fn func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// LastStatus returns the most recent snapshot, or nil before the first poll.
func (m *Monitor) LastStatus() *Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastStatus == nil {
		return nil
	}
	status := *m.lastStatus
	return &status
}

func (m *Monitor) monitor() {
	defer close(m.done)
	ctx, cancel := m.stop.NewCtx()
	defer cancel()

	tick := time.After(utils.WithJitter(m.pollPeriod))
	for {
		select {
		case <-m.stop:
			return
		case <-tick:
			m.poll(ctx)
			tick = time.After(utils.WithJitter(m.pollPeriod))
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	status := m.probe.GetStatus(ctx)
	recordStatus(status)

	m.mu.Lock()
	m.lastStatus = &status
	subs := make([]func(Status), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		m.notify(fn, status)
	}
}

// notify delivers one status update, recovering from a panicking subscriber
// so the poll loop survives.
func (m *Monitor) notify(fn func(Status), status Status) {
	defer func() {
		if r := recover(); r != nil {
			m.lggr.Errorw("status subscriber panicked", "panic", r)
		}
	}()
	fn(status)
}
