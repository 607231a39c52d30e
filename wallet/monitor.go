package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/smartcontractkit/chainlink-common/pkg/services"
	"github.com/smartcontractkit/chainlink-common/pkg/utils"

	"github.com/Mosas2000/BitHodl/network"
)

const DefaultPollPeriod = 5 * time.Second

type EventType string

const (
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventAccountChanged EventType = "accountChanged"
	EventNetworkChanged EventType = "networkChanged"
	EventLocked         EventType = "locked"
	EventUnlocked       EventType = "unlocked"
)

// Event is one discrete wallet state change. One event is emitted per
// changed facet; connect/disconnect is emitted before account or network
// changes observed in the same tick.
type Event struct {
	Type    EventType
	Account string
	Network network.Network
}

// Monitor polls the wallet adapter and diffs snapshots into events.
type Monitor struct {
	services.StateMachine
	lggr       logger.Logger
	adapter    Adapter
	pollPeriod time.Duration

	mu          sync.Mutex
	state       State
	subscribers map[int]func(Event)
	nextSubID   int

	stop services.StopChan
	done chan struct{}
}

func NewMonitor(lggr logger.Logger, adapter Adapter, pollPeriod time.Duration) *Monitor {
	if pollPeriod <= 0 {
		pollPeriod = DefaultPollPeriod
	}
	return &Monitor{
		lggr:        logger.Named(lggr, "WalletMonitor"),
		adapter:     adapter,
		pollPeriod:  pollPeriod,
		subscribers: map[int]func(Event){},
		stop:        make(services.StopChan),
		done:        make(chan struct{}),
	}
}

func (m *Monitor) Name() string {
	return m.lggr.Name()
}

func (m *Monitor) Start(ctx context.Context) error {
	return m.StartOnce("WalletMonitor", func() error {
		// seed the snapshot before the first tick so getters have data
		m.poll(ctx)
		go m.monitor()
		return nil
	})
}

func (m *Monitor) Close() error {
	return m.StopOnce("WalletMonitor", func() error {
		close(m.stop)
		<-m.done
		return nil
	})
}

func (m *Monitor) HealthReport() map[string]error {
	return map[string]error{m.Name(): m.Healthy()}
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

// RefreshState forces an immediate out-of-band poll.
func (m *Monitor) RefreshState(ctx context.Context) {
	m.poll(ctx)
}

// poll queries the adapter, diffs against the previous snapshot and emits
// events. A failed poll is logged and treated as no change for this tick so
// transient adapter errors do not flap disconnect events.
func (m *Monitor) poll(ctx context.Context) {
	snapshot, err := m.adapter.State(ctx)
	if err != nil {
		m.lggr.Warnw("wallet state poll failed, keeping previous snapshot", "err", err)
		return
	}

	m.mu.Lock()
	prev := m.state

	m.state.IsInstalled = snapshot.Installed
	m.state.IsConnected = snapshot.Connected
	m.state.CurrentAccount = snapshot.Account
	m.state.Network = snapshot.Network
	m.state.IsLocked = snapshot.Locked

	var events []Event
	if prev.IsConnected != snapshot.Connected {
		if snapshot.Connected {
			events = append(events, Event{Type: EventConnected, Account: snapshot.Account, Network: snapshot.Network})
		} else {
			events = append(events, Event{Type: EventDisconnected})
		}
	}
	// account/network changes are only meaningful for an existing session
	if prev.IsConnected && snapshot.Account != "" && prev.CurrentAccount != snapshot.Account {
		events = append(events, Event{Type: EventAccountChanged, Account: snapshot.Account})
	}
	if prev.IsConnected && snapshot.Network != "" && prev.Network != snapshot.Network {
		events = append(events, Event{Type: EventNetworkChanged, Network: snapshot.Network})
	}
	if prev.IsLocked != snapshot.Locked {
		if snapshot.Locked {
			events = append(events, Event{Type: EventLocked})
		} else {
			events = append(events, Event{Type: EventUnlocked})
		}
	}

	if len(events) > 0 {
		m.state.LastActivity = time.Now()
	} else if m.state.LastActivity.IsZero() {
		m.state.LastActivity = time.Now()
	}

	subs := make([]func(Event), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, event := range events {
		for _, fn := range subs {
			m.emit(fn, event)
		}
	}
}

func (m *Monitor) emit(fn func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.lggr.Errorw("wallet event subscriber panicked", "event", event.Type, "panic", r)
		}
	}()
	fn(event)
}

// Subscribe registers a callback for wallet events. The returned
// unsubscribe func is idempotent and never panics.
func (m *Monitor) Subscribe(fn func(Event)) (unsubscribe func()) {
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

// State returns a copy of the last-known snapshot. No blocking I/O.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) IsWalletInstalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsInstalled
}

func (m *Monitor) IsWalletConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsConnected
}

func (m *Monitor) CurrentAccount() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CurrentAccount
}

func (m *Monitor) CurrentNetwork() network.Network {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Network
}

// OnDisconnect subscribes to disconnect events only, for callers tracking a
// wallet during an in-flight transaction.
func (m *Monitor) OnDisconnect(fn func()) (unsubscribe func()) {
	return m.Subscribe(func(e Event) {
		if e.Type == EventDisconnected {
			fn()
		}
	})
}

// OnAccountChange subscribes to account-change events only.
func (m *Monitor) OnAccountChange(fn func(account string)) (unsubscribe func()) {
	return m.Subscribe(func(e Event) {
		if e.Type == EventAccountChanged {
			fn(e.Account)
		}
	})
}

// OnNetworkChange subscribes to network-change events only.
func (m *Monitor) OnNetworkChange(fn func(n network.Network)) (unsubscribe func()) {
	return m.Subscribe(func(e Event) {
		if e.Type == EventNetworkChanged {
			fn(e.Network)
		}
	})
}
