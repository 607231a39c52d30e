package txflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/smartcontractkit/chainlink-common/pkg/services"
	"github.com/smartcontractkit/chainlink-common/pkg/utils"

	"github.com/Mosas2000/BitHodl/apperrors"
	"github.com/Mosas2000/BitHodl/network"
	"github.com/Mosas2000/BitHodl/sdk"
	"github.com/Mosas2000/BitHodl/toast"
)

var (
	// ErrTxInFlight is returned when a new transaction is requested while
	// the single in-flight slot is occupied.
	ErrTxInFlight = errors.New("transaction already in flight")
	// ErrNoCurrentTx is returned by operations that need a current
	// transaction when none is tracked.
	ErrNoCurrentTx = errors.New("no current transaction")
	// ErrNotRetryable is returned when retry is requested for a
	// transaction that is not in the failed state.
	ErrNotRetryable = errors.New("transaction is not in a retryable state")
	// ErrMaxRetries is returned when the retry budget is exhausted.
	ErrMaxRetries = errors.New("maximum retry attempts reached")
)

// ConnState is the wallet connection snapshot the engine consults before
// retrying. Retry is refused while the wallet is disconnected so the user
// reconnects first instead of burning a retry attempt.
type ConnState struct {
	Connected bool
	Network   network.Network
}

// RetryFn re-submits the transaction to the wallet and returns the new
// chain transaction id.
type RetryFn func(ctx context.Context) (string, error)

// Flow tracks a single in-flight transaction through its lifecycle:
// pending, broadcasting, then confirmed or failed. Confirmation is driven
// by polling the chain API; terminal transactions are archived to an
// in-memory history.
type Flow struct {
	services.StateMachine

	lggr    logger.Logger
	client  sdk.StacksClient
	cfg     Config
	network network.Network
	toasts  toast.Notifier
	connFn  func() ConnState

	mu        sync.Mutex
	current   *Tx
	history   []Tx
	cancelMon context.CancelFunc
	grace     *time.Timer

	stopCh services.StopChan
	monWg  sync.WaitGroup
}

func NewFlow(lggr logger.Logger, client sdk.StacksClient, cfg Config, net network.Network, toasts toast.Notifier) *Flow {
	cfg.SetDefaults()
	if toasts == nil {
		toasts = toast.Nop{}
	}
	return &Flow{
		lggr:    logger.Named(lggr, "TxFlow"),
		client:  client,
		cfg:     cfg,
		network: net,
		toasts:  toasts,
		stopCh:  make(services.StopChan),
	}
}

// SetConnStateFn installs the wallet connection hook consulted by
// RetryTransaction. Must be called before Start.
func (f *Flow) SetConnStateFn(fn func() ConnState) {
	f.connFn = fn
}

func (f *Flow) Name() string {
	return f.lggr.Name()
}

func (f *Flow) Start(_ context.Context) error {
	return f.StartOnce("TxFlow", func() error {
		f.lggr.Debugw("starting transaction flow engine",
			"maxRetries", f.cfg.MaxRetries, "confirmPollPeriod", f.cfg.ConfirmPollPeriod)
		return nil
	})
}

func (f *Flow) Close() error {
	return f.StopOnce("TxFlow", func() error {
		close(f.stopCh)
		f.mu.Lock()
		if f.cancelMon != nil {
			f.cancelMon()
			f.cancelMon = nil
		}
		if f.grace != nil {
			f.grace.Stop()
			f.grace = nil
		}
		f.mu.Unlock()
		f.monWg.Wait()
		return nil
	})
}

func (f *Flow) HealthReport() map[string]error {
	return map[string]error{f.Name(): f.Healthy()}
}

// StartTransaction claims the in-flight slot and creates a new pending
// transaction. A terminal current transaction is archived first; an
// in-flight one causes ErrTxInFlight.
func (f *Flow) StartTransaction(kind TxKind, amount float64) (Tx, error) {
	if !kind.Valid() {
		return Tx{}, errors.Errorf("unknown transaction kind %q", kind)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		if f.current.InFlight() {
			return Tx{}, ErrTxInFlight
		}
		f.archiveLocked()
	}

	tx := &Tx{
		ID:        uuid.New(),
		Kind:      kind,
		Amount:    amount,
		State:     Pending,
		CreatedAt: time.Now(),
	}
	f.current = tx
	promTxInFlight.Set(1)
	f.lggr.Debugw("transaction started", "id", tx.ID, "kind", kind, "amount", amount)
	return *tx, nil
}

// SetBroadcasting records the chain transaction id returned by the wallet
// and starts the confirmation monitor. Stale ids are ignored.
func (f *Flow) SetBroadcasting(id uuid.UUID, chainTxID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setBroadcastingLocked(id, chainTxID)
}

func (f *Flow) setBroadcastingLocked(id uuid.UUID, chainTxID string) error {
	if f.current == nil || f.current.ID != id {
		return ErrNoCurrentTx
	}
	if !f.current.State.CanTransitionTo(Broadcasting) {
		return errors.Errorf("cannot broadcast from state %s", f.current.State)
	}

	f.current.State = Broadcasting
	f.current.ChainTxID = chainTxID
	f.current.ExplorerURL = network.ExplorerTxURL(f.network, chainTxID)
	f.lggr.Infow("transaction broadcast", "id", id, "chainTxID", chainTxID)

	ctx, cancel := context.WithCancel(context.Background())
	f.cancelMon = cancel
	f.monWg.Add(1)
	go f.monitor(ctx, id, chainTxID)
	return nil
}

// SetConfirmed marks the current transaction confirmed, stops the
// monitor and schedules archival after the grace delay.
func (f *Flow) SetConfirmed(id uuid.UUID, confirmations, blockHeight uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setConfirmedLocked(id, confirmations, blockHeight)
}

// SetFailed marks the current transaction failed. The in-flight slot
// stays occupied by the failed transaction until it is retried or
// dismissed.
func (f *Flow) SetFailed(id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setFailedLocked(id, errMsg)
}

func (f *Flow) setFailedLocked(id uuid.UUID, errMsg string) error {
	if f.current == nil || f.current.ID != id {
		return ErrNoCurrentTx
	}
	if !f.current.State.CanTransitionTo(Failed) {
		return errors.Errorf("cannot fail from state %s", f.current.State)
	}

	f.stopMonitorLocked()
	f.current.State = Failed
	f.current.Error = errMsg
	promTxInFlight.Set(0)
	promTxFinal.WithLabelValues("failed").Inc()

	f.lggr.Errorw("transaction failed", "id", id, "chainTxID", f.current.ChainTxID, "err", errMsg)
	f.toasts.ShowError("Transaction failed", errMsg)
	return nil
}

// RetryTransaction re-submits the current failed transaction. The retry
// budget is checked before retryFn is invoked; a disconnected wallet
// refuses the retry without consuming an attempt.
func (f *Flow) RetryTransaction(ctx context.Context, retryFn RetryFn) (Tx, error) {
	f.mu.Lock()
	if f.current == nil {
		f.mu.Unlock()
		return Tx{}, ErrNoCurrentTx
	}
	if f.current.State != Failed {
		f.mu.Unlock()
		return Tx{}, ErrNotRetryable
	}
	if f.current.RetryCount >= f.cfg.MaxRetries {
		f.current.Error = fmt.Sprintf("Maximum retry attempts (%d) exceeded. Please start a new transaction.", f.cfg.MaxRetries)
		tx := *f.current
		f.mu.Unlock()
		return tx, ErrMaxRetries
	}
	if f.connFn != nil {
		st := f.connFn()
		if !st.Connected {
			f.mu.Unlock()
			return Tx{}, apperrors.New(apperrors.KindWalletNotConnected, nil)
		}
		if st.Network != "" && st.Network != f.network {
			f.mu.Unlock()
			return Tx{}, apperrors.New(apperrors.KindWrongNetwork, apperrors.Details{
				"expected": f.network, "actual": st.Network,
			})
		}
	}

	id := f.current.ID
	f.current.State = Pending
	f.current.RetryCount++
	f.current.Error = ""
	f.current.ChainTxID = ""
	f.current.ExplorerURL = ""
	retryCount := f.current.RetryCount
	promTxInFlight.Set(1)
	promTxRetries.Inc()
	f.mu.Unlock()

	backoff := RetryBackoff(f.cfg.RetryBaseDelay, retryCount-1)
	f.lggr.Infow("retrying transaction", "id", id, "attempt", retryCount, "backoff", backoff)

	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		f.mu.Lock()
		_ = f.setFailedLocked(id, "Retry cancelled")
		f.mu.Unlock()
		return Tx{}, ctx.Err()
	case <-f.stopCh:
		return Tx{}, errors.New("engine stopped")
	}

	// the transaction may have been dismissed during the backoff
	f.mu.Lock()
	if f.current == nil || f.current.ID != id {
		f.mu.Unlock()
		return Tx{}, ErrNoCurrentTx
	}
	f.mu.Unlock()

	chainTxID, err := retryFn(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		_ = f.setFailedLocked(id, apperrors.Message(err))
		if f.current != nil && f.current.ID == id {
			return *f.current, err
		}
		return Tx{}, err
	}
	if err := f.setBroadcastingLocked(id, chainTxID); err != nil {
		return Tx{}, err
	}
	return *f.current, nil
}

// ClearCurrentTransaction archives the current transaction regardless of
// state, freeing the in-flight slot. A live confirmation monitor is
// stopped; the chain outcome of a dismissed broadcast is not tracked.
func (f *Flow) ClearCurrentTransaction() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current == nil {
		return ErrNoCurrentTx
	}
	f.stopMonitorLocked()
	if f.current.InFlight() {
		promTxInFlight.Set(0)
	}
	if f.grace != nil {
		f.grace.Stop()
		f.grace = nil
	}
	f.archiveLocked()
	return nil
}

// Reset drops the current transaction and all history, stopping any
// active monitor. Used when the wallet disconnects or switches accounts.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopMonitorLocked()
	if f.grace != nil {
		f.grace.Stop()
		f.grace = nil
	}
	f.current = nil
	f.history = nil
	promTxInFlight.Set(0)
	f.lggr.Debugw("transaction state reset")
}

// CurrentTransaction returns a copy of the tracked transaction, if any.
func (f *Flow) CurrentTransaction() (Tx, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Tx{}, false
	}
	return *f.current, true
}

// History returns archived transactions, newest first.
func (f *Flow) History() []Tx {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Tx, len(f.history))
	copy(out, f.history)
	return out
}

// InflightCount is 1 while the slot holds a pending or broadcasting
// transaction, 0 otherwise.
func (f *Flow) InflightCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil && f.current.InFlight() {
		return 1
	}
	return 0
}

func (f *Flow) archiveLocked() {
	if f.current == nil {
		return
	}
	f.history = append([]Tx{*f.current}, f.history...)
	f.current = nil
}

func (f *Flow) stopMonitorLocked() {
	if f.cancelMon != nil {
		f.cancelMon()
		f.cancelMon = nil
	}
}

// monitor polls the chain API until the transaction reaches a terminal
// state, the confirmation ceiling passes, or the context is cancelled.
func (f *Flow) monitor(ctx context.Context, id uuid.UUID, chainTxID string) {
	defer f.monWg.Done()

	lggr := logger.Named(f.lggr, "Monitor")
	deadline := time.NewTimer(f.cfg.ConfirmTimeout)
	defer deadline.Stop()

	consecutiveErrors := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			f.mu.Lock()
			if f.current != nil && f.current.ID == id && f.current.State == Broadcasting {
				_ = f.setFailedLocked(id, fmt.Sprintf(
					"Transaction was not confirmed within %s. Check the explorer: %s",
					f.cfg.ConfirmTimeout, network.ExplorerTxURL(f.network, chainTxID)))
			}
			f.mu.Unlock()
			return
		case <-time.After(utils.WithJitter(f.cfg.ConfirmPollPeriod)):
		}

		reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
		resp, err := f.client.GetTransaction(reqCtx, chainTxID)
		cancel()

		if err != nil {
			if sdk.IsNotFound(err) {
				// The transaction has not propagated to the API yet.
				promTxPolls.WithLabelValues("not_found").Inc()
				consecutiveErrors = 0
				continue
			}
			promTxPolls.WithLabelValues("error").Inc()
			consecutiveErrors++
			lggr.Warnw("transaction status poll failed",
				"chainTxID", chainTxID, "consecutiveErrors", consecutiveErrors, "err", err)
			if consecutiveErrors >= f.cfg.MaxConsecutiveErrors {
				f.mu.Lock()
				if f.current != nil && f.current.ID == id && f.current.State == Broadcasting {
					_ = f.setFailedLocked(id, fmt.Sprintf(
						"Transaction status could not be verified. Check the explorer: %s",
						network.ExplorerTxURL(f.network, chainTxID)))
				}
				f.mu.Unlock()
				return
			}
			continue
		}
		consecutiveErrors = 0

		switch resp.TxStatus {
		case sdk.TxStatusSuccess:
			promTxPolls.WithLabelValues("confirmed").Inc()
			f.mu.Lock()
			if f.current != nil && f.current.ID == id {
				confirmations := resp.Confirmations
				if confirmations == 0 {
					confirmations = 1
				}
				if err := f.setConfirmedLocked(id, confirmations, resp.BlockHeight); err != nil {
					lggr.Warnw("confirm transition rejected", "id", id, "err", err)
				}
			}
			f.mu.Unlock()
			return
		case sdk.TxStatusFailed:
			promTxPolls.WithLabelValues("failed").Inc()
			reason := "Transaction failed on chain"
			if resp.TxResult != nil && resp.TxResult.Repr != "" {
				reason = fmt.Sprintf("Transaction failed on chain: %s", resp.TxResult.Repr)
			}
			f.mu.Lock()
			if f.current != nil && f.current.ID == id {
				_ = f.setFailedLocked(id, reason)
			}
			f.mu.Unlock()
			return
		default:
			promTxPolls.WithLabelValues("pending").Inc()
		}
	}
}

func (f *Flow) setConfirmedLocked(id uuid.UUID, confirmations, blockHeight uint64) error {
	if f.current == nil || f.current.ID != id {
		return ErrNoCurrentTx
	}
	if !f.current.State.CanTransitionTo(Confirmed) {
		return errors.Errorf("cannot confirm from state %s", f.current.State)
	}

	f.stopMonitorLocked()
	f.current.State = Confirmed
	f.current.Confirmations = confirmations
	f.current.BlockHeight = blockHeight
	f.current.Error = ""
	promTxInFlight.Set(0)
	promTxFinal.WithLabelValues("confirmed").Inc()

	f.lggr.Infow("transaction confirmed",
		"id", id, "chainTxID", f.current.ChainTxID, "confirmations", confirmations, "blockHeight", blockHeight)
	f.toasts.ShowSuccess("Transaction confirmed",
		fmt.Sprintf("%s transaction confirmed at block %d", f.current.Kind, blockHeight))

	f.grace = time.AfterFunc(f.cfg.GraceDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.current != nil && f.current.ID == id {
			f.archiveLocked()
		}
	})
	return nil
}
