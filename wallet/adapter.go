// Package wallet defines the external wallet-adapter contract and the
// presence monitor that keeps a live snapshot of install/connection/account
// state. The adapter itself (Hiro, Xverse, ...) is an opaque collaborator:
// it signs and broadcasts, and reports its own state.
package wallet

import (
	"context"
	"time"

	"github.com/Mosas2000/BitHodl/network"
)

// Outcome tags the result of a sign-and-broadcast attempt.
type Outcome int

const (
	// OutcomeBroadcast means the wallet signed and submitted the
	// transaction; ChainTxID is set.
	OutcomeBroadcast Outcome = iota
	// OutcomeCancelled means the user dismissed the signing prompt.
	OutcomeCancelled
	// OutcomeFailed means the wallet reported a failure; Reason is set.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBroadcast:
		return "broadcast"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BroadcastResult is the tagged union returned by SignAndBroadcast.
type BroadcastResult struct {
	Outcome   Outcome
	ChainTxID string
	Reason    string
}

// TxOptions describes a transaction for the wallet to sign and broadcast.
// Amount is denominated in micro-STX.
type TxOptions struct {
	Contract     string
	FunctionName string
	AmountMicro  int64
	Memo         string
}

// AdapterState is the wallet-reported snapshot polled by the monitor.
type AdapterState struct {
	Installed bool
	Connected bool
	Account   string
	Network   network.Network
	Locked    bool
}

// Adapter is the external wallet capability. State must be cheap to call;
// SignAndBroadcast blocks until the user acts or ctx is done. A non-nil
// error means the adapter itself failed, not that the user declined —
// declines come back as OutcomeCancelled.
type Adapter interface {
	State(ctx context.Context) (AdapterState, error)
	SignAndBroadcast(ctx context.Context, opts TxOptions) (BroadcastResult, error)
}

// State is the monitor-owned snapshot. Only the monitor's poll tick mutates
// it; everyone else reads copies.
type State struct {
	IsConnected    bool
	IsInstalled    bool
	CurrentAccount string
	Network        network.Network
	IsLocked       bool
	LastActivity   time.Time
}
