package txflow

import (
	"time"

	"github.com/google/uuid"
)

// Tx is a single tracked transaction. The zero-value ChainTxID means the
// transaction has not been broadcast yet. Tx values handed out by the
// engine are copies; callers cannot mutate engine state through them.
type Tx struct {
	ID            uuid.UUID
	ChainTxID     string
	Kind          TxKind
	Amount        float64
	State         TxState
	Error         string
	CreatedAt     time.Time
	Confirmations uint64
	BlockHeight   uint64
	ExplorerURL   string
	RetryCount    int
}

// InFlight reports whether the transaction occupies the single in-flight
// slot, blocking new submissions.
func (t *Tx) InFlight() bool {
	return t.State == Pending || t.State == Broadcasting
}
