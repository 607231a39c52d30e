package txflow

import "fmt"

type TxState int

const (
	Pending TxState = iota
	Broadcasting
	Confirmed
	Failed
)

func (s TxState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Broadcasting:
		return "broadcasting"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("TxState(%d)", s)
	}
}

// stateTransitions is the legal transition table. Confirmed is terminal;
// Failed may only go back to Pending via retry.
var stateTransitions = map[TxState][]TxState{
	Pending:      {Broadcasting, Failed},
	Broadcasting: {Confirmed, Failed},
	Failed:       {Pending},
}

func (s TxState) CanTransitionTo(t TxState) bool {
	allowedTransitions, exists := stateTransitions[s]
	if !exists {
		return false
	}

	for _, allowed := range allowedTransitions {
		if t == allowed {
			return true
		}
	}

	return false
}

// Terminal reports whether the state accepts no further chain progress.
// A Failed transaction is terminal for polling purposes but still
// addressable for retry or dismissal.
func (s TxState) Terminal() bool {
	return s == Confirmed || s == Failed
}

// TxKind is the user intent behind a transaction.
type TxKind string

const (
	KindDeposit            TxKind = "deposit"
	KindWithdraw           TxKind = "withdraw"
	KindCreatePlan         TxKind = "create-plan"
	KindUpdatePlan         TxKind = "update-plan"
	KindToggleAutoPurchase TxKind = "toggle-auto-purchase"
	KindExecutePurchase    TxKind = "execute-purchase"
)

func (k TxKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindCreatePlan, KindUpdatePlan, KindToggleAutoPurchase, KindExecutePurchase:
		return true
	}
	return false
}
