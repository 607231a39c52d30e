package sdk

// Transaction status values reported by the chain API.
const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

type TxResult struct {
	Hex  string `json:"hex,omitempty"`
	Repr string `json:"repr,omitempty"`
}

// TransactionResponse is the subset of GET /extended/v1/tx/{txid} the flow
// engine needs to resolve a broadcast transaction.
type TransactionResponse struct {
	TxID          string    `json:"tx_id"`
	TxStatus      string    `json:"tx_status"`
	Confirmations uint64    `json:"confirmations,omitempty"`
	BlockHeight   uint64    `json:"block_height,omitempty"`
	BlockHash     string    `json:"block_hash,omitempty"`
	TxResult      *TxResult `json:"tx_result,omitempty"`
}

// AccountBalance is the response of GET /extended/v1/address/{principal}/stx.
// Balances are micro-STX encoded as decimal strings.
type AccountBalance struct {
	Balance         string `json:"balance"`
	Locked          string `json:"locked,omitempty"`
	TotalSent       string `json:"total_sent,omitempty"`
	TotalReceived   string `json:"total_received,omitempty"`
	BurnchainLockTx string `json:"burnchain_lock_tx_id,omitempty"`
}

// ChainStatus is the response of GET /extended/v1/status, used by the
// network probe for connectivity and latency measurement.
type ChainStatus struct {
	Status        string `json:"status"`
	ServerVersion string `json:"server_version,omitempty"`
	ChainTip      struct {
		BlockHeight uint64 `json:"block_height"`
		BlockHash   string `json:"block_hash,omitempty"`
	} `json:"chain_tip"`
}
