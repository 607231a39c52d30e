// Package apperrors defines the closed error taxonomy shared by the wallet
// monitor, network probe and transaction flow engine. Every boundary-crossing
// failure (wallet call, HTTP call) is converted to an *AppError before it
// reaches transaction state or the notification sink.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one failure category. The set is closed: every Kind has a
// message template and a position in the retryable/reconnection partitions.
type Kind int

const (
	KindUnknown Kind = iota
	KindWalletNotInstalled
	KindWalletNotConnected
	KindWrongNetwork
	KindInsufficientBalance
	KindContractCallFailed
	KindNetworkTimeout
	KindTransactionCancelled
	KindTransactionFailed
	KindUserRejected
)

func (k Kind) String() string {
	switch k {
	case KindWalletNotInstalled:
		return "wallet-not-installed"
	case KindWalletNotConnected:
		return "wallet-not-connected"
	case KindWrongNetwork:
		return "wrong-network"
	case KindInsufficientBalance:
		return "insufficient-balance"
	case KindContractCallFailed:
		return "contract-call-failed"
	case KindNetworkTimeout:
		return "network-timeout"
	case KindTransactionCancelled:
		return "transaction-cancelled"
	case KindTransactionFailed:
		return "transaction-failed"
	case KindUserRejected:
		return "user-rejected"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Details carries structured context for message rendering: required and
// available amounts, current and expected network, a function name, etc.
type Details map[string]any

// AppError is a tagged error value wrapping one Kind with structured details
// and a user-facing message precomputed at construction time.
type AppError struct {
	Kind    Kind
	Message string
	Details Details
}

func (e *AppError) Error() string {
	return e.Message
}

// New builds an AppError of the given kind. Same kind and details always
// produce the same message.
func New(kind Kind, details Details) *AppError {
	return &AppError{
		Kind:    kind,
		Message: renderMessage(kind, details),
		Details: details,
	}
}

// Wrap converts a raw error into an AppError of the given kind, keeping the
// original error text under the "originalError" detail key.
func Wrap(kind Kind, err error, details Details) *AppError {
	if details == nil {
		details = Details{}
	}
	if err != nil {
		details["originalError"] = err.Error()
	}
	return New(kind, details)
}

func detailString(d Details, key, fallback string) string {
	if d == nil {
		return fallback
	}
	v, ok := d[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return fallback
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}

func detailFloat(d Details, key string) float64 {
	if d == nil {
		return 0
	}
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return 0
	}
}

// messageTemplates maps every Kind to its user-facing message. The mapping is
// total: an entry exists for each Kind defined above.
var messageTemplates = map[Kind]func(Details) string{
	KindWalletNotInstalled: func(Details) string {
		return "No Stacks wallet found. Please install a compatible wallet like Hiro or Xverse to continue."
	},
	KindWalletNotConnected: func(Details) string {
		return "Your wallet is not connected. Please connect your wallet to perform this action."
	},
	KindWrongNetwork: func(d Details) string {
		current := detailString(d, "currentNetwork", "unknown")
		expected := detailString(d, "expectedNetwork", "testnet")
		return fmt.Sprintf("You're on the %s network, but this app uses %s. Please switch your wallet network to continue.", current, expected)
	},
	KindInsufficientBalance: func(d Details) string {
		required := detailFloat(d, "required")
		available := detailFloat(d, "available")
		symbol := detailString(d, "symbol", "STX")
		return fmt.Sprintf("Not enough %s to complete this transaction. You need %.6f more %s.", symbol, required-available, symbol)
	},
	KindContractCallFailed: func(d Details) string {
		fn := detailString(d, "functionName", "contract function")
		reason := detailString(d, "reason", "unknown reason")
		return fmt.Sprintf("The %s failed because: %s. Please try again or contact support if the issue persists.", fn, reason)
	},
	KindNetworkTimeout: func(Details) string {
		return "The network is taking too long to respond. Please check your internet connection and try again."
	},
	KindTransactionCancelled: func(Details) string {
		return "Transaction was cancelled. If this was a mistake, please try again."
	},
	KindTransactionFailed: func(d Details) string {
		reason := detailString(d, "reason", "unknown reason")
		return fmt.Sprintf("Transaction failed: %s. Please check your wallet balance and try again.", reason)
	},
	KindUserRejected: func(Details) string {
		return "You rejected this action in your wallet. If this was a mistake, please try again."
	},
	KindUnknown: func(d Details) string {
		original := detailString(d, "originalError", "unknown error")
		return fmt.Sprintf("Something went wrong: %s. Please try again or contact support if the issue continues.", original)
	},
}

func renderMessage(kind Kind, details Details) string {
	tmpl, ok := messageTemplates[kind]
	if !ok {
		tmpl = messageTemplates[KindUnknown]
	}
	return tmpl(details)
}

// IsRetryable reports whether a retry action should be offered for the error.
// Only transient failure kinds qualify; wallet, permission and cancellation
// kinds never do. Non-AppError values fall back to substring heuristics.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindNetworkTimeout, KindContractCallFailed, KindTransactionFailed:
			return true
		}
		return false
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "rate limit")
}

// RequiresReconnection reports whether the error means the wallet session is
// unusable until the user reconnects (or switches network).
func RequiresReconnection(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindWalletNotConnected, KindWrongNetwork:
			return true
		}
		return false
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not connected") ||
		strings.Contains(msg, "wrong network") ||
		strings.Contains(msg, "account changed")
}
