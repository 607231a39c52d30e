package apperrors

import (
	"errors"
	"strings"
)

// Classify maps a raw platform error to the closest Kind by inspecting its
// lowercased message for known substrings. This is best-effort, not
// exhaustive: a contract revert reason that happens to contain "timeout"
// will be misclassified. Prefer constructing AppErrors at the failure site
// and use this only as a fallback for errors from external SDKs.
func Classify(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if err == nil {
		return KindUnknown
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no wallet") || strings.Contains(msg, "wallet not found"):
		return KindWalletNotInstalled
	case strings.Contains(msg, "not connected"):
		return KindWalletNotConnected
	case strings.Contains(msg, "wrong network"):
		return KindWrongNetwork
	case strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied"):
		return KindUserRejected
	case strings.Contains(msg, "insufficient balance") || strings.Contains(msg, "not enough"):
		return KindInsufficientBalance
	case strings.Contains(msg, "cancelled") || strings.Contains(msg, "canceled"):
		return KindTransactionCancelled
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "network error"):
		return KindNetworkTimeout
	default:
		return KindUnknown
	}
}

// Message renders a user-facing message for any error: AppErrors use their
// precomputed message, everything else is classified first.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}

	kind := Classify(err)
	if kind == KindUnknown {
		return renderMessage(KindUnknown, Details{"originalError": err.Error()})
	}
	return renderMessage(kind, nil)
}
