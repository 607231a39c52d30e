package apperrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mosas2000/BitHodl/apperrors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want apperrors.Kind
	}{
		{"No wallet found in browser", apperrors.KindWalletNotInstalled},
		{"provider wallet not found", apperrors.KindWalletNotInstalled},
		{"wallet is not connected", apperrors.KindWalletNotConnected},
		{"wrong network selected", apperrors.KindWrongNetwork},
		{"User rejected the request", apperrors.KindUserRejected},
		{"user denied transaction signature", apperrors.KindUserRejected},
		{"insufficient balance for transfer", apperrors.KindInsufficientBalance},
		{"not enough funds", apperrors.KindInsufficientBalance},
		{"request cancelled by user", apperrors.KindTransactionCancelled},
		{"operation canceled", apperrors.KindTransactionCancelled},
		{"context deadline exceeded: timeout", apperrors.KindNetworkTimeout},
		{"network error while fetching", apperrors.KindNetworkTimeout},
		{"something unexpected", apperrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.Classify(errors.New(tt.msg)))
		})
	}

	assert.Equal(t, apperrors.KindUnknown, apperrors.Classify(nil))
}

func TestClassifyPrefersAppErrorKind(t *testing.T) {
	// an AppError whose message happens to contain "timeout" keeps its kind
	err := apperrors.New(apperrors.KindUserRejected, nil)
	assert.Equal(t, apperrors.KindUserRejected, apperrors.Classify(err))
}

func TestMessage(t *testing.T) {
	appErr := apperrors.New(apperrors.KindWalletNotConnected, nil)
	assert.Equal(t, appErr.Message, apperrors.Message(appErr))

	// raw errors are classified first
	msg := apperrors.Message(errors.New("user rejected the request"))
	assert.Contains(t, msg, "You rejected this action in your wallet")

	msg = apperrors.Message(errors.New("totally novel failure"))
	assert.Contains(t, msg, "totally novel failure")

	assert.Empty(t, apperrors.Message(nil))
}
