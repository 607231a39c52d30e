package txflow

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"

	"github.com/Mosas2000/BitHodl/apperrors"
	"github.com/Mosas2000/BitHodl/mocks"
	"github.com/Mosas2000/BitHodl/network"
	"github.com/Mosas2000/BitHodl/sdk"
	"github.com/Mosas2000/BitHodl/toast"
)

func testConfig() Config {
	return Config{
		MaxRetries:           3,
		RetryBaseDelay:       time.Millisecond,
		ConfirmPollPeriod:    5 * time.Millisecond,
		ConfirmTimeout:       5 * time.Second,
		RequestTimeout:       time.Second,
		GraceDelay:           30 * time.Millisecond,
		MaxConsecutiveErrors: 3,
	}
}

func newTestFlow(t *testing.T, client sdk.StacksClient, cfg Config) (*Flow, *toast.Sink) {
	t.Helper()
	sink := toast.NewSink(toast.DefaultCapacity)
	flow := NewFlow(logger.Test(t), client, cfg, network.Testnet, sink)
	require.NoError(t, flow.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, flow.Close()) })
	return flow, sink
}

func serverErr() *sdk.StatusError {
	return &sdk.StatusError{StatusCode: http.StatusServiceUnavailable, Method: http.MethodGet, Endpoint: "/extended/v1/tx/0xabc"}
}

func notFoundErr() *sdk.StatusError {
	return &sdk.StatusError{StatusCode: http.StatusNotFound, Method: http.MethodGet, Endpoint: "/extended/v1/tx/0xabc"}
}

func TestFlow_HappyPath(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").
		Return(&sdk.TransactionResponse{TxID: "0xabc", TxStatus: sdk.TxStatusPending}, nil).Times(3)
	client.On("GetTransaction", mock.Anything, "0xabc").
		Return(&sdk.TransactionResponse{TxID: "0xabc", TxStatus: sdk.TxStatusSuccess, Confirmations: 1, BlockHeight: 100}, nil).Once()

	flow, sink := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindDeposit, 12.5)
	require.NoError(t, err)
	assert.Equal(t, Pending, tx.State)
	assert.Equal(t, 1, flow.InflightCount())

	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))
	cur, ok := flow.CurrentTransaction()
	require.True(t, ok)
	assert.Equal(t, Broadcasting, cur.State)
	assert.Contains(t, cur.ExplorerURL, "0xabc")
	assert.Contains(t, cur.ExplorerURL, "chain=testnet")

	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Confirmed
	}, time.Second, time.Millisecond)

	cur, _ = flow.CurrentTransaction()
	assert.Equal(t, uint64(1), cur.Confirmations)
	assert.Equal(t, uint64(100), cur.BlockHeight)
	assert.Equal(t, 0, flow.InflightCount())

	// archived to history after the grace delay
	require.Eventually(t, func() bool {
		_, ok := flow.CurrentTransaction()
		return !ok && len(flow.History()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, Confirmed, flow.History()[0].State)

	var sawSuccess bool
	for _, n := range sink.Notifications() {
		if n.Level == toast.LevelSuccess {
			sawSuccess = true
		}
	}
	assert.True(t, sawSuccess)
}

func TestFlow_SlotExclusivity(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindCreatePlan, 100)
	require.NoError(t, err)

	_, err = flow.StartTransaction(KindDeposit, 1)
	require.ErrorIs(t, err, ErrTxInFlight)

	require.NoError(t, flow.SetFailed(tx.ID, "User rejected the request"))
	assert.Equal(t, 0, flow.InflightCount())

	// a terminal tx is archived when a new one starts
	next, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	assert.NotEqual(t, tx.ID, next.ID)
	require.Len(t, flow.History(), 1)
	assert.Equal(t, Failed, flow.History()[0].State)
}

func TestFlow_DismissFailedFreesSlot(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindWithdraw, 5)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))

	require.NoError(t, flow.ClearCurrentTransaction())
	_, ok := flow.CurrentTransaction()
	assert.False(t, ok)
	require.Len(t, flow.History(), 1)
	assert.Equal(t, Failed, flow.History()[0].State)

	_, err = flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
}

func TestFlow_DismissBroadcastingStopsMonitor(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").
		Return(&sdk.TransactionResponse{TxID: "0xabc", TxStatus: sdk.TxStatusPending}, nil).Maybe()

	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	require.NoError(t, flow.ClearCurrentTransaction())
	assert.Equal(t, 0, flow.InflightCount())
	require.Len(t, flow.History(), 1)
	assert.Equal(t, Broadcasting, flow.History()[0].State)
}

func TestFlow_ChainFailure(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").
		Return(&sdk.TransactionResponse{
			TxID:     "0xabc",
			TxStatus: sdk.TxStatusFailed,
			TxResult: &sdk.TxResult{Repr: "(err u401)"},
		}, nil).Once()

	flow, sink := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindExecutePurchase, 50)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Failed
	}, time.Second, time.Millisecond)

	cur, _ := flow.CurrentTransaction()
	assert.Contains(t, cur.Error, "(err u401)")

	var sawError bool
	for _, n := range sink.Notifications() {
		if n.Level == toast.LevelError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestFlow_ConsecutivePollErrors(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").Return(nil, serverErr()).Times(3)

	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Failed
	}, time.Second, time.Millisecond)

	cur, _ := flow.CurrentTransaction()
	assert.Contains(t, cur.Error, "could not be verified")
	assert.Contains(t, cur.Error, "0xabc")

	// monitor stops after the failure, no further polls
	time.Sleep(50 * time.Millisecond)
	client.AssertNumberOfCalls(t, "GetTransaction", 3)
}

func TestFlow_NotFoundResetsErrorCounter(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").Return(nil, serverErr()).Twice()
	client.On("GetTransaction", mock.Anything, "0xabc").Return(nil, notFoundErr()).Once()
	client.On("GetTransaction", mock.Anything, "0xabc").Return(nil, serverErr()).Twice()
	client.On("GetTransaction", mock.Anything, "0xabc").
		Return(&sdk.TransactionResponse{TxID: "0xabc", TxStatus: sdk.TxStatusSuccess, Confirmations: 2, BlockHeight: 7}, nil).Once()

	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	// two errors, a not-found reset, two more errors: never three in a row
	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Confirmed
	}, time.Second, time.Millisecond)
}

func TestFlow_ConfirmTimeout(t *testing.T) {
	client := mocks.NewStacksClient(t)

	cfg := testConfig()
	cfg.ConfirmTimeout = 20 * time.Millisecond
	cfg.ConfirmPollPeriod = time.Second
	flow, _ := newTestFlow(t, client, cfg)

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Failed
	}, time.Second, time.Millisecond)

	cur, _ := flow.CurrentTransaction()
	assert.Contains(t, cur.Error, "was not confirmed within")
}

func TestFlow_Retry(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xdef").
		Return(&sdk.TransactionResponse{TxID: "0xdef", TxStatus: sdk.TxStatusPending}, nil).Maybe()

	flow, _ := newTestFlow(t, client, testConfig())
	flow.SetConnStateFn(func() ConnState { return ConnState{Connected: true, Network: network.Testnet} })

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "Network timeout"))

	retried, err := flow.RetryTransaction(context.Background(), func(ctx context.Context) (string, error) {
		return "0xdef", nil
	})
	require.NoError(t, err)
	assert.Equal(t, Broadcasting, retried.State)
	assert.Equal(t, 1, retried.RetryCount)
	assert.Equal(t, "0xdef", retried.ChainTxID)
	assert.Empty(t, retried.Error)
}

func TestFlow_RetryMaxAttempts(t *testing.T) {
	client := mocks.NewStacksClient(t)

	cfg := testConfig()
	cfg.MaxRetries = 1
	flow, _ := newTestFlow(t, client, cfg)

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))

	_, err = flow.RetryTransaction(context.Background(), func(ctx context.Context) (string, error) {
		return "", assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var called bool
	tx2, err := flow.RetryTransaction(context.Background(), func(ctx context.Context) (string, error) {
		called = true
		return "0xdef", nil
	})
	require.ErrorIs(t, err, ErrMaxRetries)
	assert.False(t, called, "retryFn must not run once the budget is exhausted")
	assert.Equal(t, Failed, tx2.State)
	assert.Contains(t, tx2.Error, "Maximum retry attempts")
}

func TestFlow_RetryRequiresConnection(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())
	flow.SetConnStateFn(func() ConnState { return ConnState{Connected: false} })

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))

	var called bool
	_, err = flow.RetryTransaction(context.Background(), func(ctx context.Context) (string, error) {
		called = true
		return "0xdef", nil
	})
	require.Error(t, err)
	assert.False(t, called)

	// the failed attempt count is untouched
	cur, ok := flow.CurrentTransaction()
	require.True(t, ok)
	assert.Equal(t, Failed, cur.State)
	assert.Equal(t, 0, cur.RetryCount)
}

func TestFlow_RetryRejectsWrongNetwork(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())
	flow.SetConnStateFn(func() ConnState { return ConnState{Connected: true, Network: network.Mainnet} })

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))

	_, err = flow.RetryTransaction(context.Background(), func(ctx context.Context) (string, error) {
		t.Fatal("retryFn must not run on the wrong network")
		return "", nil
	})
	require.Error(t, err)
	assert.True(t, apperrors.RequiresReconnection(err))
}

func TestFlow_RetryNotRetryable(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())

	_, err := flow.RetryTransaction(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoCurrentTx)

	_, err = flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	_, err = flow.RetryTransaction(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotRetryable)
}

func TestFlow_RetryCancelled(t *testing.T) {
	client := mocks.NewStacksClient(t)

	cfg := testConfig()
	cfg.RetryBaseDelay = time.Second
	flow, _ := newTestFlow(t, client, cfg)

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = flow.RetryTransaction(ctx, func(ctx context.Context) (string, error) {
		t.Fatal("retryFn must not run after cancellation")
		return "", nil
	})
	require.ErrorIs(t, err, context.Canceled)

	cur, ok := flow.CurrentTransaction()
	require.True(t, ok)
	assert.Equal(t, Failed, cur.State)
}

func TestFlow_RetryDismissedDuringBackoff(t *testing.T) {
	client := mocks.NewStacksClient(t)

	cfg := testConfig()
	cfg.RetryBaseDelay = 100 * time.Millisecond
	flow, _ := newTestFlow(t, client, cfg)

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))

	errCh := make(chan error, 1)
	go func() {
		_, err := flow.RetryTransaction(context.Background(), func(ctx context.Context) (string, error) {
			t.Error("retryFn must not run after dismissal")
			return "", nil
		})
		errCh <- err
	}()

	// dismiss while the retry is sleeping through its backoff
	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Pending
	}, time.Second, time.Millisecond)
	require.NoError(t, flow.ClearCurrentTransaction())

	require.ErrorIs(t, <-errCh, ErrNoCurrentTx)
	_, ok := flow.CurrentTransaction()
	assert.False(t, ok)
}

func TestFlow_Reset(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").
		Return(&sdk.TransactionResponse{TxID: "0xabc", TxStatus: sdk.TxStatusPending}, nil).Maybe()

	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	flow.Reset()
	_, ok := flow.CurrentTransaction()
	assert.False(t, ok)
	assert.Empty(t, flow.History())
	assert.Equal(t, 0, flow.InflightCount())
}

func TestFlow_StaleUpdatesIgnored(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetFailed(tx.ID, "boom"))
	require.NoError(t, flow.ClearCurrentTransaction())

	// updates for the dismissed transaction no longer apply
	require.ErrorIs(t, flow.SetBroadcasting(tx.ID, "0xabc"), ErrNoCurrentTx)
	require.ErrorIs(t, flow.SetConfirmed(tx.ID, 1, 1), ErrNoCurrentTx)
	require.ErrorIs(t, flow.SetFailed(tx.ID, "again"), ErrNoCurrentTx)
}

func TestFlow_StartAndCloseOnce(t *testing.T) {
	client := mocks.NewStacksClient(t)
	sink := toast.NewSink(toast.DefaultCapacity)
	flow := NewFlow(logger.Test(t), client, testConfig(), network.Mainnet, sink)

	require.NoError(t, flow.Start(context.Background()))
	require.Error(t, flow.Start(context.Background()))
	require.NoError(t, flow.Close())
	require.Error(t, flow.Close())
}

func TestFlow_LogsPollFailures(t *testing.T) {
	client := mocks.NewStacksClient(t)
	client.On("GetTransaction", mock.Anything, "0xabc").Return(nil, serverErr()).Times(3)

	lggr, observedLogs := logger.TestObserved(t, zapcore.WarnLevel)
	sink := toast.NewSink(toast.DefaultCapacity)
	flow := NewFlow(lggr, client, testConfig(), network.Testnet, sink)
	require.NoError(t, flow.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, flow.Close()) })

	tx, err := flow.StartTransaction(KindDeposit, 1)
	require.NoError(t, err)
	require.NoError(t, flow.SetBroadcasting(tx.ID, "0xabc"))

	require.Eventually(t, func() bool {
		cur, ok := flow.CurrentTransaction()
		return ok && cur.State == Failed
	}, time.Second, time.Millisecond)

	assert.Equal(t, 3, observedLogs.FilterMessageSnippet("transaction status poll failed").Len())
	assert.Equal(t, 1, observedLogs.FilterMessageSnippet("transaction failed").Len())
}

func TestFlow_UnknownKindRejected(t *testing.T) {
	client := mocks.NewStacksClient(t)
	flow, _ := newTestFlow(t, client, testConfig())

	_, err := flow.StartTransaction(TxKind("mint-nft"), 1)
	require.Error(t, err)
}
