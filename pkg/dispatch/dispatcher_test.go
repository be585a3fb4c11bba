package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/intenus/preranker/pkg/ledger"
	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const packageId = "0x1234"

func rawIntentEvent(t *testing.T) ledger.RawEvent {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"intent_id":      "intent-123",
		"user_address":   "0xabc",
		"walrus_blob_id": "blob-intent-123",
		"created_ts":     "1700000000000",
		"solver_access_window": map[string]string{
			"start_ms": "1700000000000",
			"end_ms":   "1700000300000",
		},
		"auto_revoke_time": "1700000600000",
	})
	require.NoError(t, err)

	return ledger.RawEvent{
		ID:         types.EventCursor{EventSeq: "1000", TxDigest: "tx-1"},
		PackageID:  packageId,
		Type:       packageId + "::intents::IntentSubmitted",
		ParsedJSON: payload,
	}
}

func rawSolutionEvent(t *testing.T) ledger.RawEvent {
	t.Helper()

	payload, err := json.Marshal(map[string]string{
		"solution_id":    "solution-456",
		"intent_id":      "intent-123",
		"solver_address": "0xdead",
		"walrus_blob_id": "blob-solution-456",
		"submitted_at":   "1700000100000",
	})
	require.NoError(t, err)

	return ledger.RawEvent{
		ID:         types.EventCursor{EventSeq: "1001", TxDigest: "tx-2"},
		PackageID:  packageId,
		Type:       packageId + "::solutions::SolutionSubmitted",
		ParsedJSON: payload,
	}
}

func TestDispatchIntentSubmitted(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())

	var received types.IntentSubmitted
	dispatcher.OnIntentSubmitted(func(ctx context.Context, event types.IntentSubmitted) error {
		received = event
		return nil
	})

	require.NoError(t, dispatcher.Dispatch(context.Background(), rawIntentEvent(t)))

	require.Equal(t, "intent-123", received.IntentID)
	require.Equal(t, "0xabc", received.UserAddress)
	require.Equal(t, "blob-intent-123", received.BlobID)
	require.Equal(t, int64(1700000000000), received.CreatedTs)
	require.Equal(t, int64(1700000300000), received.SolverAccessWindow.EndMs)
	require.Equal(t, int64(1700000600000), received.AutoRevokeTime)
}

func TestDispatchSolutionSubmitted(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())

	var received types.SolutionSubmitted
	dispatcher.OnSolutionSubmitted(func(ctx context.Context, event types.SolutionSubmitted) error {
		received = event
		return nil
	})

	require.NoError(t, dispatcher.Dispatch(context.Background(), rawSolutionEvent(t)))

	require.Equal(t, "solution-456", received.SolutionID)
	require.Equal(t, "intent-123", received.IntentID)
	require.Equal(t, "0xdead", received.SolverAddress)
	require.Equal(t, int64(1700000100000), received.SubmittedAt)
}

func TestDispatchSynchronous(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())

	order := make([]string, 0, 2)
	dispatcher.OnIntentSubmitted(func(ctx context.Context, event types.IntentSubmitted) error {
		order = append(order, "first")
		return nil
	})
	dispatcher.OnIntentSubmitted(func(ctx context.Context, event types.IntentSubmitted) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, dispatcher.Dispatch(context.Background(), rawIntentEvent(t)))
	require.Equal(t, []string{"first", "second"}, order)
}

func TestDispatchHandlerError(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())

	handlerErr := errors.New("resolution failed")
	dispatcher.OnSolutionSubmitted(func(ctx context.Context, event types.SolutionSubmitted) error {
		return handlerErr
	})

	err := dispatcher.Dispatch(context.Background(), rawSolutionEvent(t))
	require.ErrorIs(t, err, handlerErr)
}

func TestDispatchUnknownType(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())

	err := dispatcher.Dispatch(context.Background(), ledger.RawEvent{
		Type:       packageId + "::intents::IntentRevoked",
		ParsedJSON: json.RawMessage(`{}`),
	})
	require.ErrorIs(t, err, ErrUnknownEventType)
}

func TestDispatchMalformedPayload(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())
	dispatcher.OnIntentSubmitted(func(ctx context.Context, event types.IntentSubmitted) error {
		t.Fatal("handler must not be invoked for a malformed event")
		return nil
	})

	event := rawIntentEvent(t)
	event.ParsedJSON = json.RawMessage("null")

	err := dispatcher.Dispatch(context.Background(), event)

	var malformed *MalformedEventError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, event.Type, malformed.EventType)
}

func TestDispatchMissingRequiredFields(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())

	event := rawSolutionEvent(t)
	event.ParsedJSON = json.RawMessage(`{"solution_id": "solution-456"}`)

	err := dispatcher.Dispatch(context.Background(), event)

	var malformed *MalformedEventError
	require.ErrorAs(t, err, &malformed)
}
