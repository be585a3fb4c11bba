package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intenus/preranker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rpcFixture struct {
	server   *httptest.Server
	requests []JsonRpcRequest
	respond  func(req JsonRpcRequest) (any, *JsonRpcError)
}

func newRpcFixture(t *testing.T) *rpcFixture {
	f := &rpcFixture{}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JsonRpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.requests = append(f.requests, req)

		result, rpcErr := f.respond(req)

		res := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
		}
		if rpcErr != nil {
			res["error"] = rpcErr
		} else {
			res["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(res))
	}))
	t.Cleanup(f.server.Close)

	return f
}

func TestQueryEvents(t *testing.T) {
	fixture := newRpcFixture(t)
	fixture.respond = func(req JsonRpcRequest) (any, *JsonRpcError) {
		return EventPage{
			Data: []RawEvent{{
				ID:   types.EventCursor{TxDigest: "tx1", EventSeq: "0"},
				Type: "0xabc::intents::IntentSubmitted",
			}},
			NextCursor:  &types.EventCursor{TxDigest: "tx1", EventSeq: "0"},
			HasNextPage: false,
		}, nil
	}

	client := NewRPCClient(zap.NewNop(), fixture.server.URL)

	cursor := &types.EventCursor{TxDigest: "tx0", EventSeq: "5"}
	page, err := client.QueryEvents(context.Background(), ByEventType("0xabc::intents::IntentSubmitted"), cursor, 50)
	require.NoError(t, err)

	require.Len(t, page.Data, 1)
	assert.Equal(t, "0xabc::intents::IntentSubmitted", page.Data[0].Type)
	assert.Equal(t, types.EventCursor{TxDigest: "tx1", EventSeq: "0"}, page.Data[0].Cursor())
	assert.False(t, page.HasNextPage)

	require.Len(t, fixture.requests, 1)
	req := fixture.requests[0]
	assert.Equal(t, "suix_queryEvents", req.Method)
	assert.Equal(t, "2.0", req.JsonRPCVersion)
	require.Len(t, req.Params, 4)

	// The query carries the MoveEventType filter and the cursor is forwarded
	// verbatim.
	queryParam, err := json.Marshal(req.Params[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"MoveEventType":"0xabc::intents::IntentSubmitted"}`, string(queryParam))

	cursorParam, err := json.Marshal(req.Params[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"eventSeq":"5","txDigest":"tx0"}`, string(cursorParam))

	assert.Equal(t, float64(50), req.Params[2])
	assert.Equal(t, false, req.Params[3])
}

func TestQueryEventsModuleFilter(t *testing.T) {
	fixture := newRpcFixture(t)
	fixture.respond = func(req JsonRpcRequest) (any, *JsonRpcError) {
		return EventPage{}, nil
	}

	client := NewRPCClient(zap.NewNop(), fixture.server.URL)

	_, err := client.QueryEvents(context.Background(), ByModule("0xabc", "intents"), nil, 50)
	require.NoError(t, err)

	require.Len(t, fixture.requests, 1)
	queryParam, err := json.Marshal(fixture.requests[0].Params[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"MoveModule":{"package":"0xabc","module":"intents"}}`, string(queryParam))
}

func TestQueryEventsRpcError(t *testing.T) {
	fixture := newRpcFixture(t)
	fixture.respond = func(req JsonRpcRequest) (any, *JsonRpcError) {
		return nil, &JsonRpcError{Code: -32602, Message: "invalid params"}
	}

	client := NewRPCClient(zap.NewNop(), fixture.server.URL)

	_, err := client.QueryEvents(context.Background(), EventQuery{}, nil, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.Contains(t, err.Error(), "invalid params")
}

func TestDryRunTransaction(t *testing.T) {
	fixture := newRpcFixture(t)
	fixture.respond = func(req JsonRpcRequest) (any, *JsonRpcError) {
		return map[string]any{
			"effects": map[string]any{
				"status": map[string]any{"status": "success"},
				"gasUsed": map[string]any{
					"computationCost": "1000",
					"storageCost":     "500",
					"storageRebate":   "200",
				},
			},
		}, nil
	}

	client := NewRPCClient(zap.NewNop(), fixture.server.URL)

	result, err := client.DryRunTransaction(context.Background(), "dGVzdA==")
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	require.NotNil(t, result.Effects.GasUsed)
	assert.Equal(t, "1000", result.Effects.GasUsed.ComputationCost)

	require.Len(t, fixture.requests, 1)
	req := fixture.requests[0]
	assert.Equal(t, "sui_dryRunTransactionBlock", req.Method)
	require.Len(t, req.Params, 1)
	assert.Equal(t, "dGVzdA==", req.Params[0])
}

func TestDryRunTransactionFailureStatus(t *testing.T) {
	fixture := newRpcFixture(t)
	fixture.respond = func(req JsonRpcRequest) (any, *JsonRpcError) {
		return map[string]any{
			"effects": map[string]any{
				"status": map[string]any{
					"status": "failure",
					"error":  "MoveAbort in module dex",
				},
			},
		}, nil
	}

	client := NewRPCClient(zap.NewNop(), fixture.server.URL)

	result, err := client.DryRunTransaction(context.Background(), "dGVzdA==")
	require.NoError(t, err)

	assert.False(t, result.Succeeded())
	assert.Equal(t, "MoveAbort in module dex", result.Effects.Status.Error)
}

func TestRequestIdsIncrement(t *testing.T) {
	fixture := newRpcFixture(t)
	fixture.respond = func(req JsonRpcRequest) (any, *JsonRpcError) {
		return EventPage{}, nil
	}

	client := NewRPCClient(zap.NewNop(), fixture.server.URL)

	for i := 0; i < 3; i++ {
		_, err := client.QueryEvents(context.Background(), EventQuery{}, nil, 10)
		require.NoError(t, err)
	}

	require.Len(t, fixture.requests, 3)
	assert.Equal(t, 1, fixture.requests[0].Id)
	assert.Equal(t, 2, fixture.requests[1].Id)
	assert.Equal(t, 3, fixture.requests[2].Id)
}
