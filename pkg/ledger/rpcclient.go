package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

// RPCClient talks JSON-RPC 2.0 to a single fullnode endpoint.
type RPCClient struct {
	logger    *zap.Logger
	endpoint  string
	client    *http.Client
	requestId atomic.Int64
}

var _ Client = (*RPCClient)(nil)

func NewRPCClient(logger *zap.Logger, endpoint string) *RPCClient {
	return &RPCClient{
		logger:   logger,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *RPCClient) QueryEvents(ctx context.Context, query EventQuery, cursor *types.EventCursor, limit int) (EventPage, error) {
	var page EventPage
	if err := c.call(ctx, methodQueryEvents, &page, query, cursor, limit, false); err != nil {
		return EventPage{}, errors.Wrap(ErrQueryFailed, err.Error())
	}

	return page, nil
}

func (c *RPCClient) DryRunTransaction(ctx context.Context, txBytes string) (types.DryRunResult, error) {
	var result types.DryRunResult
	if err := c.call(ctx, methodDryRunTransaction, &result, txBytes); err != nil {
		return types.DryRunResult{}, errors.Wrap(ErrDryRunFailed, err.Error())
	}

	return result, nil
}

func (c *RPCClient) ExecuteTransaction(ctx context.Context, txBytes, signature string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.call(ctx, methodExecuteTransaction, &result, txBytes, []string{signature}); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *RPCClient) call(ctx context.Context, method string, result any, params ...any) error {
	req := newRequest(int(c.requestId.Add(1)), method, params...)

	marshalled, err := json.Marshal(req)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithTimeout(ctx, requestTimeout)
	defer cancelFunc()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(marshalled))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return err
	}

	if httpRes.StatusCode != http.StatusOK {
		c.logger.Warn(
			"Ledger RPC returned non-200 status",
			zap.String("method", method),
			zap.Int("status_code", httpRes.StatusCode),
		)
		return errors.Errorf("unexpected status code %d", httpRes.StatusCode)
	}

	var res JsonRpcResponse[json.RawMessage]
	if err := json.Unmarshal(body, &res); err != nil {
		return err
	}

	if res.Error != nil {
		return res.Error
	}

	return json.Unmarshal(res.Result, result)
}
