package ledger

import "encoding/json"

type (
	JsonRpcRequest struct {
		JsonRPCVersion string `json:"jsonrpc"`
		Method         string `json:"method"`
		Id             int    `json:"id"`
		Params         []any  `json:"params"`
	}

	JsonRpcResponse[T any] struct {
		JsonRPCVersion string        `json:"jsonrpc"`
		Id             int           `json:"id"`
		Result         T             `json:"result"`
		Error          *JsonRpcError `json:"error,omitempty"`
	}

	JsonRpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
)

const (
	methodQueryEvents        = "suix_queryEvents"
	methodDryRunTransaction  = "sui_dryRunTransactionBlock"
	methodExecuteTransaction = "sui_executeTransactionBlock"
)

func newRequest(id int, method string, params ...any) JsonRpcRequest {
	if params == nil {
		params = []any{}
	}

	return JsonRpcRequest{
		JsonRPCVersion: "2.0",
		Method:         method,
		Id:             id,
		Params:         params,
	}
}

func (e *JsonRpcError) Error() string {
	marshalled, _ := json.Marshal(e)
	return string(marshalled)
}
