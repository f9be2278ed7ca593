package chain

import (
	"encoding/json"
	"fmt"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("RPC error %d - %s: %s", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("RPC error %d - %s", e.Code, e.Message)
}

func unmarshalResponse(body []byte, expectedID uint64) (json.RawMessage, error) {
	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling: %w", err)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	var id uint64
	if err := json.Unmarshal(resp.ID, &id); err != nil {
		return nil, fmt.Errorf("wrong ID: %s", string(resp.ID))
	}
	if id != expectedID {
		return nil, fmt.Errorf("wrong ID: got %d, expected %d", id, expectedID)
	}

	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, fmt.Errorf("empty result")
	}
	return resp.Result, nil
}
