// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"encoding/json"
	"fmt"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

// RPCError represents a JSON-RPC 2.0 error returned by the engine.
// Category carries the engine's failure taxonomy and is the raw material
// for repo.Classify.
type RPCError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("engine error %d (%s): %s", e.Code, e.Category, e.Message)
	}
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// Method names understood by cofferd
const (
	MethodVersion    = "engine.version"
	MethodStatus     = "repository.status"
	MethodConnect    = "repository.connect"
	MethodCreate     = "repository.create"
	MethodDisconnect = "repository.disconnect"
	MethodExists     = "repository.exists"
)

// Failure categories reported by cofferd in RPCError.Category
const (
	CategoryAlreadyConnected  = "ALREADY_CONNECTED"
	CategoryNotFound          = "NOT_FOUND"
	CategoryConnectionRefused = "CONNECTION_REFUSED"
	CategoryServerNotRunning  = "SERVER_NOT_RUNNING"
	CategoryInvalidPassword   = "INVALID_PASSWORD"
	CategoryInternal          = "INTERNAL"
)

// StorageConfig is the wire form of a storage target: a provider kind plus
// the provider-specific parameters. The front-end never interprets the
// parameters beyond validation; they are opaque to everything but cofferd.
type StorageConfig struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Algorithms selects the block format for a newly created repository
type Algorithms struct {
	Hash       string `json:"hash"`
	Encryption string `json:"encryption"`
	Splitter   string `json:"splitter"`
}

// RepositoryStatus is a point-in-time snapshot of the engine's repository
// connection. Produced only by the engine and treated as advisory: a false
// Connected immediately after connect/create means "not yet observed as
// ready", not failure.
type RepositoryStatus struct {
	Connected   bool   `json:"connected"`
	StorageKind string `json:"storageKind,omitempty"`
	Hash        string `json:"hash,omitempty"`
	Encryption  string `json:"encryption,omitempty"`
	Splitter    string `json:"splitter,omitempty"`
	Username    string `json:"username,omitempty"`
	Hostname    string `json:"hostname,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
}

// ConnectParams are the parameters for repository.connect
type ConnectParams struct {
	Storage  StorageConfig `json:"storage"`
	Password string        `json:"password"`
}

// CreateParams are the parameters for repository.create.
// Provisioning completes out-of-band; the caller observes readiness through
// repository.status.
type CreateParams struct {
	Storage     StorageConfig `json:"storage"`
	Password    string        `json:"password"`
	Description string        `json:"description,omitempty"`
	Algorithms  Algorithms    `json:"algorithms"`
}

// ExistsParams are the parameters for repository.exists
type ExistsParams struct {
	Storage StorageConfig `json:"storage"`
}

// ExistsResult is the result of repository.exists
type ExistsResult struct {
	Exists bool `json:"exists"`
}

// VersionResult is the result of engine.version
type VersionResult struct {
	Version string `json:"version"`
}

// NewRequest builds a JSON-RPC request with marshaled params.
// A nil params value produces a request without a params field.
func NewRequest(id interface{}, method string, params interface{}) (*JSONRPCRequest, error) {
	req := &JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      id,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s params: %w", method, err)
		}
		req.Params = data
	}
	return req, nil
}

// NewResultResponse builds a JSON-RPC success response with a marshaled result
func NewResultResponse(id interface{}, result interface{}) (*JSONRPCResponse, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  data,
		ID:      id,
	}, nil
}

// NewErrorResponse builds a JSON-RPC error response
func NewErrorResponse(id interface{}, code int, category, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &RPCError{
			Code:     code,
			Message:  message,
			Category: category,
		},
		ID: id,
	}
}

// JSON-RPC protocol error codes
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603

	// ErrCodeRepository is the application-level code cofferd uses for
	// repository failures; the Category field disambiguates.
	ErrCodeRepository = -32000
)
