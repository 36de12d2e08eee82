package rpc

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC protocol version carried by every request and response.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700 // Invalid JSON was received.
	CodeInvalidRequest = -32600 // Message is not a valid request object.
	CodeMethodNotFound = -32601 // Method does not exist.
	CodeInvalidParams  = -32602 // Invalid method parameters.
	CodeInternalError  = -32603 // Internal error.
)

// Application error codes, allocated downward from -1000 to stay outside the
// range the JSON-RPC specification reserves for itself.
const (
	CodeOperationInProgress = -1000 // Project lock is busy; always retryable.
	CodeNoActiveProject     = -1001 // No resident project.
	CodeOutOfBounds         = -1002 // Voxel coordinates outside project dimensions.
	CodeIOError             = -1003 // File read or write failure.
	CodeUnsupportedFormat   = -1004 // Export format not implemented.
	CodeRenderUnavailable   = -1005 // Offscreen rendering backend not present.
	CodeRenderFailed        = -1006 // Rendering backend present but failed.
)

// A decoded request.
//
// Params and ID are kept raw: parameters are validated per method, and the id
// is opaque to the daemon and echoed back verbatim.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// A response carrying either a result or an error, never both.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// A JSON-RPC error object. Implements the error interface so handlers can
// return one directly in place of a sentinel.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Returns the error message.
func (e *Error) Error() string {
	return e.Message
}

// Creates an [Error] with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Decodes a single request line.
//
// Returns a [CodeParseError] error for unparseable JSON, and a
// [CodeInvalidRequest] error for structurally invalid requests (wrong
// protocol version or missing method). An absent id is permitted; the
// response is then written with a null id.
func DecodeRequest(line []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, Errorf(CodeParseError, "parse error: %v", err)
	}

	if req.JSONRPC != Version {
		return nil, Errorf(CodeInvalidRequest, "unsupported jsonrpc version %q", req.JSONRPC)
	}

	if req.Method == "" {
		return nil, Errorf(CodeInvalidRequest, "missing method")
	}

	return &req, nil
}

// Encodes a success response with the given result payload.
func EncodeResult(id json.RawMessage, result any) ([]byte, error) {
	return json.Marshal(&Response{
		JSONRPC: Version,
		ID:      echoID(id),
		Result:  result,
	})
}

// Encodes an error response.
func EncodeError(id json.RawMessage, rpcErr *Error) ([]byte, error) {
	return json.Marshal(&Response{
		JSONRPC: Version,
		ID:      echoID(id),
		Error:   rpcErr,
	})
}

// Returns the id to echo in a response. A request without an id still gets a
// response, with an explicit null id.
func echoID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
