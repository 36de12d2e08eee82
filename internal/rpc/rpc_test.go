package rpc

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeRequest(t *testing.T) {
	req, rpcErr := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"create_project","params":[1,2],"id":7}`))
	if rpcErr != nil {
		t.Fatalf("DecodeRequest failed: %v", rpcErr)
	}
	if req.Method != "create_project" {
		t.Fatalf("method = %q, want create_project", req.Method)
	}
	if string(req.ID) != "7" {
		t.Fatalf("id = %s, want 7", req.ID)
	}
	if string(req.Params) != "[1,2]" {
		t.Fatalf("params = %s, want [1,2]", req.Params)
	}
}

func TestDecodeRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		code int
	}{
		{
			name: "invalid json",
			line: `{not json`,
			code: CodeParseError,
		},
		{
			name: "wrong version",
			line: `{"jsonrpc":"1.0","method":"x","id":1}`,
			code: CodeInvalidRequest,
		},
		{
			name: "missing version",
			line: `{"method":"x","id":1}`,
			code: CodeInvalidRequest,
		},
		{
			name: "missing method",
			line: `{"jsonrpc":"2.0","id":1}`,
			code: CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := DecodeRequest([]byte(tt.line))
			if rpcErr == nil {
				t.Fatalf("DecodeRequest succeeded, want code %d", tt.code)
			}
			if rpcErr.Code != tt.code {
				t.Fatalf("code = %d, want %d", rpcErr.Code, tt.code)
			}
		})
	}
}

func TestDecodeRequestAbsentID(t *testing.T) {
	req, rpcErr := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"get_status"}`))
	if rpcErr != nil {
		t.Fatalf("DecodeRequest failed: %v", rpcErr)
	}
	if len(req.ID) != 0 {
		t.Fatalf("id = %s, want absent", req.ID)
	}
}

func TestEncodeResult(t *testing.T) {
	data, err := EncodeResult(json.RawMessage(`"abc"`), map[string]any{"success": true})
	if err != nil {
		t.Fatalf("EncodeResult failed: %v", err)
	}

	var resp struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  map[string]any  `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.JSONRPC != Version {
		t.Fatalf("jsonrpc = %q, want %q", resp.JSONRPC, Version)
	}
	if string(resp.ID) != `"abc"` {
		t.Fatalf("id = %s, want \"abc\"", resp.ID)
	}
	if resp.Result["success"] != true {
		t.Fatalf("result = %v, want success:true", resp.Result)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Fatalf("success response contains error field: %s", data)
	}
}

func TestEncodeErrorNullID(t *testing.T) {
	data, err := EncodeError(nil, Errorf(CodeParseError, "parse error"))
	if err != nil {
		t.Fatalf("EncodeError failed: %v", err)
	}
	if !strings.Contains(string(data), `"id":null`) {
		t.Fatalf("response without id should echo null, got %s", data)
	}
	if !strings.Contains(string(data), `"code":-32700`) {
		t.Fatalf("response is missing error code: %s", data)
	}
}

func TestEncodeErrorEchoesID(t *testing.T) {
	data, err := EncodeError(json.RawMessage(`42`), Errorf(CodeMethodNotFound, "nope"))
	if err != nil {
		t.Fatalf("EncodeError failed: %v", err)
	}

	var resp struct {
		ID    json.RawMessage `json:"id"`
		Error *Error          `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if string(resp.ID) != "42" {
		t.Fatalf("id = %s, want 42", resp.ID)
	}
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("error = %+v, want code %d", resp.Error, CodeMethodNotFound)
	}
}
