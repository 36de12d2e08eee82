package server

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/voxelhq/voxd/internal/engine"
	"github.com/voxelhq/voxd/internal/rpc"
)

// Declares one RPC method: its parameter contract and handler.
type method struct {
	params  []rpc.Param
	handler func(s *Server, args rpc.Args) (any, error)
}

// The fixed method table. Dispatch never consults anything else, so an
// unknown method is rejected before the project lock is touched.
var methods = map[string]method{
	"create_project": {
		params: []rpc.Param{
			{Name: "name", Kind: rpc.String, Default: "New Project"},
			{Name: "width", Kind: rpc.Int, Default: engine.DefaultDimension},
			{Name: "height", Kind: rpc.Int, Default: engine.DefaultDimension},
			{Name: "depth", Kind: rpc.Int, Default: engine.DefaultDimension},
		},
		handler: handleCreateProject,
	},
	"load_project": {
		params:  []rpc.Param{{Name: "path", Kind: rpc.String, Required: true}},
		handler: handleLoadProject,
	},
	"save_project": {
		params:  []rpc.Param{{Name: "path", Kind: rpc.String, Required: true}},
		handler: handleSaveProject,
	},
	"add_voxel": {
		params: []rpc.Param{
			{Name: "x", Kind: rpc.Int, Required: true},
			{Name: "y", Kind: rpc.Int, Required: true},
			{Name: "z", Kind: rpc.Int, Required: true},
			{Name: "r", Kind: rpc.Int, Required: true},
			{Name: "g", Kind: rpc.Int, Required: true},
			{Name: "b", Kind: rpc.Int, Required: true},
			{Name: "a", Kind: rpc.Int, Default: 255},
		},
		handler: handleAddVoxel,
	},
	"remove_voxel": {
		params: []rpc.Param{
			{Name: "x", Kind: rpc.Int, Required: true},
			{Name: "y", Kind: rpc.Int, Required: true},
			{Name: "z", Kind: rpc.Int, Required: true},
		},
		handler: handleRemoveVoxel,
	},
	"get_voxel": {
		params: []rpc.Param{
			{Name: "x", Kind: rpc.Int, Required: true},
			{Name: "y", Kind: rpc.Int, Required: true},
			{Name: "z", Kind: rpc.Int, Required: true},
		},
		handler: handleGetVoxel,
	},
	"export_model": {
		params: []rpc.Param{
			{Name: "path", Kind: rpc.String, Required: true},
			{Name: "format", Kind: rpc.String, Default: ""},
		},
		handler: handleExportModel,
	},
	"render_scene": {
		params: []rpc.Param{
			{Name: "path", Kind: rpc.String, Required: true},
			{Name: "width", Kind: rpc.Int, Required: true},
			{Name: "height", Kind: rpc.Int, Required: true},
		},
		handler: handleRenderScene,
	},
	"get_status": {
		handler: handleGetStatus,
	},
	"list_layers": {
		handler: handleListLayers,
	},
	"create_layer": {
		params: []rpc.Param{
			{Name: "name", Kind: rpc.String, Default: "New Layer"},
			{Name: "visible", Kind: rpc.Bool, Default: true},
		},
		handler: handleCreateLayer,
	},
}

// Turns one request line into one encoded response line (without the
// trailing newline).
func (s *Server) serve(connID string, line []byte) []byte {
	req, rpcErr := rpc.DecodeRequest(line)
	if rpcErr != nil {
		return encodeResponse(rpc.EncodeError(nil, rpcErr))
	}

	slog.Debug("request received", "conn", connID, "method", req.Method)

	result, rpcErr := s.dispatch(connID, req)
	if rpcErr != nil {
		return encodeResponse(rpc.EncodeError(req.ID, rpcErr))
	}
	return encodeResponse(rpc.EncodeResult(req.ID, result))
}

// Routes a decoded request to its handler.
//
// The project lock is acquired before parameter validation and released on
// every exit path, including handler panics, so the lock is held for exactly
// the duration of the call and failed validation never touches project
// state. Handlers themselves never see the lock.
func (s *Server) dispatch(connID string, req *rpc.Request) (result any, rpcErr *rpc.Error) {
	m, ok := methods[req.Method]
	if !ok {
		return nil, rpc.Errorf(rpc.CodeMethodNotFound, "method not found: %s", req.Method)
	}

	if !s.state.lock.tryAcquire(connID) {
		slog.Debug("project lock busy", "conn", connID, "holder", s.state.lock.holderID())
		return nil, rpc.Errorf(rpc.CodeOperationInProgress, "operation in progress")
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panic", "method", req.Method, "panic", r)
			result, rpcErr = nil, rpc.Errorf(rpc.CodeInternalError, "internal error")
		}
		s.state.lock.release()
	}()

	args, rpcErr := rpc.Validate(m.params, req.Params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	res, err := m.handler(s, args)
	if err != nil {
		return nil, toRPCError(err)
	}
	return res, nil
}

// Translates a handler failure into a wire error.
//
// Handlers return either *rpc.Error directly (validation they can only do
// themselves) or wrapped engine/os sentinels, mapped here to the application
// error codes. Anything unrecognized is an internal error.
func toRPCError(err error) *rpc.Error {
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var code int
	switch {
	case errors.Is(err, errNoProject):
		code = rpc.CodeNoActiveProject
	case errors.Is(err, engine.ErrOutOfBounds):
		code = rpc.CodeOutOfBounds
	case errors.Is(err, engine.ErrUnsupportedFormat):
		code = rpc.CodeUnsupportedFormat
	case errors.Is(err, engine.ErrRenderUnavailable):
		code = rpc.CodeRenderUnavailable
	case errors.Is(err, engine.ErrRenderFailed):
		code = rpc.CodeRenderFailed
	case errors.Is(err, engine.ErrBadProjectFile), isIOError(err):
		code = rpc.CodeIOError
	default:
		slog.Error("handler failed", "error", err)
		code = rpc.CodeInternalError
	}
	return rpc.Errorf(code, "%s", err)
}

// Whether an error originated in the filesystem.
func isIOError(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrExist)
}

// Serializes an encoded response, falling back to a canned internal error if
// marshalling itself failed (result payloads are plain maps, so this should
// not happen).
func encodeResponse(data []byte, err error) []byte {
	if err != nil {
		slog.Error("encode response failed", "error", err)
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal error"}}`)
	}
	return data
}
