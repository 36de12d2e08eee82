// Package rpc implements the JSON-RPC 2.0 codec for the voxd wire protocol.
//
// Requests arrive as single lines of UTF-8 JSON. [DecodeRequest] turns a raw
// line into a [Request] carrying the method name, raw parameters, and the
// client-supplied correlation id. [EncodeResult] and [EncodeError] produce
// the matching response line with the id echoed verbatim.
//
// Parameters are validated against a per-method declaration before a handler
// ever sees them. A method declares its parameters as a []Param; [Validate]
// accepts both positional (array) and named (object) forms, applies defaults,
// and returns typed [Args].
//
// Example usage:
//
//	req, rpcErr := rpc.DecodeRequest(line)
//	if rpcErr != nil {
//	    return rpc.EncodeError(nil, rpcErr)
//	}
//
//	args, rpcErr := rpc.Validate(spec, req.Params)
//	if rpcErr != nil {
//	    return rpc.EncodeError(req.ID, rpcErr)
//	}
package rpc
