// Package server implements the voxd daemon.
//
// The daemon listens on a Unix domain socket for newline-delimited JSON-RPC
// 2.0 requests. Each connection is served by its own goroutine and carries
// any number of requests, answered strictly in order. Every request receives
// exactly one response carrying the client's correlation id.
//
// All project mutation is serialized through a single try-acquire lock over
// the one resident project. The dispatcher takes the lock before validating
// parameters and releases it on every exit path; when the lock is busy the
// caller gets an immediate "operation in progress" error instead of waiting,
// so a slow render cannot stall unrelated clients. Handlers perform the
// actual operations against the engine package.
//
// Example usage:
//
//	srv, err := server.New(server.Config{})
//	if err != nil {
//	    return err
//	}
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
