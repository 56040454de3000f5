// Package interfaces defines the contracts shared by the gateway components,
// separating interface definitions from their implementations.
//
// # Gateway Interfaces
//
// Target: a connected backend service that invokes RPC methods with JSON payloads.
//
// Interceptor: hooks run around every gateway request, in three phases
// (pre-handle, post-handle and after-completion).
//
// ErrorHandler: decides whether an interceptor failure is suppressed or
// aborts the current phase.
//
// # Transport Interfaces
//
// Registrar and HTTPFrontend: the HTTP server the gateway registers its routes
// on, started and stopped by the gateway.
//
// # Configuration Types
//
// Rule: one selector mapped to HTTP method/path pairs, as read from the
// http.rules section of the configuration file.
package interfaces
