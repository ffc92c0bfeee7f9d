// Package gateway routes chat conversations to per-domain inference backends.
//
// # Routing
//
// Router.Route validates the domain key against the closed enumeration,
// resolves the backend base URL from the configured table, and forwards the
// full turn sequence to POST {base}/generate along with fixed generation
// parameters (bounded output length, low temperature). The call is bounded
// by the configured request timeout; expiry surfaces as ErrBackendTimeout
// and never blocks the caller past the ceiling.
//
// The router owns no persistent state. Requests run with unbounded
// concurrency.
//
// # Reply normalization
//
// Backends disagree about reply shapes. ExtractGeneratedText tries each
// known shape in a fixed precedence order — choices, generated_text,
// response, output — and falls back to the raw body when none match. The
// order is a compatibility contract: payloads can satisfy several shapes,
// and the first match always wins.
//
// # Errors
//
//   - store.ErrInvalidDomain: domain key outside the enumeration
//   - ErrNoBackend: domain has no configured backend address
//   - ErrNoUserMessage: conversation has no user-role turn
//   - ErrBackendTimeout: backend exceeded the request timeout
//   - *BackendError: non-success backend status, carrying status and body
package gateway
