// Package server exposes the curation gateway over HTTP.
//
// Endpoints:
//
//   - GET    /api/v1/examples/{modelType}        - list a domain's examples
//   - POST   /api/v1/examples/add                - append an example
//   - POST   /api/v1/examples/update-correction  - patch a corrected formula
//   - DELETE /api/v1/examples/{modelType}        - reset a domain's collection
//   - GET    /api/v1/backups/{modelType}         - list backups, newest first
//   - GET    /api/v1/audit                       - list recent mutations, newest first
//   - POST   /api/v1/chat                        - route a conversation to a backend
//   - GET    /health                             - liveness + available domains
//
// Domain keys are validated at the boundary before any side effect; store
// and router errors map onto distinct status codes (404 missing correction
// target, 502 backend failure with the backend's status and body forwarded,
// 504 backend timeout). Successful mutations are recorded in the audit
// trail when one is configured.
package server
