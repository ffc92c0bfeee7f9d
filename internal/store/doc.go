// Package store owns the persisted state of the curation gateway: per-domain
// example collections, their backups, and the mutation audit trail.
//
// # Collections
//
// Each domain key has one collection file, a human-indented JSON array of
// Example records at {dataDir}/{domain}-examples.json. FileStore is the sole
// mutator. Every mutation follows the same order: snapshot the current file
// through Catalog, apply the change, trim to the retention bound (oldest
// entries evicted first), write. Writers for the same domain are serialized
// with a per-key mutex; distinct domains never contend.
//
// # Backups
//
// Catalog copies collection files verbatim to
// {backupDir}/{domain}-examples-{YYYYMMDD_HHMMSS}.json. The timestamp layout
// sorts lexicographically in chronological order, which List relies on.
// Backups are never deleted by this package.
//
// # Audit trail
//
// AuditStore records every successful mutation in SQLite (WAL mode), one row
// per operation. It is an observability aid: audit failures are logged by
// callers, never surfaced to clients.
//
// # Errors
//
//   - ErrInvalidDomain: key outside the closed enumeration
//   - ErrNotFound: correction target missing from the collection
//   - ErrCorrupt: an existing collection file failed to decode — distinct
//     from the never-written state, which loads as an empty collection
package store
