// Package postgres manages PostgreSQL connections for the billing store.
//
// A ConnectionManager holds one primary connection pool for writes and an
// optional set of read replicas selected round-robin for queries. Replicas
// are best-effort: a replica that fails to connect at startup is skipped,
// and queries fall back to the primary when none are available.
package postgres
