// Package postgres implements the persistence layer on PostgreSQL: resource
// rows, append-only revisions, and workspace memberships.
//
// # Connections
//
// ConnectionManager maintains a primary pool for writes and optional read
// replicas selected round-robin:
//
//	cm, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
//		PrimaryURL: cfg.DatabaseURL,
//		MaxConns:   25,
//	}, logger)
//
// # Stores
//
// Each store wraps a *sql.DB and maps driver errors onto the domain
// sentinels:
//
//   - ResourceStore: live resource rows (hierarchy.ResourceStore)
//   - MembershipStore: workspace memberships with the last-owner guard
//   - RevisionStore: append-only version history (revision.Store)
//   - MutationStore: combined resource + revision writes (mutation.Store)
//
// # Invariants
//
// The last-owner guard and revision version assignment are enforced inside
// transactions with row locks, not in application memory. Concurrent revision
// writers are serialized by the UNIQUE (resource_id, version) constraint;
// losers surface revision.ErrConflict.
package postgres
