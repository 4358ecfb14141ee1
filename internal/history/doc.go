// Package history persists creative results in SQLite and keeps the
// session's in-memory view of them.
//
// The Store manages the database connection, additive schema migrations, and
// the owner-scoped record queries; it is the only component aware of owner
// keys. The Controller layers session semantics on top: optimistic record
// creation, pessimistic confirmed deletion, and the reuse projection that
// repopulates the creation workspace.
//
// The database is a per-user archive with no size cap; ListByOwner is
// documented newest-first so pagination can be added without a schema
// change. Schema changes add a numbered file under migrations/; migrations
// are additive only and never rewrite existing rows.
package history
