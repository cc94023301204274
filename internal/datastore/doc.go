// Package datastore gives each feature module isolated, lazily created,
// schema-managed SQLite databases, one per scope, plus a key/value
// convenience layer on top.
//
// # Architecture
//
// Three layers, leaves first:
//
//   - TableSchema: immutable declaration of one table (creation statement,
//     default rows, reseed policy). Built with NewTableSchema or, for
//     two-column key/value tables, NewKeyValueSchema.
//   - Conn: owns the SQLite handle for one (domain, scope) pair. Applies
//     schemas on open and exposes Execute/Fetch/Evaluate primitives and the
//     GetValue/SetValue key/value surface.
//   - Domain: one per feature module. Maps scopes to cached Conns and holds
//     the schemas registered per scope type.
//
// A Store ties it together: the composition root constructs one and every
// module resolves its Domain through it, so a given domain name always
// yields the same registry instance.
//
// # Scopes
//
// A Scope is either a TypedScope (kind + numeric id, e.g. guild 1234) or a
// NamedScope such as GlobalScope. Each scope maps deterministically to one
// database file under <root>/<domain>/data/<scope_key>.db.
//
// # Bootstrap
//
// Opening a scope creates missing tables, seeds their default rows with
// INSERT OR IGNORE, and re-applies the defaults of every ReseedAlways schema
// so configuration keys introduced by a later version appear in existing
// databases without a migration. Keys already present keep their values.
//
// Schema drift is unsupported: if an existing table's shape no longer
// matches its creation statement, the broker neither detects nor repairs it.
// This is not a migration system.
//
// # Concurrency
//
// Every call is synchronous and runs to completion on the caller's
// goroutine. A Conn does no internal locking and must not be shared across
// goroutines without external synchronization; Domain and Store guard their
// caches so exactly one Conn exists per live (domain, scope) pair. No
// ordering is guaranteed between operations on different Conns.
//
// # Errors
//
// Sentinels (ErrSchemaDefinition, ErrUnknownTable, ErrNotKeyValue,
// ErrInvalidScope, ErrUnsupportedValue, ErrClosed) are matched with
// errors.Is. Driver failures propagate wrapped; nothing is retried or
// swallowed, and logging a failure is the caller's concern.
package datastore
