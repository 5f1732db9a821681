/*
gateway.go - Generic document-store capability

PURPOSE:
  Defines the interface between the business services and the backing
  document database. Services speak in collections, filters, and raw
  documents; they never see driver types.

KEY INTERFACES:
  Gateway:    Connection-scoped handle (collections, readiness probe, close)
  Collection: Per-collection operations (find, insert, update, upsert, delete)

UPSERT CONTRACT:
  Upsert is create-if-absent-else-update keyed by a business filter, not a
  surrogate id. Implementations must make it a single conditional operation
  where the backend allows it (Mongo UpdateOne with upsert, SQLite
  transaction guarded by a unique index). When two writers race to create
  the same key, the unique index converts the loser into ErrConflict and
  callers retry as an update.

IMPLEMENTATIONS:
  - store/mongo:  MongoDB (production target of the original deployment)
  - store/sqlite: embedded single-file deployments
  - store/memory: in-memory for tests and dev

SEE ALSO:
  - errors.go: sentinel errors shared by all implementations
  - filter.go: filter conditions and document helpers
*/
package store

import "context"

// Document is a schemaless record as stored in a collection. Every stored
// document carries an "_id" string.
type Document = map[string]any

// IDField is the document identifier key used by all backends.
const IDField = "_id"

// Gateway is a process-wide handle to the backing store. It is created once
// at startup and passed to every component (no ambient globals).
type Gateway interface {
	// Collection returns a handle to the named collection. Collections are
	// created lazily on first write.
	Collection(name string) Collection

	// Ready reports whether the store is reachable. Returns ErrUnavailable
	// (possibly wrapped) when it is not. The availability gate calls this
	// before admitting any request.
	Ready(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Collection exposes document operations on a single collection.
type Collection interface {
	// FindOne returns the first document matching filter.
	// Returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, filter Filter) (Document, error)

	// Find returns all documents matching filter. A nil filter matches
	// everything. Order is unspecified; callers sort.
	Find(ctx context.Context, filter Filter) ([]Document, error)

	// Insert stores a new document and returns its id. If the document has
	// no "_id" one is generated. Returns ErrConflict when a unique index
	// is violated.
	Insert(ctx context.Context, doc Document) (string, error)

	// Update applies set to the first document matching filter and returns
	// the updated document. Returns ErrNotFound when nothing matches and
	// ErrConflict when the update violates a unique index.
	Update(ctx context.Context, filter Filter, set Document) (Document, error)

	// Upsert applies set to the document matching filter, creating it with
	// set+setOnInsert when absent. Returns the resulting document and
	// whether it was created. setOnInsert fields are never written on the
	// update path.
	Upsert(ctx context.Context, filter Filter, set, setOnInsert Document) (Document, bool, error)

	// Delete removes the first document matching filter.
	// Returns ErrNotFound when nothing matches.
	Delete(ctx context.Context, filter Filter) error

	// EnsureUniqueIndex declares a unique constraint over the given field
	// paths. Idempotent; called at startup.
	EnsureUniqueIndex(ctx context.Context, fields ...string) error
}
