// Package kv defines the transaction handle the sessionizer core operates
// on. The core never owns a transaction; callers open one, pass it through
// a batch of inserts and flushes, and commit or discard it themselves.
package kv

// Txn is a single read-write transaction over an ordered key space.
// Insert and Update are both insert-or-overwrite; the split mirrors the
// intent at the call sites (Insert for fresh event records, Update for
// records that are expected to be overwritten).
type Txn interface {
	Insert(key, value []byte) error
	Update(key, value []byte) error
	Cursor() Cursor
}

// Cursor walks the key space in lexicographic order. Delete removes the
// current key through the owning transaction, so a scan-and-drain pass is
// safe: the cursor reads a snapshot and is not invalidated by its own
// deletes. Close must be called on every exit path.
type Cursor interface {
	// SeekFirstOrGreater positions the cursor at the first key that is
	// equal to or sorts after the given key. Returns false if no such key
	// exists.
	SeekFirstOrGreater(key []byte) bool
	Next() bool
	// Key is only valid until the next call to Next.
	Key() []byte
	Value() ([]byte, error)
	Delete() error
	Close()
}
