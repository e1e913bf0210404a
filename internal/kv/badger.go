package kv

import (
	"bytes"

	"github.com/dgraph-io/badger/v4"
)

// DB wraps a badger database and hands out Txn handles.
type DB struct {
	db *badger.DB
}

func Open(path string) (*DB, error) {
	o := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(o)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

// OpenInMem opens a throwaway in-memory database, used in tests.
func OpenInMem() (*DB, error) {
	o := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(o)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// NewTransaction starts a transaction the caller must Commit or Discard.
func (db *DB) NewTransaction(update bool) *BadgerTxn {
	return &BadgerTxn{txn: db.db.NewTransaction(update)}
}

// Update runs fn inside a read-write transaction and commits it.
func (db *DB) Update(fn func(txn Txn) error) error {
	return db.db.Update(func(txn *badger.Txn) error {
		return fn(&BadgerTxn{txn: txn})
	})
}

// View runs fn inside a read-only transaction.
func (db *DB) View(fn func(txn Txn) error) error {
	return db.db.View(func(txn *badger.Txn) error {
		return fn(&BadgerTxn{txn: txn})
	})
}

// BadgerTxn adapts *badger.Txn to the Txn contract.
type BadgerTxn struct {
	txn *badger.Txn
}

var _ Txn = (*BadgerTxn)(nil)

func (t *BadgerTxn) Insert(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *BadgerTxn) Update(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *BadgerTxn) Cursor() Cursor {
	it := t.txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   badger.DefaultIteratorOptions.PrefetchSize,
	})
	return &badgerCursor{txn: t.txn, it: it}
}

func (t *BadgerTxn) Commit() error {
	return t.txn.Commit()
}

func (t *BadgerTxn) Discard() {
	t.txn.Discard()
}

type badgerCursor struct {
	txn *badger.Txn
	it  *badger.Iterator
	key []byte
}

func (c *badgerCursor) SeekFirstOrGreater(key []byte) bool {
	c.it.Seek(key)
	return c.load()
}

func (c *badgerCursor) Next() bool {
	c.it.Next()
	return c.load()
}

func (c *badgerCursor) load() bool {
	if !c.it.Valid() {
		return false
	}
	c.key = c.it.Item().KeyCopy(c.key[:0])
	return true
}

func (c *badgerCursor) Key() []byte {
	return c.key
}

func (c *badgerCursor) Value() ([]byte, error) {
	return c.it.Item().ValueCopy(nil)
}

func (c *badgerCursor) Delete() error {
	// The iterator reads a snapshot, so deleting under it does not
	// disturb the scan.
	return c.txn.Delete(bytes.Clone(c.key))
}

func (c *badgerCursor) Close() {
	c.it.Close()
}
