package attrspace

import "errors"

// ErrBucketNotFound is returned by storageTx.DeleteBucket when the table doesn't exist.
var ErrBucketNotFound = errors.New("bucket not found")

// storage represents an ordered key-value storage backend (Bolt, in-memory, ...).
// The core assumes only point get/put/delete, truncate (via delete+recreate),
// and a forward cursor; no range seeks are required (see spec.md §6).
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

// storageTx represents a storage transaction. One table = one bucket.
type storageTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Bucket returns a table's bucket, or nil if it doesn't exist yet.
	Bucket(name string) storageBucket

	// CreateBucket creates a table's bucket if it doesn't already exist.
	CreateBucket(name string) (storageBucket, error)

	// Truncate empties a table, keeping the bucket itself.
	Truncate(name string) error

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown / not applicable).
	Size() int64
}

// storageBucket represents a bucket (sorted key-value collection).
type storageBucket interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key. No-op if the key is absent.
	Delete(key []byte) error

	// Cursor returns a forward cursor over the bucket, starting before the first entry.
	Cursor() storageCursor

	// KeyCount returns the number of keys in the bucket (best effort).
	KeyCount() int
}

// storageCursor iterates forward over a sorted bucket.
type storageCursor interface {
	// Next advances to the next key-value pair and returns it, or (nil, nil)
	// once exhausted. The first call returns the first pair.
	Next() (key, value []byte)
}
