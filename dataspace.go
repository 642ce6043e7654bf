package attrspace

import (
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

// Options configures Open, mirroring the teacher's Options struct: a
// logging hook rather than a concrete logger dependency, plus a testing
// flag that relaxes bbolt's durability knobs.
type Options struct {
	Logf      func(format string, args ...any)
	Verbose   bool
	IsTesting bool
	MmapSize  int

	// SortProjection, when true, makes GetEntity sort each node's children
	// by (name, value) for deterministic output. Off by default, matching
	// spec.md §4.7's "callers that need determinism must sort".
	SortProjection bool
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// DataSpace is the embedded entity/attribute store described by spec.md.
// It owns its storage backend exclusively for its lifetime; it is not
// reentrant (spec.md §5).
type DataSpace struct {
	st      storage
	profile Profile
	opt     Options

	ReadCount   atomic.Uint64
	WriteCount  atomic.Uint64
	WriterCount atomic.Int64
}

// Open opens (creating if necessary) a Bolt-backed data space at path with
// the given index profile.
func Open(path string, profile Profile, opt Options) (*DataSpace, error) {
	if path == "" {
		return nil, newErr(InvalidInput, "open", "")
	}
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, newErrf(StoreOpen, "open", path, err)
	}

	return newDataSpace(newBoltStorage(bdb), profile, opt)
}

// OpenMem opens a transient in-memory data space, used by tests and by
// embedders who don't need a file.
func OpenMem(profile Profile, opt Options) (*DataSpace, error) {
	return newDataSpace(newMemStorage(), profile, opt)
}

func newDataSpace(st storage, profile Profile, opt Options) (*DataSpace, error) {
	ds := &DataSpace{st: st, profile: profile, opt: opt}
	// Ensure every table bucket for this profile exists up front, so reads
	// never need to special-case "table not yet created" versus "table
	// empty".
	if err := ds.write(func(f facade) error {
		for _, table := range tablesForProfile(profile) {
			if _, err := f.tx.CreateBucket(table); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = st.Close()
		return nil, newErrf(StoreOpen, "open", "", err)
	}
	return ds, nil
}

// Close closes the underlying storage.
func (ds *DataSpace) Close() error {
	return ds.st.Close()
}

// Profile returns the index profile this data space was opened with.
func (ds *DataSpace) Profile() Profile {
	return ds.profile
}

// read runs f in a read-only transaction.
func (ds *DataSpace) read(f func(f facade) error) error {
	ds.ReadCount.Add(1)
	tx, err := ds.st.BeginTx(false)
	if err != nil {
		return newErrf(StoreOpen, "read", "", err)
	}
	defer tx.Rollback()
	return f(facade{tx: tx})
}

// write runs f in a writable transaction, committing on success and rolling
// back on error. Mutation operations validate all their preconditions
// before performing any write (spec.md §7), so a mid-function error should
// be rare, but write still rolls back cleanly if one occurs.
func (ds *DataSpace) write(f func(f facade) error) error {
	ds.WriteCount.Add(1)
	ds.WriterCount.Add(1)
	defer ds.WriterCount.Add(-1)

	tx, err := ds.st.BeginTx(true)
	if err != nil {
		return newErrf(StoreOpen, "write", "", err)
	}
	if err := f(facade{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return newErrf(StoreOpen, "write", "", err)
	}
	return nil
}

// SizeBytes returns the current backing store size in bytes, best effort.
func (ds *DataSpace) SizeBytes() int64 {
	tx, err := ds.st.BeginTx(false)
	if err != nil {
		return 0
	}
	defer tx.Rollback()
	return tx.Size()
}

// Stats summarizes table sizes, supplementing spec.md's design note that a
// robust implementation should expose enough to reason about index health.
type Stats struct {
	Entities   int
	Attributes int
	Mappings   int
	TableRows  map[string]int
}

// Stats reports per-table key counts.
func (ds *DataSpace) Stats() (Stats, error) {
	var s Stats
	s.TableRows = make(map[string]int)
	err := ds.read(func(f facade) error {
		for _, table := range tablesForProfile(ds.profile) {
			b := f.tx.Bucket(table)
			if b == nil {
				continue
			}
			s.TableRows[table] = b.KeyCount()
		}
		for _, row := range f.scan(tblStore) {
			if len(splitTokens(string(row.Key))) == 1 {
				s.Entities++
			} else {
				s.Attributes++
			}
		}
		s.Mappings = len(f.scan(tblMaps))
		return nil
	})
	return s, err
}
