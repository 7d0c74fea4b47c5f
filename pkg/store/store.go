package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"

	"github.com/nektos/stackscope/pkg/common"
	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/runtime"
)

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("run not found")

// Codec names a record encoding
type Codec string

const (
	CodecJSON Codec = "json"
	CodecCBOR Codec = "cbor"
)

// Options configure a Store
type Options struct {
	Codec   Codec
	Timeout time.Duration // wait for the file lock, 5s by default
}

// Store keeps run history in a bolt database. The database is opened per
// operation so several processes can share the file.
type Store struct {
	path    string
	options *bolthold.Options
	mu      sync.Mutex
}

// Open prepares a store at path, creating its directory
func Open(path string, opts Options) (*Store, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	options := &bolthold.Options{
		Options: &bbolt.Options{
			Timeout:      opts.Timeout,
			NoGrowSync:   bbolt.DefaultOptions.NoGrowSync,
			FreelistType: bbolt.DefaultOptions.FreelistType,
		},
	}
	switch opts.Codec {
	case "", CodecJSON:
		options.Encoder = json.Marshal
		options.Decoder = json.Unmarshal
	case CodecCBOR:
		options.Encoder = cbor.Marshal
		options.Decoder = cbor.Unmarshal
	default:
		return nil, errors.Errorf("unknown store codec %q", opts.Codec)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create store directory for %s", path)
	}
	s := &Store{path: path, options: options}

	db, err := s.openDB()
	if err != nil {
		return nil, err
	}
	return s, db.Close()
}

// Path of the database file
func (s *Store) Path() string {
	return s.path
}

func (s *Store) openDB() (*bolthold.Store, error) {
	db, err := bolthold.Open(s.path, 0o644, s.options)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open store %s", s.path)
	}
	return db, nil
}

func (s *Store) with(fn func(db *bolthold.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// Save inserts rec and assigns its ID and creation time
func (s *Store) Save(rec *Record) error {
	return s.with(func(db *bolthold.Store) error {
		if rec.CreatedAt == 0 {
			rec.CreatedAt = time.Now().UnixNano()
		}
		if err := db.Insert(bolthold.NextSequence(), rec); err != nil {
			return errors.Wrap(err, "unable to insert run")
		}
		// write back id to db
		return errors.Wrap(db.Update(rec.ID, rec), "unable to update run")
	})
}

// Record saves a finished run
func (s *Store) Record(ctx context.Context, program *model.Program, result *runtime.Result) error {
	rec := NewRecord(program, result)
	if err := s.Save(rec); err != nil {
		return err
	}
	common.Logger(ctx).Debugf("stored run %d (%s)", rec.ID, rec.RunID)
	return nil
}

// Get returns the record with the given ID
func (s *Store) Get(id uint64) (*Record, error) {
	rec := &Record{}
	err := s.with(func(db *bolthold.Store) error {
		return db.Get(id, rec)
	})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Lookup finds a record by numeric ID or run UUID
func (s *Store) Lookup(ref string) (*Record, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return s.Get(id)
	}
	rec := &Record{}
	err := s.with(func(db *bolthold.Store) error {
		return db.FindOne(rec, bolthold.Where("RunID").Eq(ref).Index("RunID"))
	})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns records newest first, only those of program when it is set.
// A positive limit caps the number of records.
func (s *Store) List(program string, limit int) ([]*Record, error) {
	var query *bolthold.Query
	if program != "" {
		query = bolthold.Where("Program").Eq(program).Index("Program")
	} else {
		query = &bolthold.Query{}
	}
	query = query.SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []*Record
	err := s.with(func(db *bolthold.Store) error {
		return db.Find(&records, query)
	})
	return records, errors.Wrap(err, "unable to list runs")
}

// Delete removes the record with the given ID
func (s *Store) Delete(id uint64) error {
	err := s.with(func(db *bolthold.Store) error {
		return db.Delete(id, &Record{})
	})
	if errors.Is(err, bolthold.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// GC deletes records created more than olderThan ago and returns how many
// were removed
func (s *Store) GC(ctx context.Context, olderThan time.Duration) (int, error) {
	logger := common.Logger(ctx)
	cutoff := time.Now().Add(-olderThan).UnixNano()
	deleted := 0
	err := s.with(func(db *bolthold.Store) error {
		var records []*Record
		if err := db.Find(&records, bolthold.Where("CreatedAt").Lt(cutoff)); err != nil {
			return errors.Wrap(err, "find runs")
		}
		for _, rec := range records {
			if err := db.Delete(rec.ID, rec); err != nil {
				logger.Warnf("delete run %d: %v", rec.ID, err)
				continue
			}
			deleted++
			logger.Debugf("deleted run %d of %s", rec.ID, rec.Program)
		}
		return nil
	})
	return deleted, err
}
