// Package badger implements a share.Store backed by BadgerDB.
//
// This implementation provides a persistent share store suitable for
// production deployments where shares must survive server restarts. BadgerDB
// gives us atomic single-key transactions, which is exactly the durability
// contract the share collection requires: RetrieveAll never observes a
// partially written document.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittoshare/pkg/share"
)

// Key Schema
// ==========
//
//	share:doc:<uuid>     -> canonical JSON of the live document
//	share:archive:<uuid> -> canonical JSON of an archived document
//
// Archiving moves the value between the two namespaces in one transaction,
// so a document is always either live or archived, never both and never
// half-moved. Archived values are retained for manual recovery; they are
// invisible to RetrieveAll.

var docPrefix = []byte("share:doc:")

func keyDoc(id string) []byte {
	return append(append([]byte{}, docPrefix...), id...)
}

func keyArchive(id string) []byte {
	return []byte("share:archive:" + id)
}

// BadgerShareStore implements share.Store using BadgerDB for persistence.
type BadgerShareStore struct {
	db *badger.DB
}

// BadgerShareStoreConfig contains configuration for creating a BadgerDB
// share store.
type BadgerShareStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files
	DBPath string `mapstructure:"db_path"`

	// BadgerOptions allows customization of BadgerDB behavior.
	// If nil, sensible defaults are used.
	BadgerOptions *badger.Options
}

// NewBadgerShareStore opens (or creates) a BadgerDB share store at the
// configured path. The returned store is immediately ready for use and safe
// for concurrent access.
func NewBadgerShareStore(ctx context.Context, config BadgerShareStoreConfig) (*BadgerShareStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		// Share documents are small JSON values; compression overhead is
		// not worth it and the default cache sizes are far more than needed.
		opts = badger.DefaultOptions(config.DBPath)
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerShareStore{db: db}, nil
}

// Close closes the BadgerDB database and releases all resources. After
// calling Close, the store must not be used.
func (s *BadgerShareStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// Store implements share.Store. The write happens in a single Badger
// transaction, which commits atomically.
func (s *BadgerShareStore) Store(ctx context.Context, doc *share.Doc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", share.StoreFailure("store", err)
	}

	data, digest, err := share.EncodeDoc(doc)
	if err != nil {
		return "", share.StoreFailure("store", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyDoc(doc.ID), data)
	})
	if err != nil {
		return "", share.StoreFailure("store", err)
	}
	return digest, nil
}

// RetrieveAll implements share.Store. Scans the live document prefix;
// archived documents are excluded by construction.
func (s *BadgerShareStore) RetrieveAll(ctx context.Context) ([]share.Record, error) {
	var recs []share.Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				doc, err := share.DecodeDoc(val)
				if err != nil {
					return err
				}
				recs = append(recs, share.Record{
					Digest: share.DigestBytes(val),
					Doc:    doc,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, share.StoreFailure("retrieve", err)
	}
	return recs, nil
}

// Archive implements share.Store. Moves the document from the live to the
// archive namespace in one transaction.
func (s *BadgerShareStore) Archive(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return share.StoreFailure("archive", err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyDoc(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data := append([]byte{}, val...)
			if err := txn.Set(keyArchive(id), data); err != nil {
				return err
			}
			return txn.Delete(keyDoc(id))
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &share.Error{Code: share.ErrNotFound, Message: "share " + id + " is not stored"}
	}
	if err != nil {
		return share.StoreFailure("archive", err)
	}
	return nil
}
