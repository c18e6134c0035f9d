// Package boltdb stores the outcome history in a bbolt database file.
package boltdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alanbriolat/video-fetcher/internal/session"
)

var Buckets = struct {
	Metadata []byte
	Outcomes []byte
}{
	Metadata: []byte("__metadata__"),
	Outcomes: []byte("outcomes"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type Database interface {
	Close() error

	session.History
}

type database struct {
	*bbolt.DB
}

func New(path string) (_ Database, err error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Outcomes); err != nil {
			return err
		}

		// Get the current version of the database
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version > currentVersion {
			return fmt.Errorf("history version %d is newer than supported version %d", version, currentVersion)
		}

		// Set the current version of the database
		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &database{db}, nil
}

// List returns every record, oldest submission first.
func (d database) List() (records []session.Record, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Outcomes)
		return bucket.ForEach(func(k, v []byte) error {
			var record session.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("corrupt record %s: %w", k, err)
			} else {
				records = append(records, record)
				return nil
			}
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SubmittedAt.Before(records[j].SubmittedAt)
	})
	return records, nil
}

func (d database) Write(record *session.Record) error {
	if data, err := json.Marshal(record); err != nil {
		return err
	} else {
		err := d.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(Buckets.Outcomes)
			if err := bucket.Put([]byte(record.ID), data); err != nil {
				return err
			}
			return nil
		})
		return err
	}
}

func (d database) Delete(record *session.Record) error {
	return d.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Outcomes)
		return bucket.Delete([]byte(record.ID))
	})
}
