package events

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"stakeledger/core/types"
)

var bucketEvents = []byte("events")

// Journal is an append-only, BoltDB-backed event log. It implements Emitter so
// it can be attached directly to the state processor.
type Journal struct {
	db *bolt.DB

	mu      sync.Mutex
	lastErr error
}

// OpenJournal opens (or creates) the journal file at path.
func OpenJournal(path string, options *bolt.Options) (*Journal, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying Bolt database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Emit appends the event. Write failures are retained and reported by Err.
func (j *Journal) Emit(evt Event) {
	payload := ToTypes(evt)
	if payload == nil {
		return
	}
	if _, err := j.Append(*payload); err != nil {
		j.mu.Lock()
		j.lastErr = err
		j.mu.Unlock()
	}
}

// Err returns the most recent append failure observed by Emit.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Append stores the event and returns its sequence number (starting at 1).
func (j *Journal) Append(evt types.Event) (uint64, error) {
	var seq uint64
	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEvents)
		next, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], next)
		if err := bucket.Put(key[:], encoded); err != nil {
			return err
		}
		seq = next
		return nil
	})
	return seq, err
}

// Since returns every event with a sequence number greater than after, in
// append order.
func (j *Journal) Since(after uint64) ([]types.Event, error) {
	out := make([]types.Event, 0)
	err := j.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketEvents).Cursor()
		var start [8]byte
		binary.BigEndian.PutUint64(start[:], after+1)
		for k, v := cursor.Seek(start[:]); k != nil; k, v = cursor.Next() {
			var evt types.Event
			if err := json.Unmarshal(v, &evt); err != nil {
				return err
			}
			out = append(out, evt)
		}
		return nil
	})
	return out, err
}
