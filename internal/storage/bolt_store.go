package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	eventBucket = "delivered_events"
	// Each value holds the first delivery time and the expiry, both unix seconds.
	entryBytes = 16
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	eventTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(eventBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		eventTTL:        opts.EventTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenEvent reports whether key was marked and has not expired. Expired
// entries are removed on read.
func (b *boltStore) SeenEvent(key string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var seen bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}

		k := []byte(key)
		e, ok := decodeEntry(bucket.Get(k))
		if !ok || !e.expiresAt.After(now) {
			if ok {
				return bucket.Delete(k)
			}
			return nil
		}
		seen = true
		return nil
	})
	return seen, err
}

// MarkEvent records key as delivered. Marking again extends the expiry but
// keeps the first delivery time.
func (b *boltStore) MarkEvent(key string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}
		k := []byte(key)
		first := now
		if prev, ok := decodeEntry(bucket.Get(k)); ok {
			first = prev.firstSeen
		}
		return bucket.Put(k, encodeEntry(entry{firstSeen: first, expiresAt: now.Add(b.eventTTL)}))
	})
}

// maybeCleanupExpired removes expired entries at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}

		// Deleting through the cursor while iterating skips the following key.
		var expired [][]byte
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			e, ok := decodeEntry(v)
			if !ok || !e.expiresAt.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

type entry struct {
	firstSeen time.Time
	expiresAt time.Time
}

func encodeEntry(e entry) []byte {
	buf := make([]byte, entryBytes)
	binary.BigEndian.PutUint64(buf[:8], uint64(e.firstSeen.Unix()))
	binary.BigEndian.PutUint64(buf[8:], uint64(e.expiresAt.Unix()))
	return buf
}

func decodeEntry(value []byte) (entry, bool) {
	if len(value) != entryBytes {
		return entry{}, false
	}
	first := int64(binary.BigEndian.Uint64(value[:8]))
	expiry := int64(binary.BigEndian.Uint64(value[8:]))
	if expiry <= 0 {
		return entry{}, false
	}
	return entry{firstSeen: time.Unix(first, 0), expiresAt: time.Unix(expiry, 0)}, true
}
