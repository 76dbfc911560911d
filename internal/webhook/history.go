package webhook

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// maxHistoryEntries bounds the delivery log; oldest entries are
	// evicted first.
	maxHistoryEntries = 100

	historyDirPerm  = fs.FileMode(0o700)
	historyFilePerm = fs.FileMode(0o600)

	// historyOpenTimeout is the maximum time to wait for the bolt
	// database lock.
	historyOpenTimeout = 5 * time.Second
)

var deliveriesBucket = []byte("deliveries")

// Delivery is one recorded webhook delivery attempt.
type Delivery struct {
	ID         string  `json:"id"`
	Endpoint   string  `json:"endpoint"`
	Event      string  `json:"event"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Timestamp  string  `json:"timestamp"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	Payload    Payload `json:"payload"`
}

// History is a bounded, newest-first log of webhook deliveries backed
// by a bbolt database.
type History struct {
	db *bolt.DB
}

// OpenHistory opens the delivery log at ~/.granola-sync/webhooks.db,
// creating it if needed.
func OpenHistory() (*History, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}

	return OpenHistoryAt(filepath.Join(dir, ".granola-sync", "webhooks.db"))
}

// OpenHistoryAt opens a delivery log at the given path, creating it if
// needed. Useful for tests that need an isolated database.
func OpenHistoryAt(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), historyDirPerm); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := bolt.Open(path, historyFilePerm, &bolt.Options{Timeout: historyOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(deliveriesBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history db: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// newDeliveryID builds a key that sorts newest-first under bbolt's
// lexicographic ordering: inverted nanosecond timestamp plus random
// suffix to break ties.
func newDeliveryID(now time.Time) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)

	return fmt.Sprintf("%020d-%s", math.MaxInt64-now.UnixNano(), hex.EncodeToString(suffix))
}

// Add records a delivery and evicts the oldest entries beyond the
// retention limit.
func (h *History) Add(d Delivery) (string, error) {
	if d.ID == "" {
		d.ID = newDeliveryID(time.Now())
	}

	if d.Timestamp == "" {
		d.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	err := h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(deliveriesBucket)

		data, err := json.Marshal(d)
		if err != nil {
			return err
		}

		if err := b.Put([]byte(d.ID), data); err != nil {
			return err
		}

		// Keys sort newest-first, so everything past the retention
		// limit is oldest and gets evicted.
		count := 0

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			count++
			if count > maxHistoryEntries {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("recording delivery: %w", err)
	}

	return d.ID, nil
}

// List returns deliveries newest-first, up to limit. A non-positive
// limit returns everything retained.
func (h *History) List(limit int) ([]Delivery, error) {
	var out []Delivery

	err := h.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(deliveriesBucket).Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}

			var d Delivery
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}

			out = append(out, d)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}

	return out, nil
}

// Get returns a delivery by ID, or nil if not found.
func (h *History) Get(id string) (*Delivery, error) {
	var d *Delivery

	err := h.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(deliveriesBucket).Get([]byte(id))
		if v == nil {
			return nil
		}

		d = &Delivery{}

		return json.Unmarshal(v, d)
	})
	if err != nil {
		return nil, fmt.Errorf("loading delivery %s: %w", id, err)
	}

	return d, nil
}

// Delete removes a delivery by ID.
func (h *History) Delete(id string) error {
	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(deliveriesBucket).Delete([]byte(id))
	})
}

// Clear removes all retained deliveries.
func (h *History) Clear() error {
	return h.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(deliveriesBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucket(deliveriesBucket)

		return err
	})
}
