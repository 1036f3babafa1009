// Package statecache persists the small run-state caches each service
// keeps between restarts: last_pull_info, config_update_data,
// local_model_remove_data, and the coordinator's registered-node caches.
// The Python original kept each of these as a standalone JSON file
// (FileCache); here they share one embedded bbolt database, one bucket per
// named cache, since bbolt is a real dependency already present in the
// retrieved pack.
package statecache

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// Cache wraps a single bbolt file holding one bucket per named cache.
type Cache struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the bbolt file at path.
func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("statecache: opening %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying bbolt file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put JSON-encodes value and stores it under key within bucket, creating
// the bucket if it does not yet exist.
func (c *Cache) Put(bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("statecache: marshaling %s/%s: %w", bucket, key, err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("statecache: creating bucket %s: %w", bucket, err)
		}
		return b.Put([]byte(key), data)
	})
}

// Get decodes the value stored under key within bucket into out. It
// reports ok=false, no error, if the bucket or key does not exist.
func (c *Cache) Get(bucket, key string, out any) (ok bool, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		if unmarshalErr := json.Unmarshal(data, out); unmarshalErr != nil {
			return fmt.Errorf("statecache: unmarshaling %s/%s: %w", bucket, key, unmarshalErr)
		}
		ok = true
		return nil
	})
	return ok, err
}

// Delete removes key from bucket. Missing is not an error.
func (c *Cache) Delete(bucket, key string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Keys lists every key currently stored in bucket.
func (c *Cache) Keys(bucket string) ([]string, error) {
	var keys []string
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Named cache/bucket identifiers matching the Python original's per-service
// FileCache files.
const (
	BucketLastPullInfo          = "last_pull_info"
	BucketConfigUpdateData      = "config_update_data"
	BucketLocalModelRemoveData  = "local_model_remove_data"
	BucketRegisteredConfigMgr   = "registered_config_manager_cache"
	BucketRegisteredModelPuller = "registered_remote_model_puller_cache"
)
