package cart

import (
	"context"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var cartBucket = []byte("carts")

// boltRecord wraps a snapshot with its save time so the expiry sweep can drop
// stale guest carts; bolt has no native TTL.
type boltRecord struct {
	Cart    Cart  `json:"cart"`
	SavedAt int64 `json:"saved_at"`
}

// BoltStore is the file backed cart store used when redis is not configured.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the cart database file.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cartBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(ctx context.Context, id string) (*Cart, error) {
	var rec boltRecord
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(cartBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			zap.L().Warn("discarding corrupt cart snapshot", zap.String("cart_id", id), zap.Error(err))
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return New(id), nil
	}
	c := rec.Cart
	c.ID = id
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (s *BoltStore) Save(ctx context.Context, c *Cart) error {
	data, err := json.Marshal(boltRecord{Cart: *c, SavedAt: time.Now().Unix()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cartBucket).Put([]byte(c.ID), data)
	})
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cartBucket).Delete([]byte(id))
	})
}

// ExpireBefore removes snapshots last saved before cutoff and returns how
// many were dropped. Runs from the cart_expiry scheduler task.
func (s *BoltStore) ExpireBefore(cutoff time.Time) (int, error) {
	var removed int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(cartBucket)
		cur := b.Cursor()
		var stale [][]byte
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				continue
			}
			if rec.SavedAt < cutoff.Unix() {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
