// Package local implements service.Service on a bbolt file, for use
// without a remote server.
package local

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"tasksync/internal/service"
)

const bucketName = "tasks"

// record is the stored form of a task.
type record struct {
	ID        string         `json:"id"`
	Body      string         `json:"body"`
	Status    service.Status `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store is a bbolt-backed task store.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open creates or opens the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, bucket: []byte(bucketName)}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// QueryAll implements service.Service. Tasks come back in creation order.
func (s *Store) QueryAll(ctx context.Context, statuses []service.Status) ([]service.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[service.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var result []service.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode task %x: %w", k, err)
			}
			if want[rec.Status] {
				result = append(result, service.Task{ID: rec.ID, Body: rec.Body, Status: rec.Status})
			}
			return nil
		})
	})
	if err != nil {
		return nil, service.NewRemoteError("query", "", err)
	}
	return result, nil
}

// UpdateStatus implements service.Service.
func (s *Store) UpdateStatus(ctx context.Context, taskID string, status service.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := keyFor(taskID)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v := b.Get(key)
		if v == nil {
			return service.ErrNotFound
		}
		var rec record
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		rec.Status = status
		rec.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(key, payload)
	})
	return service.NewRemoteError("update", taskID, err)
}

// Delete implements service.Service.
func (s *Store) Delete(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := keyFor(taskID)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get(key) == nil {
			return service.ErrNotFound
		}
		return b.Delete(key)
	})
	return service.NewRemoteError("delete", taskID, err)
}

// Create implements service.Service. Ids come from the bucket sequence and
// are never reused.
func (s *Store) Create(ctx context.Context, body string) (service.Task, error) {
	if err := ctx.Err(); err != nil {
		return service.Task{}, err
	}
	if err := service.ValidateBody(body); err != nil {
		return service.Task{}, err
	}

	var rec record
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		rec = record{
			ID:        strconv.FormatUint(seq, 10),
			Body:      body,
			Status:    service.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), payload)
	})
	if err != nil {
		return service.Task{}, service.NewRemoteError("create", "", err)
	}
	return service.Task{ID: rec.ID, Body: rec.Body, Status: rec.Status}, nil
}

// keyFor maps a task id to its big-endian key so cursor order is creation order.
func keyFor(taskID string) ([]byte, error) {
	n, err := strconv.ParseUint(taskID, 10, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: "task id", Value: taskID, Reason: "not a local task id"}
	}
	return itob(n), nil
}

func itob(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
