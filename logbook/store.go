package logbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no record exists for a requested date.
var ErrNotFound = errors.New("logbook: record not found")

// dated is satisfied by every record kind stored in week buckets. Date is
// unique within a bucket by construction: records are read-modify-written as
// whole buckets and appended per day.
type dated interface {
	RecordDate() string
}

// store persists one record kind as one JSON file per week bucket under a
// single directory. Files are named YYYY-MM-w{n}.json.
type store[T dated] struct {
	dir string
}

func newStore[T dated](dir string) (store[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store[T]{}, fmt.Errorf("create logbook dir: %w", err)
	}
	return store[T]{dir: dir}, nil
}

func (s store[T]) path(bucket string) string {
	return filepath.Join(s.dir, bucket+".json")
}

// Read returns the records of one bucket in insertion order, or an empty
// slice when the bucket has never been written.
func (s store[T]) Read(bucket string) ([]T, error) {
	data, err := os.ReadFile(s.path(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bucket %s: %w", bucket, err)
	}

	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode bucket %s: %w", bucket, err)
	}
	return recs, nil
}

// ReadAll concatenates every persisted bucket. Buckets are visited in
// lexical filename order; insertion order within a bucket is preserved.
func (s store[T]) ReadAll() ([]T, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var all []T
	for _, name := range names {
		recs, err := s.Read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// Write replaces the bucket's content atomically: the payload goes to a temp
// file in the same directory which is then renamed over the target, so a
// reader never observes a partially written bucket.
func (s store[T]) Write(bucket string, recs []T) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode bucket %s: %w", bucket, err)
	}

	tmp, err := os.CreateTemp(s.dir, bucket+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for bucket %s: %w", bucket, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write bucket %s: %w", bucket, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close bucket %s: %w", bucket, err)
	}
	if err := os.Rename(tmpName, s.path(bucket)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace bucket %s: %w", bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// findByDate returns the single record for date, or ErrNotFound.
func findByDate[T dated](recs []T, date string) (T, error) {
	for _, r := range recs {
		if r.RecordDate() == date {
			return r, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s", ErrNotFound, date)
}
