package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxfeed/oracle/record"
)

// FileStore persists the record as a local JSON file. Saves go through a
// temp file in the same directory followed by a rename, so a crashed save
// never leaves a truncated record behind.
type FileStore struct {
	path              string
	referenceCurrency string
	targetCurrency    string
}

// NewFile creates a file store at path with the given entry currency labels.
func NewFile(path, referenceCurrency, targetCurrency string) *FileStore {
	return &FileStore{
		path:              path,
		referenceCurrency: referenceCurrency,
		targetCurrency:    targetCurrency,
	}
}

func (s *FileStore) Load(ctx context.Context) (*record.Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return record.New(s.referenceCurrency, s.targetCurrency), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}

	rec, err := record.Decode(data, s.referenceCurrency, s.targetCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (s *FileStore) Save(ctx context.Context, rec *record.Record) error {
	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".oracle-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrUnavailable, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename to %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}
