package mystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one JSON document per uid below <dir>/<kind>. It survives process
// restarts and is meant for a single writing process.
type FileStore[T any] struct {
	sync.Mutex
	dir string
}

func NewFileStore[T any](c context.Context, dataDir string) (*FileStore[T], func(), error) {
	dir := filepath.Join(dataDir, kindOf[T]())
	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating store directory %s: %w", dir, err)
	}

	return &FileStore[T]{
		dir: dir,
	}, func() {}, nil
}

func (s *FileStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	s.Lock()
	defer s.Unlock()

	return f(context.WithValue(c, ctxTransactionKey{}, s))
}

func (s *FileStore[T]) Put(c context.Context, uid string, value T) error {
	if c.Value(ctxTransactionKey{}) != s {
		s.Lock()
		defer s.Unlock()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling %s: %w", uid, err)
	}

	// write-then-rename so a crash never leaves a half written document
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %w", uid, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("error writing %s: %w", uid, err)
	}
	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("error closing %s: %w", uid, err)
	}

	err = os.Rename(tmp.Name(), s.filename(uid))
	if err != nil {
		return fmt.Errorf("error storing %s: %w", uid, err)
	}

	return nil
}

func (s *FileStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	if c.Value(ctxTransactionKey{}) != s {
		s.Lock()
		defer s.Unlock()
	}

	return s.read(s.filename(uid))
}

func (s *FileStore[T]) Delete(c context.Context, uid string) error {
	if c.Value(ctxTransactionKey{}) != s {
		s.Lock()
		defer s.Unlock()
	}

	err := os.Remove(s.filename(uid))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error deleting %s: %w", uid, err)
	}

	return nil
}

func (s *FileStore[T]) List(c context.Context) ([]T, error) {
	if c.Value(ctxTransactionKey{}) != s {
		s.Lock()
		defer s.Unlock()
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", s.dir, err)
	}

	result := []T{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		value, found, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if found {
			result = append(result, value)
		}
	}

	return result, nil
}

func (s *FileStore[T]) read(filename string) (T, bool, error) {
	var value T

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error reading %s: %w", filename, err)
	}

	err = json.Unmarshal(data, &value)
	if err != nil {
		return value, false, fmt.Errorf("error parsing %s: %w", filename, err)
	}

	return value, true, nil
}

func (s *FileStore[T]) filename(uid string) string {
	return filepath.Join(s.dir, url.PathEscape(uid)+".json")
}

func kindOf[T any]() string {
	val := new(T)
	kind := fmt.Sprintf("%T", *val)
	if strings.Contains(kind, ".") {
		kind = kind[strings.LastIndex(kind, ".")+1:]
	}
	return kind
}
