package mystore

import (
	"context"
	"os"
)

type ctxTransactionKey struct{}

type Store[T any] interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Put(c context.Context, uid string, value T) error
	Get(c context.Context, uid string) (T, bool, error)
	Delete(c context.Context, uid string) error
	List(c context.Context) ([]T, error)
}

// New picks the backing store: Cloud Datastore when running in a google cloud project,
// JSON files below dataDir when a data directory is configured, memory otherwise.
func New[T any](c context.Context, dataDir string) (Store[T], func(), error) {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return newGcloudStore[T](c)
	}

	if dataDir != "" {
		return NewFileStore[T](c, dataDir)
	}

	return NewInMemoryStore[T](c)
}
