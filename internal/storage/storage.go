// Package storage is the persistence port of the profile state engine:
// a get/set store of opaque blobs under a handful of fixed keys.
package storage

import (
	"context"
)

const (
	ProfileKey  = "profile"
	SessionsKey = "sessions"
)

type KV interface {
	// Get returns found=false, and no error, when the key was never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

type Entry struct {
	Key   string
	Value []byte
}

// BatchWriter is implemented by backends that can write several keys atomically:
// after SetMany either every entry is stored or none is.
type BatchWriter interface {
	SetMany(ctx context.Context, entries []Entry) error
}
