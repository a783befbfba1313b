// Package assetstore defines the key-value collaborator the pipeline uses
// for reusable overlay assets (stored signatures, stamp images). The store
// is injected; the pipeline itself keeps no global asset state.
package assetstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored asset.
var ErrNotFound = errors.New("assetstore: asset not found")

// Store persists named binary assets.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
