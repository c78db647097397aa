// Package storage provides durable blob storage for generated artifacts,
// such as sandbox-produced files and narration audio segments.
package storage

import "context"

// FileStore persists a named blob and returns a URL from which clients can
// later fetch it. Names are caller-chosen and should already be unique;
// writing the same name twice overwrites the previous blob.
type FileStore interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}
