package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DirStore writes blobs into a local directory and maps them to URLs under a
// fixed base, e.g. base URL "http://localhost:8080/files" and name "a.mp3"
// yield "http://localhost:8080/files/a.mp3". The directory is expected to be
// served by the same process or a sibling static file server.
type DirStore struct {
	dir     string
	baseURL string
}

func NewDirStore(dir, baseURL string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	return &DirStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *DirStore) Write(ctx context.Context, name string, data []byte) (url string, err error) {
	ctx, span := tracer.Start(ctx, "Write file",
		trace.WithAttributes(
			attribute.String("file.name", name),
			attribute.Int("file.size", len(data)),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write file")
		}
	}()

	if s == nil {
		return "", fmt.Errorf("file store was not initialized")
	}

	// Names come from our own code, but path.Base keeps a malformed name
	// from escaping the storage directory.
	name = path.Base(name)
	if name == "." || name == "/" {
		return "", fmt.Errorf("invalid file name")
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + name, nil
}
