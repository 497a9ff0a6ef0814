package port

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Size        int64
	ContentType string
	ModifiedAt  time.Time
}

// ObjectStore persists uploaded video files. Resolve returns an absolute
// local filesystem path for the object so the ffmpeg pipeline and range
// streaming can read it directly; remote-backed stores materialize the
// object into a local cache first.
type ObjectStore interface {
	Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Resolve(ctx context.Context, key string) (string, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Remove(ctx context.Context, key string) error
}
