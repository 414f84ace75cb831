package extract

import (
	"context"
	"os"
)

// ByteSource supplies raw image bytes for an identifier. Acquisition is
// the caller's concern; the pipeline itself never performs I/O.
type ByteSource interface {
	Fetch(ctx context.Context, identifier string) ([]byte, error)
}

// FileSource reads identifiers as filesystem paths.
type FileSource struct{}

func (FileSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
