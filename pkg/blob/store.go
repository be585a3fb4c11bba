package blob

import (
	"context"

	"github.com/pkg/errors"
)

var ErrBlobNotFound = errors.New("blob not found")

// Store is the external content-addressed blob collaborator.
type Store interface {
	Fetch(ctx context.Context, blobID string) ([]byte, error)
	Exists(ctx context.Context, blobID string) (bool, error)
}
