package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HTTPStore fetches blobs from an aggregator endpoint by content id.
type HTTPStore struct {
	logger   *zap.Logger
	endpoint string
	client   *http.Client
}

var _ Store = (*HTTPStore)(nil)

func NewHTTPStore(logger *zap.Logger, endpoint string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		logger:   logger,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HTTPStore) Fetch(ctx context.Context, blobID string) ([]byte, error) {
	res, err := s.do(ctx, http.MethodGet, blobID)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return io.ReadAll(res.Body)
	case http.StatusNotFound:
		return nil, errors.Wrap(ErrBlobNotFound, blobID)
	default:
		return nil, errors.Errorf("blob fetch failed with status %d for %s", res.StatusCode, blobID)
	}
}

func (s *HTTPStore) Exists(ctx context.Context, blobID string) (bool, error) {
	res, err := s.do(ctx, http.MethodHead, blobID)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Errorf("blob existence check failed with status %d for %s", res.StatusCode, blobID)
	}
}

func (s *HTTPStore) do(ctx context.Context, method, blobID string) (*http.Response, error) {
	url := fmt.Sprintf("%s/v1/blobs/%s", s.endpoint, blobID)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	return s.client.Do(req)
}
