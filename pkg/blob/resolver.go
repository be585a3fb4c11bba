package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DecodeError indicates the blob's bytes were not valid UTF-8 JSON for the
// expected payload kind.
type DecodeError struct {
	BlobID string
	Kind   string
	cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode blob %s as %s: %s", e.BlobID, e.Kind, e.cause)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// Resolver turns blob references from domain events into typed payloads.
// It does not retry: the caller decides whether to re-attempt on a later poll.
type Resolver struct {
	logger *zap.Logger
	store  Store
}

func NewResolver(logger *zap.Logger, store Store) *Resolver {
	return &Resolver{
		logger: logger,
		store:  store,
	}
}

func (r *Resolver) ResolveIntent(ctx context.Context, blobID string) (types.Intent, error) {
	var intent types.Intent
	if err := r.resolve(ctx, blobID, "intent", &intent); err != nil {
		return types.Intent{}, err
	}

	r.logger.Debug(
		"Resolved intent payload",
		zap.String("blob_id", blobID),
		zap.String("user_address", intent.Object.UserAddress),
	)
	return intent, nil
}

func (r *Resolver) ResolveSolution(ctx context.Context, blobID string) (types.Solution, error) {
	var solution types.Solution
	if err := r.resolve(ctx, blobID, "solution", &solution); err != nil {
		return types.Solution{}, err
	}

	r.logger.Debug(
		"Resolved solution payload",
		zap.String("blob_id", blobID),
		zap.String("solver_address", solution.SolverAddress),
	)
	return solution, nil
}

func (r *Resolver) resolve(ctx context.Context, blobID, kind string, target any) error {
	raw, err := r.store.Fetch(ctx, blobID)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s blob", kind)
	}

	if !utf8.Valid(raw) {
		return &DecodeError{BlobID: blobID, Kind: kind, cause: errors.New("payload is not valid UTF-8")}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &DecodeError{BlobID: blobID, Kind: kind, cause: err}
	}

	return nil
}
