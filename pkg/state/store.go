package state

import (
	"context"

	"github.com/intenus/preranker/pkg/types"
)

// Store persists the poller's progress through the ledger event streams. Each
// stream keeps an independent cursor keyed by name, since intent and solution
// events come from separate queries. A cursor is written only after its page
// has been fully processed, and never deleted.
type Store interface {
	Close(ctx context.Context) error
	Cursor(ctx context.Context, stream string) (*types.EventCursor, error)
	SetCursor(ctx context.Context, stream string, cursor types.EventCursor) error
	Cursors(ctx context.Context) (map[string]types.EventCursor, error)
}
