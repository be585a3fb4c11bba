package ledger

import (
	"context"
	"encoding/json"

	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
)

var (
	ErrQueryFailed  = errors.New("ledger event query failed")
	ErrDryRunFailed = errors.New("ledger dry run request failed")
)

// Client is the external ledger collaborator: paginated event queries plus
// non-committing and committing transaction execution.
type Client interface {
	QueryEvents(ctx context.Context, query EventQuery, cursor *types.EventCursor, limit int) (EventPage, error)
	DryRunTransaction(ctx context.Context, txBytes string) (types.DryRunResult, error)
	ExecuteTransaction(ctx context.Context, txBytes, signature string) (json.RawMessage, error)
}

// EventQuery filters events either by a fully-qualified move event type or by
// an emitting module. Exactly one filter should be set.
type EventQuery struct {
	MoveEventType string      `json:"MoveEventType,omitempty"`
	MoveModule    *MoveModule `json:"MoveModule,omitempty"`
}

type MoveModule struct {
	Package string `json:"package"`
	Module  string `json:"module"`
}

// ByEventType matches one fully-qualified move event type, for example
// "0xabc::intents::IntentSubmitted". Intent and solution events are emitted by
// different modules, so each event type needs its own query.
func ByEventType(eventType string) EventQuery {
	return EventQuery{MoveEventType: eventType}
}

// ByModule matches every event emitted by one module.
func ByModule(packageId, module string) EventQuery {
	return EventQuery{MoveModule: &MoveModule{Package: packageId, Module: module}}
}

// RawEvent is the ledger's event envelope. ParsedJSON carries the
// chain-emitted payload with snake_case, string-numeric fields.
type RawEvent struct {
	ID          types.EventCursor `json:"id"`
	PackageID   string            `json:"packageId"`
	Type        string            `json:"type"`
	Sender      string            `json:"sender"`
	ParsedJSON  json.RawMessage   `json:"parsedJson"`
	TimestampMs string            `json:"timestampMs"`
}

// Cursor returns the event's position, used as the exclusive lower bound for
// the next page query.
func (e RawEvent) Cursor() types.EventCursor {
	return e.ID
}

type EventPage struct {
	Data        []RawEvent         `json:"data"`
	NextCursor  *types.EventCursor `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}
