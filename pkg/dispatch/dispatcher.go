package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/intenus/preranker/pkg/ledger"
	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	suffixIntentSubmitted   = "::IntentSubmitted"
	suffixSolutionSubmitted = "::SolutionSubmitted"
)

var ErrUnknownEventType = errors.New("unknown event type")

// MalformedEventError indicates a ledger event whose payload is missing
// required fields or has the wrong shape. Malformed events are reported and
// skipped, never fatal to a poll cycle.
type MalformedEventError struct {
	EventType string
	cause     error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event %s: %s", e.EventType, e.cause)
}

func (e *MalformedEventError) Unwrap() error {
	return e.cause
}

type (
	IntentHandler   func(ctx context.Context, event types.IntentSubmitted) error
	SolutionHandler func(ctx context.Context, event types.SolutionSubmitted) error
)

// Dispatcher maps raw ledger events onto the two domain event variants and
// invokes the registered handlers synchronously, so the poller observes
// handler completion before moving to the next event in a page.
type Dispatcher struct {
	logger           *zap.Logger
	intentHandlers   []IntentHandler
	solutionHandlers []SolutionHandler
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
	}
}

func (d *Dispatcher) OnIntentSubmitted(handler IntentHandler) {
	d.intentHandlers = append(d.intentHandlers, handler)
}

func (d *Dispatcher) OnSolutionSubmitted(handler SolutionHandler) {
	d.solutionHandlers = append(d.solutionHandlers, handler)
}

func (d *Dispatcher) Dispatch(ctx context.Context, raw ledger.RawEvent) error {
	switch {
	case strings.HasSuffix(raw.Type, suffixIntentSubmitted):
		event, err := parseIntentSubmitted(raw)
		if err != nil {
			return err
		}

		for _, handler := range d.intentHandlers {
			if err := handler(ctx, event); err != nil {
				return err
			}
		}

		return nil
	case strings.HasSuffix(raw.Type, suffixSolutionSubmitted):
		event, err := parseSolutionSubmitted(raw)
		if err != nil {
			return err
		}

		for _, handler := range d.solutionHandlers {
			if err := handler(ctx, event); err != nil {
				return err
			}
		}

		return nil
	default:
		return errors.Wrap(ErrUnknownEventType, raw.Type)
	}
}

// Chain payloads use snake_case field names and stringified integers.
type (
	rawIntentPayload struct {
		IntentId           string          `json:"intent_id"`
		UserAddress        string          `json:"user_address"`
		WalrusBlobId       string          `json:"walrus_blob_id"`
		CreatedTs          string          `json:"created_ts"`
		SolverAccessWindow rawAccessWindow `json:"solver_access_window"`
		AutoRevokeTime     string          `json:"auto_revoke_time"`
	}

	rawAccessWindow struct {
		StartMs string `json:"start_ms"`
		EndMs   string `json:"end_ms"`
	}

	rawSolutionPayload struct {
		SolutionId    string `json:"solution_id"`
		IntentId      string `json:"intent_id"`
		SolverAddress string `json:"solver_address"`
		WalrusBlobId  string `json:"walrus_blob_id"`
		SubmittedAt   string `json:"submitted_at"`
	}
)

func parseIntentSubmitted(raw ledger.RawEvent) (types.IntentSubmitted, error) {
	var payload rawIntentPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return types.IntentSubmitted{}, err
	}

	if payload.IntentId == "" || payload.UserAddress == "" || payload.WalrusBlobId == "" {
		return types.IntentSubmitted{}, &MalformedEventError{
			EventType: raw.Type,
			cause:     errors.New("missing intent_id, user_address or walrus_blob_id"),
		}
	}

	createdTs, err := parseChainInt(payload.CreatedTs)
	if err != nil {
		return types.IntentSubmitted{}, &MalformedEventError{EventType: raw.Type, cause: err}
	}

	startMs, err := parseChainInt(payload.SolverAccessWindow.StartMs)
	if err != nil {
		return types.IntentSubmitted{}, &MalformedEventError{EventType: raw.Type, cause: err}
	}

	endMs, err := parseChainInt(payload.SolverAccessWindow.EndMs)
	if err != nil {
		return types.IntentSubmitted{}, &MalformedEventError{EventType: raw.Type, cause: err}
	}

	autoRevokeTime, err := parseChainInt(payload.AutoRevokeTime)
	if err != nil {
		return types.IntentSubmitted{}, &MalformedEventError{EventType: raw.Type, cause: err}
	}

	return types.IntentSubmitted{
		IntentID:    payload.IntentId,
		UserAddress: payload.UserAddress,
		BlobID:      payload.WalrusBlobId,
		CreatedTs:   createdTs,
		SolverAccessWindow: types.SolverAccessWindow{
			StartMs: startMs,
			EndMs:   endMs,
		},
		AutoRevokeTime: autoRevokeTime,
	}, nil
}

func parseSolutionSubmitted(raw ledger.RawEvent) (types.SolutionSubmitted, error) {
	var payload rawSolutionPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return types.SolutionSubmitted{}, err
	}

	if payload.SolutionId == "" || payload.IntentId == "" || payload.WalrusBlobId == "" {
		return types.SolutionSubmitted{}, &MalformedEventError{
			EventType: raw.Type,
			cause:     errors.New("missing solution_id, intent_id or walrus_blob_id"),
		}
	}

	submittedAt, err := parseChainInt(payload.SubmittedAt)
	if err != nil {
		return types.SolutionSubmitted{}, &MalformedEventError{EventType: raw.Type, cause: err}
	}

	return types.SolutionSubmitted{
		SolutionID:    payload.SolutionId,
		IntentID:      payload.IntentId,
		SolverAddress: payload.SolverAddress,
		BlobID:        payload.WalrusBlobId,
		SubmittedAt:   submittedAt,
	}, nil
}

func unmarshalPayload(raw ledger.RawEvent, target any) error {
	if len(raw.ParsedJSON) == 0 || string(raw.ParsedJSON) == "null" {
		return &MalformedEventError{EventType: raw.Type, cause: errors.New("event has no parsed payload")}
	}

	if err := json.Unmarshal(raw.ParsedJSON, target); err != nil {
		return &MalformedEventError{EventType: raw.Type, cause: err}
	}

	return nil
}

func parseChainInt(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("missing numeric field")
	}

	return strconv.ParseInt(s, 10, 64)
}
