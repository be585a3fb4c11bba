package poller

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/intenus/preranker/pkg/dispatch"
	"github.com/intenus/preranker/pkg/ledger"
	"github.com/intenus/preranker/pkg/state"
	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EventDispatcher routes a raw ledger event to its registered handlers.
type EventDispatcher interface {
	Dispatch(ctx context.Context, raw ledger.RawEvent) error
}

const (
	cursorWriteMaxRetries = 5
	cycleTimeout          = time.Minute
)

// Stream is one polled event query. Intent and solution events are emitted by
// different move modules, so each gets its own query and its own persisted
// cursor keyed by Name.
type Stream struct {
	Name  string
	Query ledger.EventQuery
}

// Poller drives ingestion: on each tick it pages every stream through new
// ledger events from that stream's persisted cursor, dispatches them in order,
// and advances the cursor only after a page has been fully handled. Cycles
// never overlap; a tick that fires while the previous cycle is still running
// is simply the next iteration of the same serial loop.
type Poller struct {
	logger     *zap.Logger
	client     ledger.Client
	dispatcher EventDispatcher
	state      state.Store

	streams      []Stream
	pollInterval time.Duration
	pageLimit    int
	maxPages     int

	mu         sync.Mutex
	running    bool
	shutdownCh chan chan error
}

func NewPoller(
	logger *zap.Logger,
	client ledger.Client,
	dispatcher EventDispatcher,
	stateStore state.Store,
	streams []Stream,
	pollInterval time.Duration,
	pageLimit, maxPagesPerCycle int,
) *Poller {
	return &Poller{
		logger:       logger.With(zap.String("module", "poller")),
		client:       client,
		dispatcher:   dispatcher,
		state:        stateStore,
		streams:      streams,
		pollInterval: pollInterval,
		pageLimit:    pageLimit,
		maxPages:     maxPagesPerCycle,
		shutdownCh:   make(chan chan error),
	}
}

// Start launches the polling loop. Calling Start on a running poller is a
// no-op, so AutoStart plus an explicit API trigger cannot double the loop.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.logger.Debug("Poller already running, ignoring start request")
		return
	}

	p.running = true
	go p.runLoop()
}

// Stop halts the loop before its next tick, letting an in-flight cycle finish
// first. Safe to call at any time, including before Start or repeatedly.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	ch := make(chan error)
	p.shutdownCh <- ch
	return <-ch
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) runLoop() {
	p.logger.Info("Starting ledger event polling loop",
		zap.Int("streams", len(p.streams)),
		zap.Duration("poll_interval", p.pollInterval),
	)

	timer := time.NewTicker(p.pollInterval)
	defer timer.Stop()

	for {
		select {
		case ch := <-p.shutdownCh:
			p.logger.Info("Shutting down polling loop")
			ch <- nil
			return
		case <-timer.C:
			ctx, cancelFunc := context.WithTimeout(context.Background(), cycleTimeout)
			// A failing stream must not starve the others, so each is
			// polled regardless of its siblings' outcomes.
			for _, stream := range p.streams {
				if err := p.pollStream(ctx, stream); err != nil {
					p.logger.Error("Poll cycle failed",
						zap.String("stream", stream.Name),
						zap.Error(err),
					)
				}
			}
			cancelFunc()
		}
	}
}

// pollStream runs one stream's cycle: page until the ledger reports no further
// events or the per-cycle page cap is hit. A failed event query aborts the
// stream's cycle without touching its cursor; the next tick retries from the
// same position.
func (p *Poller) pollStream(ctx context.Context, stream Stream) error {
	cursor, err := p.state.Cursor(ctx, stream.Name)
	if err != nil {
		return errors.Wrap(err, "failed to load event cursor")
	}

	for page := 0; page < p.maxPages; page++ {
		eventPage, err := p.client.QueryEvents(ctx, stream.Query, cursor, p.pageLimit)
		if err != nil {
			return errors.Wrap(err, "failed to query ledger events")
		}

		if len(eventPage.Data) == 0 {
			p.logger.Debug("No new events", zap.String("stream", stream.Name))
			return nil
		}

		p.logger.Debug("Processing event page",
			zap.String("stream", stream.Name),
			zap.Int("count", len(eventPage.Data)),
			zap.Bool("has_next_page", eventPage.HasNextPage),
		)

		p.processPage(ctx, eventPage.Data)

		// The cursor advances past every event in the page, including ones
		// whose handlers failed. Blob fetch and handler errors are terminal
		// for the individual event, not grounds for replaying the page.
		lastSeen := eventPage.Data[len(eventPage.Data)-1].Cursor()
		if err := p.persistCursor(ctx, stream.Name, lastSeen); err != nil {
			return errors.Wrap(err, "failed to persist event cursor")
		}

		cursor = &lastSeen
		if next := eventPage.NextCursor; next != nil {
			cursor = next
		}

		if !eventPage.HasNextPage {
			return nil
		}
	}

	p.logger.Warn("Page cap reached mid-cycle, remaining events deferred to next tick",
		zap.String("stream", stream.Name),
		zap.Int("max_pages", p.maxPages),
	)
	return nil
}

func (p *Poller) processPage(ctx context.Context, events []ledger.RawEvent) {
	for _, raw := range events {
		if err := p.dispatcher.Dispatch(ctx, raw); err != nil {
			switch {
			case errors.Is(err, dispatch.ErrUnknownEventType):
				p.logger.Debug("Skipping unrecognised event type", zap.String("type", raw.Type))
			default:
				p.logger.Warn("Failed to process event",
					zap.String("type", raw.Type),
					zap.String("tx_digest", raw.ID.TxDigest),
					zap.String("event_seq", raw.ID.EventSeq),
					zap.Error(err),
				)
			}
		}
	}
}

// persistCursor retries transient state store failures with exponential
// backoff. Losing a cursor write means re-processing a page after restart, so
// it is worth several attempts before surfacing the error.
func (p *Poller) persistCursor(ctx context.Context, stream string, cursor types.EventCursor) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cursorWriteMaxRetries),
		ctx,
	)

	return backoff.Retry(func() error {
		return p.state.SetCursor(ctx, stream, cursor)
	}, policy)
}
