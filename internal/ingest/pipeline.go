package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/intenus/preranker/pkg/dispatch"
	"github.com/intenus/preranker/pkg/preranking"
	"github.com/intenus/preranker/pkg/repository"
	"github.com/intenus/preranker/pkg/results"
	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BlobResolver fetches and decodes the off-chain payloads referenced by
// domain events.
type BlobResolver interface {
	ResolveIntent(ctx context.Context, blobID string) (types.Intent, error)
	ResolveSolution(ctx context.Context, blobID string) (types.Solution, error)
}

// SolutionProcessor runs the admission pipeline for one (intent, solution)
// pair and always returns a terminal outcome.
type SolutionProcessor interface {
	ProcessSingleSolution(ctx context.Context, intent types.Intent, intentId, solutionId string, solution types.Solution) types.Outcome
}

var timeNow = time.Now

// Pipeline connects dispatched domain events to the admission engine and the
// stores. Intent events populate the cache, solution events are evaluated
// immediately against the cached intent.
type Pipeline struct {
	logger    *zap.Logger
	resolver  BlobResolver
	engine    SolutionProcessor
	results   results.Store
	solutions repository.SolutionRepository
}

func NewPipeline(
	logger *zap.Logger,
	resolver BlobResolver,
	engine SolutionProcessor,
	resultStore results.Store,
	solutions repository.SolutionRepository,
) *Pipeline {
	return &Pipeline{
		logger:    logger.With(zap.String("module", "ingest")),
		resolver:  resolver,
		engine:    engine,
		results:   resultStore,
		solutions: solutions,
	}
}

// Register attaches the pipeline's handlers to the dispatcher.
func (p *Pipeline) Register(dispatcher *dispatch.Dispatcher) {
	dispatcher.OnIntentSubmitted(p.HandleIntentSubmitted)
	dispatcher.OnSolutionSubmitted(p.HandleSolutionSubmitted)
}

// HandleIntentSubmitted resolves the intent payload and caches it so that
// subsequent solution events can be evaluated against it. A failed resolution
// is terminal for this event; the intent stays unknown until re-submitted.
func (p *Pipeline) HandleIntentSubmitted(ctx context.Context, event types.IntentSubmitted) error {
	intent, err := p.resolver.ResolveIntent(ctx, event.BlobID)
	if err != nil {
		blobResolutionFailures.WithLabelValues("intent").Inc()
		return errors.Wrapf(err, "failed to resolve intent %s", event.IntentID)
	}

	classification := preranking.ClassifyIntent(intent)

	if err := p.results.StoreIntent(ctx, event.IntentID, intent); err != nil {
		return errors.Wrapf(err, "failed to cache intent %s", event.IntentID)
	}

	intentsIngested.Inc()
	intentsByCategory.WithLabelValues(classification.PrimaryCategory).Inc()

	p.logger.Info("Ingested intent",
		zap.String("intent_id", event.IntentID),
		zap.String("user_address", event.UserAddress),
		zap.String("category", classification.PrimaryCategory),
		zap.Float64("confidence", classification.Confidence),
	)
	return nil
}

// HandleSolutionSubmitted evaluates a solution against its cached intent. A
// solution whose intent is not in the cache is skipped outright: without the
// declared constraints there is nothing sound to admit it against.
func (p *Pipeline) HandleSolutionSubmitted(ctx context.Context, event types.SolutionSubmitted) error {
	intent, found, err := p.results.Intent(ctx, event.IntentID)
	if err != nil {
		return errors.Wrapf(err, "failed to look up intent %s", event.IntentID)
	}

	if !found {
		solutionsSkipped.Inc()
		p.logger.Warn("Skipping solution with no cached intent",
			zap.String("intent_id", event.IntentID),
			zap.String("solution_id", event.SolutionID),
		)
		return nil
	}

	solution, err := p.resolver.ResolveSolution(ctx, event.BlobID)
	if err != nil {
		blobResolutionFailures.WithLabelValues("solution").Inc()
		return errors.Wrapf(err, "failed to resolve solution %s", event.SolutionID)
	}

	outcome := p.engine.ProcessSingleSolution(ctx, intent, event.IntentID, event.SolutionID, solution)

	if outcome.Passed {
		return p.handlePassed(ctx, event, solution, outcome)
	}

	return p.handleFailed(ctx, event, solution, outcome)
}

func (p *Pipeline) handlePassed(
	ctx context.Context,
	event types.SolutionSubmitted,
	solution types.Solution,
	outcome types.Outcome,
) error {
	record := results.PassedRecord{
		Solution:     solution,
		SolutionID:   event.SolutionID,
		Features:     *outcome.Features,
		DryRunResult: *outcome.DryRunResult,
	}
	if err := p.results.StoreSolutionResult(ctx, event.IntentID, event.SolutionID, record); err != nil {
		return errors.Wrapf(err, "failed to store result for solution %s", event.SolutionID)
	}

	task := results.RankingTask{
		TaskID:   uuid.NewString(),
		IntentID: event.IntentID,
		Solutions: []results.RankingSolution{{
			SolutionID: event.SolutionID,
			Features:   *outcome.Features,
		}},
	}
	if err := p.results.SendToRankingService(ctx, task); err != nil {
		return errors.Wrapf(err, "failed to enqueue ranking task for solution %s", event.SolutionID)
	}

	if err := p.saveRecord(ctx, event, solution, outcome, repository.StatusVerified); err != nil {
		return err
	}

	solutionsPassed.Inc()
	p.logger.Info("Solution passed preranking",
		zap.String("intent_id", event.IntentID),
		zap.String("solution_id", event.SolutionID),
		zap.String("task_id", task.TaskID),
		zap.Float64("gas_cost", outcome.Features.GasCost),
	)
	return nil
}

func (p *Pipeline) handleFailed(
	ctx context.Context,
	event types.SolutionSubmitted,
	solution types.Solution,
	outcome types.Outcome,
) error {
	record := results.FailedRecord{
		SolutionID:    event.SolutionID,
		FailureReason: outcome.FailureReason,
		Errors:        outcome.Errors,
	}
	if err := p.results.StoreFailedSolution(ctx, event.IntentID, event.SolutionID, record); err != nil {
		return errors.Wrapf(err, "failed to store failure for solution %s", event.SolutionID)
	}

	if err := p.saveRecord(ctx, event, solution, outcome, repository.StatusRejected); err != nil {
		return err
	}

	solutionsFailed.WithLabelValues(string(outcome.FailureReason)).Inc()
	p.logger.Info("Solution rejected by preranking",
		zap.String("intent_id", event.IntentID),
		zap.String("solution_id", event.SolutionID),
		zap.String("reason", string(outcome.FailureReason)),
	)
	return nil
}

func (p *Pipeline) saveRecord(
	ctx context.Context,
	event types.SolutionSubmitted,
	solution types.Solution,
	outcome types.Outcome,
	status repository.SolutionStatus,
) error {
	record := repository.SolutionRecord{
		SolutionId:    event.SolutionID,
		IntentId:      event.IntentID,
		SolverAddress: solution.SolverAddress,
		BlobId:        event.BlobID,
		Status:        status,
		FailureReason: string(outcome.FailureReason),
		SubmittedAt:   event.SubmittedAt,
		Attestation:   solution.Attestation,
		CreatedAt:     timeNow(),
	}
	if outcome.Features != nil {
		record.TotalSurplusUsd = outcome.Features.SurplusUsd
		record.EstimatedGas = outcome.Features.GasCost
	}

	if err := p.solutions.Save(ctx, record); err != nil {
		return errors.Wrapf(err, "failed to archive solution %s", event.SolutionID)
	}
	return nil
}
