package preranking

import (
	"context"
	"fmt"
	"strings"

	"github.com/intenus/preranker/pkg/types"
	"go.uber.org/zap"
)

// SolutionValidator evaluates an intent's constraints against a solution.
// dryRun is nil when validating before simulation.
type SolutionValidator interface {
	Validate(intent types.Intent, solution types.Solution, dryRun *types.DryRunResult) types.ValidationResult
}

// Simulator executes a transaction payload against the ledger without
// committing it.
type Simulator interface {
	DryRunTransaction(ctx context.Context, txBytes string) (types.DryRunResult, error)
}

// Engine runs the two-stage admission pipeline for a single solution:
// constraint validation first, dry-run simulation only if validation passes.
// Every call produces exactly one terminal outcome, even on panic.
type Engine struct {
	logger    *zap.Logger
	validator SolutionValidator
	simulator Simulator
}

func NewEngine(logger *zap.Logger, validator SolutionValidator, simulator Simulator) *Engine {
	return &Engine{
		logger:    logger.With(zap.String("module", "preranking")),
		validator: validator,
		simulator: simulator,
	}
}

// ProcessSingleSolution evaluates one (intent, solution) pair. Stages run
// strictly in order and short-circuit: a validation failure means the
// simulator is never called, a failed simulation means features are never
// extracted. Unexpected panics from any stage are converted into a processing
// failure so a malformed pair can never take down the caller.
func (e *Engine) ProcessSingleSolution(
	ctx context.Context,
	intent types.Intent,
	intentId, solutionId string,
	solution types.Solution,
) (outcome types.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic while processing solution",
				zap.String("intent_id", intentId),
				zap.String("solution_id", solutionId),
				zap.Any("panic", r),
			)

			outcome = types.Outcome{
				Passed:        false,
				FailureReason: types.FailureProcessing,
				Errors: []types.ValidationError{{
					Field:    "processing",
					Message:  fmt.Sprint(r),
					Severity: types.SeverityError,
				}},
			}
		}
	}()

	validation := e.validator.Validate(intent, solution, nil)
	if !validation.IsValid {
		e.logger.Debug("Solution rejected by constraint validation",
			zap.String("intent_id", intentId),
			zap.String("solution_id", solutionId),
			zap.Int("error_count", len(validation.Errors)),
		)

		return types.Outcome{
			Passed:        false,
			FailureReason: types.FailureConstraintValidation,
			Errors:        validation.Errors,
		}
	}

	dryRun, err := e.simulator.DryRunTransaction(ctx, solution.TransactionBytes)
	if err != nil {
		e.logger.Warn("Dry run request failed",
			zap.String("intent_id", intentId),
			zap.String("solution_id", solutionId),
			zap.Error(err),
		)

		return types.Outcome{
			Passed:        false,
			FailureReason: types.FailureProcessing,
			Errors: []types.ValidationError{{
				Field:    "processing",
				Message:  err.Error(),
				Severity: types.SeverityError,
			}},
		}
	}

	if !dryRun.Succeeded() {
		e.logger.Debug("Solution rejected by dry run",
			zap.String("intent_id", intentId),
			zap.String("solution_id", solutionId),
			zap.String("error", dryRun.Effects.Status.Error),
		)

		return types.Outcome{
			Passed:        false,
			FailureReason: types.FailureDryRun,
			Errors: []types.ValidationError{{
				Field:    "dryRun",
				Message:  dryRun.Effects.Status.Error,
				Severity: types.SeverityError,
			}},
		}
	}

	features := extractFeatures(intent, solution, dryRun)

	return types.Outcome{
		Passed:       true,
		Features:     &features,
		DryRunResult: &dryRun,
	}
}

// SolutionWithId pairs a solution with its submission-scoped identifier for
// batch processing.
type SolutionWithId struct {
	SolutionId string
	Solution   types.Solution
}

// BatchResult partitions a batch of solutions into admitted and rejected sets.
// FeatureVectors and DryRunResults run parallel to PassedSolutionIds; Outcomes
// preserves the full per-solution detail keyed by solution id.
type BatchResult struct {
	PassedSolutionIds []string
	FailedSolutionIds []string
	FeatureVectors    []types.FeatureVector
	DryRunResults     []types.DryRunResult
	Outcomes          map[string]types.Outcome
}

// ProcessIntent evaluates a batch of solutions against one intent,
// partitioning them by outcome. Each solution is processed independently in
// submission order.
//
// Deprecated: the ingestion pipeline processes solutions one at a time as
// their events arrive. Retained for offline re-evaluation tooling.
func (e *Engine) ProcessIntent(
	ctx context.Context,
	intent types.Intent,
	intentId string,
	solutions []SolutionWithId,
) BatchResult {
	result := BatchResult{
		PassedSolutionIds: make([]string, 0, len(solutions)),
		FailedSolutionIds: make([]string, 0),
		FeatureVectors:    make([]types.FeatureVector, 0, len(solutions)),
		DryRunResults:     make([]types.DryRunResult, 0, len(solutions)),
		Outcomes:          make(map[string]types.Outcome, len(solutions)),
	}

	for _, s := range solutions {
		outcome := e.ProcessSingleSolution(ctx, intent, intentId, s.SolutionId, s.Solution)
		result.Outcomes[s.SolutionId] = outcome

		if outcome.Passed {
			result.PassedSolutionIds = append(result.PassedSolutionIds, s.SolutionId)
			result.FeatureVectors = append(result.FeatureVectors, *outcome.Features)
			result.DryRunResults = append(result.DryRunResults, *outcome.DryRunResult)
		} else {
			result.FailedSolutionIds = append(result.FailedSolutionIds, s.SolutionId)
		}
	}

	return result
}

const (
	categorySwap       = "swap"
	categoryLimitOrder = "limit_order"
	categoryUnknown    = "unknown"
)

// ClassifyIntent assigns a coarse category used for downstream routing. The
// declared intent type wins; the operation mode is the fallback signal.
func ClassifyIntent(intent types.Intent) types.Classification {
	switch {
	case strings.HasPrefix(string(intent.IntentType), "swap."):
		return types.Classification{PrimaryCategory: categorySwap, Confidence: 0.95}
	case strings.HasPrefix(string(intent.IntentType), "limit."),
		intent.Operation.Mode == types.OperationModeLimitOrder:
		return types.Classification{PrimaryCategory: categoryLimitOrder, Confidence: 0.9}
	default:
		return types.Classification{PrimaryCategory: categoryUnknown, Confidence: 0.5}
	}
}
