package preranking

import (
	"context"
	"testing"

	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubValidator struct {
	result types.ValidationResult
}

func (s stubValidator) Validate(types.Intent, types.Solution, *types.DryRunResult) types.ValidationResult {
	return s.result
}

type fakeSimulator struct {
	result types.DryRunResult
	err    error
	panics bool
	calls  int
}

func (f *fakeSimulator) DryRunTransaction(context.Context, string) (types.DryRunResult, error) {
	f.calls++
	if f.panics {
		panic("simulator exploded")
	}
	return f.result, f.err
}

func validResult() types.ValidationResult {
	return types.ValidationResult{IsValid: true, Errors: []types.ValidationError{}}
}

func successfulDryRun() types.DryRunResult {
	return types.DryRunResult{
		Effects: types.DryRunEffects{
			Status: types.DryRunStatus{Status: types.StatusSuccess},
			GasUsed: &types.GasSummary{
				ComputationCost: "1000",
				StorageCost:     "500",
				StorageRebate:   "200",
			},
		},
	}
}

func TestProcessSingleSolutionPasses(t *testing.T) {
	sim := &fakeSimulator{result: successfulDryRun()}
	engine := NewEngine(zap.NewNop(), stubValidator{result: validResult()}, sim)

	solution := types.Solution{
		TransactionBytes: "dGVzdA==",
		Attestation:      &types.TeeAttestation{EnclaveMeasurement: "abc"},
	}

	outcome := engine.ProcessSingleSolution(context.Background(), types.Intent{}, "intent-1", "solver-1", solution)

	assert.True(t, outcome.Passed)
	assert.Empty(t, outcome.FailureReason)
	require.NotNil(t, outcome.Features)
	assert.Equal(t, float64(1300), outcome.Features.GasCost)
	assert.True(t, outcome.Features.HasAttestation)
	assert.Equal(t, len("dGVzdA=="), outcome.Features.TransactionBytes)
	require.NotNil(t, outcome.DryRunResult)
	assert.True(t, outcome.DryRunResult.Succeeded())
}

func TestProcessSingleSolutionValidationFailureSkipsDryRun(t *testing.T) {
	sim := &fakeSimulator{result: successfulDryRun()}
	engine := NewEngine(zap.NewNop(), stubValidator{result: types.ValidationResult{
		IsValid: false,
		Errors: []types.ValidationError{{
			Field:    "deadline",
			Message:  "Solution submitted after deadline (100)",
			Severity: types.SeverityError,
		}},
	}}, sim)

	outcome := engine.ProcessSingleSolution(context.Background(), types.Intent{}, "intent-1", "solver-1", types.Solution{})

	assert.False(t, outcome.Passed)
	assert.Equal(t, types.FailureConstraintValidation, outcome.FailureReason)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "deadline", outcome.Errors[0].Field)
	assert.Zero(t, sim.calls)
	assert.Nil(t, outcome.Features)
}

func TestProcessSingleSolutionDryRunRejected(t *testing.T) {
	sim := &fakeSimulator{result: types.DryRunResult{
		Effects: types.DryRunEffects{
			Status: types.DryRunStatus{
				Status: types.StatusFailure,
				Error:  "MoveAbort in module dex: insufficient liquidity",
			},
		},
	}}
	engine := NewEngine(zap.NewNop(), stubValidator{result: validResult()}, sim)

	outcome := engine.ProcessSingleSolution(context.Background(), types.Intent{}, "intent-1", "solver-1", types.Solution{})

	assert.False(t, outcome.Passed)
	assert.Equal(t, types.FailureDryRun, outcome.FailureReason)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "dryRun", outcome.Errors[0].Field)
	assert.Contains(t, outcome.Errors[0].Message, "insufficient liquidity")
	assert.Nil(t, outcome.Features)
}

func TestProcessSingleSolutionSimulatorError(t *testing.T) {
	sim := &fakeSimulator{err: errors.New("rpc timeout")}
	engine := NewEngine(zap.NewNop(), stubValidator{result: validResult()}, sim)

	outcome := engine.ProcessSingleSolution(context.Background(), types.Intent{}, "intent-1", "solver-1", types.Solution{})

	assert.False(t, outcome.Passed)
	assert.Equal(t, types.FailureProcessing, outcome.FailureReason)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "processing", outcome.Errors[0].Field)
	assert.Equal(t, "rpc timeout", outcome.Errors[0].Message)
	assert.Equal(t, types.SeverityError, outcome.Errors[0].Severity)
}

func TestProcessSingleSolutionRecoversPanic(t *testing.T) {
	sim := &fakeSimulator{panics: true}
	engine := NewEngine(zap.NewNop(), stubValidator{result: validResult()}, sim)

	var outcome types.Outcome
	require.NotPanics(t, func() {
		outcome = engine.ProcessSingleSolution(context.Background(), types.Intent{}, "intent-1", "solver-1", types.Solution{})
	})

	assert.False(t, outcome.Passed)
	assert.Equal(t, types.FailureProcessing, outcome.FailureReason)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "processing", outcome.Errors[0].Field)
	assert.Contains(t, outcome.Errors[0].Message, "simulator exploded")
	assert.Equal(t, types.SeverityError, outcome.Errors[0].Severity)
}

func TestProcessIntentPartitionsBatch(t *testing.T) {
	sim := &fakeSimulator{result: successfulDryRun()}
	validator := NewValidator(zap.NewNop())
	engine := NewEngine(zap.NewNop(), validator, sim)

	// The batch shares one intent, so make validation data-dependent via a
	// registered check keyed off the solver address.
	validator.RegisterCheck("solver", func(_ types.Constraints, s types.Solution, _ *types.DryRunResult) []types.ValidationError {
		if s.SolverAddress == "0xbad" {
			return []types.ValidationError{{
				Field:    "solver",
				Message:  "solver not registered",
				Severity: types.SeverityError,
			}}
		}
		return nil
	})

	solutions := []SolutionWithId{
		{SolutionId: "0xgood", Solution: types.Solution{SolverAddress: "0xgood", TransactionBytes: "AA=="}},
		{SolutionId: "0xbad", Solution: types.Solution{SolverAddress: "0xbad", TransactionBytes: "AA=="}},
		{SolutionId: "0xgood2", Solution: types.Solution{SolverAddress: "0xgood2", TransactionBytes: "AA=="}},
	}

	result := engine.ProcessIntent(context.Background(), types.Intent{Constraints: &types.Constraints{}}, "intent-1", solutions)

	assert.Equal(t, []string{"0xgood", "0xgood2"}, result.PassedSolutionIds)
	assert.Equal(t, []string{"0xbad"}, result.FailedSolutionIds)
	require.Len(t, result.FeatureVectors, 2)
	assert.Equal(t, float64(1300), result.FeatureVectors[0].GasCost)
	require.Len(t, result.DryRunResults, 2)
	assert.True(t, result.DryRunResults[1].Succeeded())
	require.Len(t, result.Outcomes, 3)
	assert.True(t, result.Outcomes["0xgood"].Passed)
	assert.False(t, result.Outcomes["0xbad"].Passed)
	assert.Equal(t, types.FailureConstraintValidation, result.Outcomes["0xbad"].FailureReason)
	assert.Equal(t, 2, sim.calls)
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name       string
		intent     types.Intent
		category   string
		confidence float64
	}{
		{
			name:       "swap exact input",
			intent:     types.Intent{IntentType: types.IntentTypeSwapExactInput},
			category:   categorySwap,
			confidence: 0.95,
		},
		{
			name:       "limit sell",
			intent:     types.Intent{IntentType: types.IntentTypeLimitSell},
			category:   categoryLimitOrder,
			confidence: 0.9,
		},
		{
			name: "limit order mode fallback",
			intent: types.Intent{
				IntentType: "custom.strategy",
				Operation:  types.Operation{Mode: types.OperationModeLimitOrder},
			},
			category:   categoryLimitOrder,
			confidence: 0.9,
		},
		{
			name:       "unknown",
			intent:     types.Intent{IntentType: "bridge.transfer"},
			category:   categoryUnknown,
			confidence: 0.5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := ClassifyIntent(tc.intent)
			assert.Equal(t, tc.category, c.PrimaryCategory)
			assert.Equal(t, tc.confidence, c.Confidence)
		})
	}
}

func TestExtractFeaturesSurplusAgainstEstimate(t *testing.T) {
	intent := types.Intent{
		Operation: types.Operation{
			ExpectedOutcome: &types.ExpectedOutcome{
				ExpectedCosts: &types.ExpectedCosts{GasEstimate: "2000"},
			},
		},
	}

	features := extractFeatures(intent, types.Solution{}, successfulDryRun())
	assert.Equal(t, float64(1300), features.GasCost)
	assert.Equal(t, float64(700), features.SurplusUsd)
}

func TestExtractFeaturesMissingGas(t *testing.T) {
	dryRun := types.DryRunResult{
		Effects: types.DryRunEffects{Status: types.DryRunStatus{Status: types.StatusSuccess}},
	}

	features := extractFeatures(types.Intent{}, types.Solution{}, dryRun)
	assert.Zero(t, features.GasCost)
	assert.Zero(t, features.SurplusUsd)
}
