package preranking

import (
	"testing"
	"time"

	"github.com/intenus/preranker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateNoConstraints(t *testing.T) {
	v := NewValidator(zap.NewNop())

	res := v.Validate(types.Intent{}, types.Solution{}, nil)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestValidateDeadlinePassed(t *testing.T) {
	v := NewValidator(zap.NewNop())

	now := time.UnixMilli(5_000_000)
	v.now = func() time.Time { return now }

	deadline := now.UnixMilli() - 1
	intent := types.Intent{Constraints: &types.Constraints{DeadlineMs: &deadline}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "deadline", res.Errors[0].Field)
	assert.Equal(t, types.SeverityError, res.Errors[0].Severity)
	assert.Contains(t, res.Errors[0].Message, "after deadline")
}

func TestValidateDeadlineFuture(t *testing.T) {
	v := NewValidator(zap.NewNop())

	now := time.UnixMilli(5_000_000)
	v.now = func() time.Time { return now }

	deadline := now.UnixMilli() + 60_000
	intent := types.Intent{Constraints: &types.Constraints{DeadlineMs: &deadline}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

// A deadline equal to the current time has not yet passed.
func TestValidateDeadlineExact(t *testing.T) {
	v := NewValidator(zap.NewNop())

	now := time.UnixMilli(5_000_000)
	v.now = func() time.Time { return now }

	deadline := now.UnixMilli()
	intent := types.Intent{Constraints: &types.Constraints{DeadlineMs: &deadline}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.True(t, res.IsValid)
}

func TestValidateWarningsDoNotBlock(t *testing.T) {
	v := NewValidator(zap.NewNop())
	v.RegisterCheck("advisory", func(_ types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
		return []types.ValidationError{{
			Field:    "advisory",
			Message:  "unusual routing",
			Severity: types.SeverityWarning,
		}}
	})

	intent := types.Intent{Constraints: &types.Constraints{}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.True(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.SeverityWarning, res.Errors[0].Severity)
}

func TestValidateAccumulatesAllChecks(t *testing.T) {
	v := NewValidator(zap.NewNop())

	now := time.UnixMilli(5_000_000)
	v.now = func() time.Time { return now }

	v.RegisterCheck("custom", func(_ types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
		return []types.ValidationError{{
			Field:    "custom",
			Message:  "rejected",
			Severity: types.SeverityError,
		}}
	})

	deadline := now.UnixMilli() - 1
	intent := types.Intent{Constraints: &types.Constraints{DeadlineMs: &deadline}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 2)
}

// A check comparing declared constraints against simulated effects sees the
// dry-run result when one is supplied, and nil before simulation.
func TestValidateForwardsDryRunToChecks(t *testing.T) {
	v := NewValidator(zap.NewNop())

	var received *types.DryRunResult
	v.RegisterCheck("max_gas_cost", func(constraints types.Constraints, _ types.Solution, dryRun *types.DryRunResult) []types.ValidationError {
		received = dryRun
		if dryRun == nil || constraints.MaxGasCost == nil {
			return nil
		}
		return []types.ValidationError{{
			Field:    "maxGasCost",
			Message:  "Gas usage exceeds declared maximum",
			Severity: types.SeverityError,
		}}
	})

	maxGas := types.AssetAmount{AssetID: "0x2::sui::SUI", Amount: "100"}
	intent := types.Intent{Constraints: &types.Constraints{MaxGasCost: &maxGas}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.True(t, res.IsValid)
	assert.Nil(t, received)

	dryRun := &types.DryRunResult{
		Effects: types.DryRunEffects{Status: types.DryRunStatus{Status: types.StatusSuccess}},
	}
	res = v.Validate(intent, types.Solution{}, dryRun)
	assert.False(t, res.IsValid)
	assert.Same(t, dryRun, received)
}

func TestRegisterCheckReplacesExistingKind(t *testing.T) {
	v := NewValidator(zap.NewNop())
	v.RegisterCheck("deadline", func(_ types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
		return nil
	})

	deadline := int64(1)
	intent := types.Intent{Constraints: &types.Constraints{DeadlineMs: &deadline}}

	res := v.Validate(intent, types.Solution{}, nil)
	assert.True(t, res.IsValid)
}
