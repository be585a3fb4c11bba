package preranking

import (
	"strconv"

	"github.com/intenus/preranker/pkg/types"
)

// extractFeatures builds the numeric summary handed to the ranking stage from
// an admitted solution's dry-run effects. Gas figures arrive as stringified
// integers; unparseable or absent figures contribute zero rather than failing
// the admission.
func extractFeatures(intent types.Intent, solution types.Solution, dryRun types.DryRunResult) types.FeatureVector {
	var gasCost float64
	if gas := dryRun.Effects.GasUsed; gas != nil {
		gasCost = parseGasUnits(gas.ComputationCost) +
			parseGasUnits(gas.StorageCost) -
			parseGasUnits(gas.StorageRebate)
	}

	// Surplus relative to the user's own cost estimate, when declared. A
	// positive value means the solution beat the estimate.
	var surplus float64
	if outcome := intent.Operation.ExpectedOutcome; outcome != nil && outcome.ExpectedCosts != nil {
		if estimate := parseGasUnits(outcome.ExpectedCosts.GasEstimate); estimate > 0 {
			surplus = estimate - gasCost
		}
	}

	return types.FeatureVector{
		GasCost:          gasCost,
		SurplusUsd:       surplus,
		TotalCost:        gasCost,
		HasAttestation:   solution.Attestation != nil,
		TransactionBytes: len(solution.TransactionBytes),
	}
}

func parseGasUnits(s string) float64 {
	if s == "" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}
