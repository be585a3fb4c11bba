package preranking

import (
	"fmt"
	"time"

	"github.com/intenus/preranker/pkg/types"
	"go.uber.org/zap"
)

// CheckFunc evaluates one constraint kind against a candidate solution. Checks
// are side-effect free and independent: each contributes zero or more entries
// and never sees the result of another check. dryRun is nil when validation
// runs before simulation; checks that compare against simulated effects must
// pass until they are handed a result.
type CheckFunc func(constraints types.Constraints, solution types.Solution, dryRun *types.DryRunResult) []types.ValidationError

type registeredCheck struct {
	kind  string
	check CheckFunc
}

// Validator evaluates an intent's declared constraints against a candidate
// solution at decision time. Checks run cheaply and locally; the only input
// beyond the arguments is the wall clock.
type Validator struct {
	logger *zap.Logger
	checks []registeredCheck

	// Overridable for deadline tests
	now func() time.Time
}

func NewValidator(logger *zap.Logger) *Validator {
	v := &Validator{
		logger: logger,
		now:    time.Now,
	}

	v.RegisterCheck("deadline", v.checkDeadline)
	v.RegisterCheck("slippage", v.checkSlippage)
	v.RegisterCheck("min_outputs", v.checkMinOutputs)
	v.RegisterCheck("max_inputs", v.checkMaxInputs)
	v.RegisterCheck("routing", v.checkRouting)
	v.RegisterCheck("limit_price", v.checkLimitPrice)
	v.RegisterCheck("max_gas_cost", v.checkMaxGasCost)

	return v
}

// RegisterCheck adds a constraint-kind check. New kinds plug in here without
// touching the aggregation logic. Registering an existing kind replaces it.
func (v *Validator) RegisterCheck(kind string, check CheckFunc) {
	for i, existing := range v.checks {
		if existing.kind == kind {
			v.checks[i].check = check
			return
		}
	}

	v.checks = append(v.checks, registeredCheck{kind: kind, check: check})
}

// Validate runs every registered check and accumulates their entries. The
// result is valid iff no entry has error severity; warnings never block.
func (v *Validator) Validate(intent types.Intent, solution types.Solution, dryRun *types.DryRunResult) types.ValidationResult {
	if intent.Constraints == nil {
		return types.ValidationResult{IsValid: true, Errors: []types.ValidationError{}}
	}

	errs := make([]types.ValidationError, 0)
	for _, registered := range v.checks {
		errs = append(errs, registered.check(*intent.Constraints, solution, dryRun)...)
	}

	isValid := true
	for _, e := range errs {
		if e.Severity == types.SeverityError {
			isValid = false
			break
		}
	}

	return types.ValidationResult{IsValid: isValid, Errors: errs}
}

func (v *Validator) checkDeadline(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if constraints.DeadlineMs == nil {
		return nil
	}

	if v.now().UnixMilli() > *constraints.DeadlineMs {
		return []types.ValidationError{{
			Field:    "deadline",
			Message:  fmt.Sprintf("Solution submitted after deadline (%d)", *constraints.DeadlineMs),
			Severity: types.SeverityError,
		}}
	}

	return nil
}

// The remaining checks are extension points: each constraint kind is declared
// policy the validator owns, but comparing it against simulated effects needs
// a dry-run result, which admission-time validation does not have. They
// intentionally pass until a post-simulation validation stage feeds them one.

func (v *Validator) checkSlippage(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if constraints.MaxSlippageBps != nil {
		v.logger.Debug("Checking max slippage", zap.Int("max_slippage_bps", *constraints.MaxSlippageBps))
	}
	return nil
}

func (v *Validator) checkMinOutputs(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if len(constraints.MinOutputs) > 0 {
		v.logger.Debug("Checking minimum output constraints", zap.Int("count", len(constraints.MinOutputs)))
	}
	return nil
}

func (v *Validator) checkMaxInputs(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if len(constraints.MaxInputs) > 0 {
		v.logger.Debug("Checking maximum input constraints", zap.Int("count", len(constraints.MaxInputs)))
	}
	return nil
}

func (v *Validator) checkRouting(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if constraints.Routing != nil {
		v.logger.Debug("Checking routing constraints")
	}
	return nil
}

func (v *Validator) checkLimitPrice(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if constraints.LimitPrice != nil {
		v.logger.Debug("Checking limit price constraint")
	}
	return nil
}

func (v *Validator) checkMaxGasCost(constraints types.Constraints, _ types.Solution, _ *types.DryRunResult) []types.ValidationError {
	if constraints.MaxGasCost != nil {
		v.logger.Debug("Checking max gas cost constraint")
	}
	return nil
}
