package types

import "encoding/json"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type ValidationError struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult accumulates the per-constraint check results. IsValid is
// true iff no entry has error severity; warnings never block admission.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors"`
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// DryRunResult is the simulation result returned by the ledger. Only the
// effects status (and its error on failure) carry contract semantics here;
// everything else is passed through opaquely to feature extraction.
type DryRunResult struct {
	Effects       DryRunEffects   `json:"effects"`
	Events        json.RawMessage `json:"events,omitempty"`
	ObjectChanges json.RawMessage `json:"objectChanges,omitempty"`
}

type DryRunEffects struct {
	Status  DryRunStatus `json:"status"`
	GasUsed *GasSummary  `json:"gasUsed,omitempty"`
}

type DryRunStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type GasSummary struct {
	ComputationCost string `json:"computationCost"`
	StorageCost     string `json:"storageCost"`
	StorageRebate   string `json:"storageRebate"`
}

func (r DryRunResult) Succeeded() bool {
	return r.Effects.Status.Status == StatusSuccess
}

type FailureReason string

const (
	FailureConstraintValidation FailureReason = "Constraint validation failed"
	FailureDryRun               FailureReason = "Dry run failed"
	FailureProcessing           FailureReason = "Processing error"
)

// FeatureVector is the numeric cost/benefit summary of an admitted solution,
// consumed only by the downstream ranking stage.
type FeatureVector struct {
	GasCost          float64 `json:"gasCost"`
	SurplusUsd       float64 `json:"surplusUsd"`
	TotalCost        float64 `json:"totalCost"`
	HasAttestation   bool    `json:"hasAttestation"`
	TransactionBytes int     `json:"transactionBytes"`
}

// Outcome is the terminal admission decision for one (intent, solution) pair:
// either passed with features and the dry-run result, or failed with a reason.
type Outcome struct {
	Passed        bool              `json:"passed"`
	Features      *FeatureVector    `json:"features,omitempty"`
	DryRunResult  *DryRunResult     `json:"dryRunResult,omitempty"`
	FailureReason FailureReason     `json:"failureReason,omitempty"`
	Errors        []ValidationError `json:"errors,omitempty"`
}

type Classification struct {
	PrimaryCategory string  `json:"primaryCategory"`
	Confidence      float64 `json:"confidence"`
}
