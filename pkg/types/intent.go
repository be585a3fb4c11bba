package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Intent is a user's declared desired asset exchange, stored off-chain and
// referenced on-chain by blob id. Read-only once fetched.
type Intent struct {
	IGSVersion  string       `json:"igsVersion"`
	Object      IntentObject `json:"object"`
	UserAddress string       `json:"userAddress"`
	IntentType  IntentType   `json:"intentType"`
	Description string       `json:"description,omitempty"`
	Operation   Operation    `json:"operation"`
	Constraints *Constraints `json:"constraints,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	Metadata    *Metadata    `json:"metadata,omitempty"`
}

type IntentType string

const (
	IntentTypeSwapExactInput  IntentType = "swap.exact_input"
	IntentTypeSwapExactOutput IntentType = "swap.exact_output"
	IntentTypeLimitSell       IntentType = "limit.sell"
	IntentTypeLimitBuy        IntentType = "limit.buy"
)

type IntentObject struct {
	UserAddress string `json:"userAddress"`
	CreatedTs   int64  `json:"createdTs"`
	Policy      Policy `json:"policy"`
}

type Policy struct {
	SolverAccessWindow SolverAccessWindow `json:"solverAccessWindow"`
	AutoRevokeTime     int64              `json:"autoRevokeTime"`
	AccessCondition    AccessCondition    `json:"accessCondition"`
}

type AccessCondition struct {
	RequiresSolverRegistration bool   `json:"requiresSolverRegistration"`
	MinSolverStake             string `json:"minSolverStake"`
	RequiresTeeAttestation     bool   `json:"requiresTeeAttestation"`
	ExpectedMeasurement        string `json:"expectedMeasurement"`
	Purpose                    string `json:"purpose"`
}

type OperationMode string

const (
	OperationModeExactInput  OperationMode = "exact_input"
	OperationModeExactOutput OperationMode = "exact_output"
	OperationModeLimitOrder  OperationMode = "limit_order"
)

type Operation struct {
	Mode            OperationMode    `json:"mode"`
	Inputs          []AssetFlow      `json:"inputs"`
	Outputs         []AssetFlow      `json:"outputs"`
	ExpectedOutcome *ExpectedOutcome `json:"expectedOutcome,omitempty"`
}

type AssetFlow struct {
	AssetID   string     `json:"assetId"`
	AssetInfo *AssetInfo `json:"assetInfo,omitempty"`
	Amount    Amount     `json:"amount"`
}

type AssetInfo struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

type AmountType string

const (
	AmountTypeExact AmountType = "exact"
	AmountTypeRange AmountType = "range"
	AmountTypeAll   AmountType = "all"
)

// Amount is one of three shapes: an exact value, an inclusive min/max range,
// or "all" of the user's balance.
type Amount struct {
	Type  AmountType `json:"type"`
	Value string     `json:"value,omitempty"`
	Min   string     `json:"min,omitempty"`
	Max   string     `json:"max,omitempty"`
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	type raw Amount
	var decoded raw
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	switch decoded.Type {
	case AmountTypeExact:
		if decoded.Value == "" {
			return errors.New("exact amount missing value")
		}
	case AmountTypeRange:
		if decoded.Min == "" || decoded.Max == "" {
			return errors.New("range amount missing min or max")
		}
	case AmountTypeAll:
	default:
		return errors.Errorf("unknown amount type %q", decoded.Type)
	}

	*a = Amount(decoded)
	return nil
}

type ExpectedOutcome struct {
	ExpectedOutputs []ExpectedOutput `json:"expectedOutputs"`
	ExpectedCosts   *ExpectedCosts   `json:"expectedCosts,omitempty"`
	MarketPrice     *MarketPrice     `json:"marketPrice,omitempty"`
}

type ExpectedOutput struct {
	AssetID string `json:"assetId"`
	Amount  string `json:"amount"`
}

type ExpectedCosts struct {
	GasEstimate      string `json:"gasEstimate,omitempty"`
	ProtocolFees     string `json:"protocolFees,omitempty"`
	SlippageEstimate string `json:"slippageEstimate,omitempty"`
}

type MarketPrice struct {
	Price      string `json:"price"`
	PriceAsset string `json:"priceAsset"`
}

// Constraints are the user's declared admission policies. Only the deadline
// carries concrete numeric semantics at decision time; the remainder are
// evaluated by registered per-kind checks.
type Constraints struct {
	MaxSlippageBps *int          `json:"maxSlippageBps,omitempty"`
	DeadlineMs     *int64        `json:"deadlineMs,omitempty"`
	MaxInputs      []AssetAmount `json:"maxInputs,omitempty"`
	MinOutputs     []AssetAmount `json:"minOutputs,omitempty"`
	MaxGasCost     *AssetAmount  `json:"maxGasCost,omitempty"`
	Routing        *Routing      `json:"routing,omitempty"`
	LimitPrice     *LimitPrice   `json:"limitPrice,omitempty"`
}

type AssetAmount struct {
	AssetID string `json:"assetId"`
	Amount  string `json:"amount"`
}

type Routing struct {
	MaxHops            *int     `json:"maxHops,omitempty"`
	BlacklistProtocols []string `json:"blacklistProtocols,omitempty"`
	WhitelistProtocols []string `json:"whitelistProtocols,omitempty"`
}

type LimitPrice struct {
	Price      string `json:"price"`
	Comparison string `json:"comparison"` // gte or lte
	PriceAsset string `json:"priceAsset"`
}

type Preferences struct {
	OptimizationGoal string          `json:"optimizationGoal,omitempty"`
	RankingWeights   *RankingWeights `json:"rankingWeights,omitempty"`
}

type RankingWeights struct {
	SurplusWeight        float64 `json:"surplusWeight,omitempty"`
	GasCostWeight        float64 `json:"gasCostWeight,omitempty"`
	ExecutionSpeedWeight float64 `json:"executionSpeedWeight,omitempty"`
	ReputationWeight     float64 `json:"reputationWeight,omitempty"`
}

type Metadata struct {
	Warnings       []string `json:"warnings,omitempty"`
	Clarifications []string `json:"clarifications,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}
