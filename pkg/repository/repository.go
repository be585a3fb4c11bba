package repository

import (
	"context"
	"time"

	"github.com/intenus/preranker/pkg/types"
)

type Repository interface {
	Solutions() SolutionRepository
	TestConnection() error
}

// SolutionRepository is the durable archive of admission decisions, one
// record per (intent, solution) pair. Unlike the local result cache, records
// here never expire.
type SolutionRepository interface {
	Save(ctx context.Context, record SolutionRecord) error
	FindById(ctx context.Context, solutionId string) (SolutionRecord, bool, error)
	FindByIntent(ctx context.Context, intentId string) ([]SolutionRecord, error)
	UpdateStatus(ctx context.Context, solutionId string, status SolutionStatus) error
	SolutionCount(ctx context.Context) (int, error)
}

type SolutionStatus string

const (
	StatusPending  SolutionStatus = "pending"
	StatusVerified SolutionStatus = "verified"
	StatusRejected SolutionStatus = "rejected"
	StatusExecuted SolutionStatus = "executed"
)

func (s SolutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusExecuted:
		return true
	default:
		return false
	}
}

type SolutionRecord struct {
	SolutionId      string                `bson:"solution_id" json:"solutionId"`
	IntentId        string                `bson:"intent_id" json:"intentId"`
	SolverAddress   string                `bson:"solver_address" json:"solverAddress"`
	BlobId          string                `bson:"blob_id" json:"blobId"`
	Status          SolutionStatus        `bson:"status" json:"status"`
	FailureReason   string                `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	TotalSurplusUsd float64               `bson:"total_surplus_usd" json:"totalSurplusUsd"`
	EstimatedGas    float64               `bson:"estimated_gas" json:"estimatedGas"`
	SubmittedAt     int64                 `bson:"submitted_at" json:"submittedAt"`
	Attestation     *types.TeeAttestation `bson:"attestation,omitempty" json:"attestation,omitempty"`
	CreatedAt       time.Time             `bson:"created_at" json:"createdAt"`
}
