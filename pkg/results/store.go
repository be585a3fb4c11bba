package results

import (
	"context"

	"github.com/intenus/preranker/pkg/types"
)

// PassedRecord is the persisted outcome of an admitted solution.
type PassedRecord struct {
	Solution     types.Solution      `json:"solution"`
	SolutionID   string              `json:"solutionId"`
	Features     types.FeatureVector `json:"features"`
	DryRunResult types.DryRunResult  `json:"dryRunResult"`
}

// FailedRecord is the persisted outcome of a rejected solution. It lives in a
// distinct key namespace from passed records, so the two never collide.
type FailedRecord struct {
	SolutionID    string                  `json:"solutionId"`
	FailureReason types.FailureReason     `json:"failureReason"`
	Errors        []types.ValidationError `json:"errors"`
}

// RankingTask is one entry on the outbound queue consumed by the downstream
// ranking stage. TaskID gives the consumer a handle for deduplicating
// at-least-once replays.
type RankingTask struct {
	TaskID    string            `json:"taskId"`
	IntentID  string            `json:"intentId"`
	Solutions []RankingSolution `json:"solutions"`
}

type RankingSolution struct {
	SolutionID string              `json:"solutionId"`
	Features   types.FeatureVector `json:"features"`
}

// Store caches fetched intents and persists admission outcomes, all with a
// fixed TTL, and hands passed solutions off to the ranking queue. Writes for
// the same key overwrite; each key is logically owned by one
// (intentId[,solutionId]) pair.
type Store interface {
	Close(ctx context.Context) error

	StoreIntent(ctx context.Context, intentID string, intent types.Intent) error
	Intent(ctx context.Context, intentID string) (types.Intent, bool, error)

	StoreSolutionResult(ctx context.Context, intentID, solutionID string, record PassedRecord) error
	SolutionResult(ctx context.Context, intentID, solutionID string) (PassedRecord, bool, error)

	StoreFailedSolution(ctx context.Context, intentID, solutionID string, record FailedRecord) error
	FailedSolution(ctx context.Context, intentID, solutionID string) (FailedRecord, bool, error)

	SendToRankingService(ctx context.Context, task RankingTask) error
	DequeueRankingTasks(ctx context.Context, limit int) ([]RankingTask, error)
	QueueDepth(ctx context.Context) (int, error)

	DropExpired(ctx context.Context) (int, error)
}
