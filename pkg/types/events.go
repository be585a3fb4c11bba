package types

// EventCursor is the durable bookmark of the last consumed ledger event. It is
// opaque to the consumer: ordering comes from the ledger's own sequencing.
type EventCursor struct {
	EventSeq string `json:"eventSeq"`
	TxDigest string `json:"txDigest"`
}

// SolverAccessWindow is the period during which solvers may read the intent payload.
type SolverAccessWindow struct {
	StartMs int64 `json:"startMs"`
	EndMs   int64 `json:"endMs"`
}

// IntentSubmitted is the domain event emitted when a user publishes an
// encrypted intent. Only a blob reference and minimal metadata live on-chain.
type IntentSubmitted struct {
	IntentID           string             `json:"intentId"`
	UserAddress        string             `json:"userAddress"`
	BlobID             string             `json:"blobId"`
	CreatedTs          int64              `json:"createdTs"`
	SolverAccessWindow SolverAccessWindow `json:"solverAccessWindow"`
	AutoRevokeTime     int64              `json:"autoRevokeTime"`
}

// SolutionSubmitted is the domain event emitted when a solver publishes a
// candidate solution for an intent.
type SolutionSubmitted struct {
	SolutionID    string `json:"solutionId"`
	IntentID      string `json:"intentId"`
	SolverAddress string `json:"solverAddress"`
	BlobID        string `json:"blobId"`
	SubmittedAt   int64  `json:"submittedAt"`
}
