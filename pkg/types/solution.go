package types

// Solution is a solver's proposed transaction for an intent. TransactionBytes
// is an opaque base64 transaction payload; the attestation, when present, is
// TEE proof metadata. Immutable once fetched.
type Solution struct {
	SolverAddress    string          `json:"solverAddress"`
	TransactionBytes string          `json:"transactionBytes"`
	Attestation      *TeeAttestation `json:"attestation,omitempty"`
}

type TeeAttestation struct {
	EnclaveMeasurement string `json:"enclaveMeasurement"`
	InputHash          string `json:"inputHash"`
	OutputHash         string `json:"outputHash"`
	Timestamp          int64  `json:"timestamp"`
	Signature          string `json:"signature"`
	VerificationKey    string `json:"verificationKey"`
}
