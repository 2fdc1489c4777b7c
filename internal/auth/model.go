// File: internal/auth/model.go
package auth

// Stage is a step of the federated login pipeline.
type Stage string

const (
	StageReceived   Stage = "received"
	StageNormalized Stage = "normalized"
	StageVerified   Stage = "verified"
	StageReconciled Stage = "reconciled"
	StageIssued     Stage = "issued"
	StageResponded  Stage = "responded"
	StageFailed     Stage = "failed"
)

// LoginResponse is the success body of POST /auth/federated.
type LoginResponse struct {
	SessionCredential string `json:"sessionCredential"`
}
