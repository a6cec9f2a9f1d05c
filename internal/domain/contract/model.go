package contract

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("contract not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// Contract maps to the contract table. One row per patient; its existence
// means the patient has signed. Re-signing replaces the stored signature.
type Contract struct {
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	SignatureBlobID string    `db:"signature_blob_id" json:"signature_blob_id"`
	SignedAt        time.Time `db:"signed_at" json:"signed_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
