package intake

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("intake not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// Answer is one questionnaire response: a yes/no flag plus free-text detail
// for questions that ask for elaboration.
type Answer struct {
	Answer bool   `json:"answer"`
	Detail string `json:"detail,omitempty"`
}

// Intake maps to the medical_intake table. The answers document is keyed by
// question identifier; the question catalog itself lives in the client.
type Intake struct {
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	Answers     map[string]Answer `db:"answers" json:"answers"`
	CompletedAt time.Time         `db:"completed_at" json:"completed_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
