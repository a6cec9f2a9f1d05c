package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound        = errors.New("treatment plan not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPatientNotFound     = errors.New("patient not found")
)

const (
	StatusUnpaid  = "unpaid"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

// TreatmentPlan maps to the treatment_plan table. One plan per patient.
// Total is computed server-side from base cost and discount, floored at 0.
type TreatmentPlan struct {
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Title     string    `db:"title" json:"title"`
	BaseCost  float64   `db:"base_cost" json:"base_cost"`
	Discount  float64   `db:"discount" json:"discount"`
	Total     float64   `db:"total" json:"total"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction maps to the payment_transaction table.
type Transaction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Amount        float64   `db:"amount" json:"amount"`
	Method        string    `db:"method" json:"method"`
	ProofBlobID   *string   `db:"proof_blob_id" json:"proof_blob_id,omitempty"`
	ReceiptNumber string    `db:"receipt_number" json:"receipt_number"`
	Note          *string   `db:"note" json:"note,omitempty"`
	PaidAt        time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Financials is the derived payment summary for a patient.
type Financials struct {
	PatientID uuid.UUID `json:"patient_id"`
	PlanTotal float64   `json:"plan_total"`
	Paid      float64   `json:"paid"`
	Balance   float64   `json:"balance"`
	Overpaid  float64   `json:"overpaid"`
	Status    string    `json:"status"`
}

// Receipt is the JSON receipt document for one transaction.
type Receipt struct {
	ReceiptNumber string    `json:"receipt_number"`
	ClinicName    string    `json:"clinic_name"`
	PatientID     uuid.UUID `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	PaidAt        time.Time `json:"paid_at"`
}

// financialsFor derives the summary from a plan total and the paid sum.
// Overpayment surfaces as status paid with balance 0.
func financialsFor(patientID uuid.UUID, planTotal, paid float64) Financials {
	f := Financials{PatientID: patientID, PlanTotal: planTotal, Paid: paid}
	switch {
	case paid <= 0 && planTotal > 0:
		f.Status = StatusUnpaid
		f.Balance = planTotal
	case paid < planTotal:
		f.Status = StatusPartial
		f.Balance = planTotal - paid
	default:
		f.Status = StatusPaid
		f.Overpaid = paid - planTotal
	}
	return f
}
