package billing

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/blobstore"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/db"
)

// PatientNameFunc resolves a patient's display name for receipts. Wired to
// the patient repository at startup; tests substitute a stub.
type PatientNameFunc func(ctx context.Context, id uuid.UUID) (string, error)

type Service struct {
	repo        Repository
	blobs       blobstore.BlobStore
	runTx       db.TxRunner
	patientName PatientNameFunc
	clinicName  string
}

func NewService(repo Repository, blobs blobstore.BlobStore, runTx db.TxRunner, patientName PatientNameFunc, clinicName string) *Service {
	return &Service{repo: repo, blobs: blobs, runTx: runTx, patientName: patientName, clinicName: clinicName}
}

// SavePlan upserts the patient's treatment plan. The total is always
// recomputed here; a discount larger than the base cost floors it at 0.
func (s *Service) SavePlan(ctx context.Context, p *TreatmentPlan) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.BaseCost < 0 {
		return fmt.Errorf("base_cost must not be negative")
	}
	if p.Discount < 0 {
		return fmt.Errorf("discount must not be negative")
	}

	p.Total = p.BaseCost - p.Discount
	if p.Total < 0 {
		p.Total = 0
	}
	return s.repo.UpsertPlan(ctx, p)
}

func (s *Service) GetPlan(ctx context.Context, patientID uuid.UUID) (*TreatmentPlan, error) {
	return s.repo.GetPlan(ctx, patientID)
}

// receiptNumber generates "RCP-YYYYMMDD-<8 hex>".
func receiptNumber(now time.Time) string {
	id := uuid.New()
	return "RCP-" + now.Format("20060102") + "-" + hex.EncodeToString(id[:4])
}

// PaymentInput describes one installment payment to record.
type PaymentInput struct {
	PatientID uuid.UUID
	Amount    float64
	Method    string
	Note      *string
	// Optional proof-of-payment upload.
	ProofFileName    string
	ProofContentType string
	Proof            io.Reader
}

// RecordPayment inserts a payment and returns the transaction together with
// the post-payment financial summary. The plan row is locked for the
// duration of the transaction, so two concurrent payments cannot both read a
// stale running total.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (*Transaction, *Financials, error) {
	if in.PatientID == uuid.Nil {
		return nil, nil, fmt.Errorf("patient_id is required")
	}
	if in.Amount <= 0 {
		return nil, nil, fmt.Errorf("amount must be positive")
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, nil, fmt.Errorf("method is required")
	}

	var (
		tx  *Transaction
		fin Financials
	)
	err := s.runTx(ctx, func(ctx context.Context) error {
		plan, err := s.repo.LockPlan(ctx, in.PatientID)
		if err != nil {
			return err
		}

		var proofID *string
		if in.Proof != nil {
			meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
				FileName:    in.ProofFileName,
				ContentType: in.ProofContentType,
				PatientID:   in.PatientID.String(),
				Category:    "payment-proof",
			}, in.Proof)
			if err != nil {
				return fmt.Errorf("storing payment proof: %w", err)
			}
			proofID = &meta.ID
		}

		tx = &Transaction{
			PatientID:     in.PatientID,
			Amount:        in.Amount,
			Method:        strings.TrimSpace(in.Method),
			ProofBlobID:   proofID,
			ReceiptNumber: receiptNumber(time.Now()),
			Note:          in.Note,
		}
		if err := s.repo.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		paid, err := s.repo.SumPayments(ctx, in.PatientID)
		if err != nil {
			return err
		}
		fin = financialsFor(in.PatientID, plan.Total, paid)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return tx, &fin, nil
}

func (s *Service) ListTransactions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	return s.repo.ListTransactions(ctx, patientID, limit, offset)
}

// Financials computes the current payment summary for a patient.
func (s *Service) Financials(ctx context.Context, patientID uuid.UUID) (*Financials, error) {
	plan, err := s.repo.GetPlan(ctx, patientID)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.SumPayments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	fin := financialsFor(patientID, plan.Total, paid)
	return &fin, nil
}

// Receipt builds the receipt document for one transaction.
func (s *Service) Receipt(ctx context.Context, transactionID uuid.UUID) (*Receipt, error) {
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	name, err := s.patientName(ctx, tx.PatientID)
	if err != nil {
		return nil, fmt.Errorf("resolving patient: %w", err)
	}

	return &Receipt{
		ReceiptNumber: tx.ReceiptNumber,
		ClinicName:    s.clinicName,
		PatientID:     tx.PatientID,
		PatientName:   name,
		Amount:        tx.Amount,
		Method:        tx.Method,
		PaidAt:        tx.PaidAt,
	}, nil
}
