package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/blobstore"
)

// -- Mock Repository --

type mockRepo struct {
	plans        map[uuid.UUID]*TreatmentPlan
	transactions map[uuid.UUID]*Transaction
	patients     map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		plans:        make(map[uuid.UUID]*TreatmentPlan),
		transactions: make(map[uuid.UUID]*Transaction),
		patients:     make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) UpsertPlan(_ context.Context, p *TreatmentPlan) error {
	if !m.patients[p.PatientID] {
		return ErrPatientNotFound
	}
	now := time.Now()
	if existing, ok := m.plans[p.PatientID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.plans[p.PatientID] = p
	return nil
}

func (m *mockRepo) GetPlan(_ context.Context, patientID uuid.UUID) (*TreatmentPlan, error) {
	p, ok := m.plans[patientID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

func (m *mockRepo) LockPlan(ctx context.Context, patientID uuid.UUID) (*TreatmentPlan, error) {
	return m.GetPlan(ctx, patientID)
}

func (m *mockRepo) CreateTransaction(_ context.Context, t *Transaction) error {
	if !m.patients[t.PatientID] {
		return ErrPatientNotFound
	}
	t.ID = uuid.New()
	t.PaidAt = time.Now()
	t.CreatedAt = t.PaidAt
	m.transactions[t.ID] = t
	return nil
}

func (m *mockRepo) GetTransaction(_ context.Context, id uuid.UUID) (*Transaction, error) {
	t, ok := m.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

func (m *mockRepo) ListTransactions(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var result []*Transaction
	for _, t := range m.transactions {
		if t.PatientID == patientID {
			result = append(result, t)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) SumPayments(_ context.Context, patientID uuid.UUID) (float64, error) {
	var sum float64
	for _, t := range m.transactions {
		if t.PatientID == patientID {
			sum += t.Amount
		}
	}
	return sum, nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	name := func(_ context.Context, _ uuid.UUID) (string, error) { return "Ana Lima", nil }
	svc := NewService(repo, blobstore.NewInMemoryBlobStore(), passthroughTx, name, "Cosmetic Star Clinic")
	return svc, repo
}

func seedPatientWithPlan(t *testing.T, svc *Service, repo *mockRepo, base, discount float64) uuid.UUID {
	t.Helper()
	patientID := uuid.New()
	repo.patients[patientID] = true
	err := svc.SavePlan(context.Background(), &TreatmentPlan{
		PatientID: patientID,
		Title:     "Rhinoplasty",
		BaseCost:  base,
		Discount:  discount,
	})
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	return patientID
}

// -- Tests --

func TestSavePlan_ComputesTotal(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 1000, 200)

	plan, err := svc.GetPlan(context.Background(), patientID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan.Total != 800 {
		t.Errorf("expected total 800, got %v", plan.Total)
	}
}

func TestSavePlan_DiscountExceedsBaseFloorsAtZero(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 500, 900)

	plan, err := svc.GetPlan(context.Background(), patientID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan.Total != 0 {
		t.Errorf("expected total floored at 0, got %v", plan.Total)
	}

	fin, err := svc.Financials(context.Background(), patientID)
	if err != nil {
		t.Fatalf("Financials: %v", err)
	}
	if fin.Status != StatusPaid {
		t.Errorf("expected zero-total plan to be paid, got %q", fin.Status)
	}
}

func TestSavePlan_Validation(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	repo.patients[patientID] = true

	cases := []*TreatmentPlan{
		{PatientID: patientID, BaseCost: 100},
		{PatientID: patientID, Title: "Plan", BaseCost: -1},
		{PatientID: patientID, Title: "Plan", BaseCost: 100, Discount: -5},
	}
	for i, p := range cases {
		if err := svc.SavePlan(context.Background(), p); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestRecordPayment_SumMatchesTransactions(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 1000, 0)

	amounts := []float64{250, 250, 100}
	var lastFin *Financials
	for _, a := range amounts {
		_, fin, err := svc.RecordPayment(context.Background(), PaymentInput{
			PatientID: patientID, Amount: a, Method: "card",
		})
		if err != nil {
			t.Fatalf("RecordPayment(%v): %v", a, err)
		}
		lastFin = fin
	}

	if lastFin.Paid != 600 {
		t.Errorf("expected paid 600, got %v", lastFin.Paid)
	}
	if lastFin.Balance != 400 {
		t.Errorf("expected balance 400, got %v", lastFin.Balance)
	}
	if lastFin.Status != StatusPartial {
		t.Errorf("expected partial status, got %q", lastFin.Status)
	}

	// Summary recomputed from the ledger must agree.
	fin, err := svc.Financials(context.Background(), patientID)
	if err != nil {
		t.Fatalf("Financials: %v", err)
	}
	if fin.Paid != lastFin.Paid || fin.Balance != lastFin.Balance {
		t.Errorf("summary mismatch: %+v vs %+v", fin, lastFin)
	}
}

func TestRecordPayment_Overpayment(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 300, 0)

	_, fin, err := svc.RecordPayment(context.Background(), PaymentInput{
		PatientID: patientID, Amount: 500, Method: "cash",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if fin.Status != StatusPaid {
		t.Errorf("expected paid status, got %q", fin.Status)
	}
	if fin.Balance != 0 {
		t.Errorf("expected balance 0 on overpayment, got %v", fin.Balance)
	}
	if fin.Overpaid != 200 {
		t.Errorf("expected overpaid 200, got %v", fin.Overpaid)
	}
}

func TestRecordPayment_NoPlan(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	repo.patients[patientID] = true

	_, _, err := svc.RecordPayment(context.Background(), PaymentInput{
		PatientID: patientID, Amount: 100, Method: "cash",
	})
	if err != ErrPlanNotFound {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestRecordPayment_Validation(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 100, 0)

	if _, _, err := svc.RecordPayment(context.Background(), PaymentInput{PatientID: patientID, Amount: 0, Method: "cash"}); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, _, err := svc.RecordPayment(context.Background(), PaymentInput{PatientID: patientID, Amount: -10, Method: "cash"}); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, _, err := svc.RecordPayment(context.Background(), PaymentInput{PatientID: patientID, Amount: 10}); err == nil {
		t.Error("expected error for missing method")
	}
}

func TestRecordPayment_WithProof(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 100, 0)

	tx, _, err := svc.RecordPayment(context.Background(), PaymentInput{
		PatientID:        patientID,
		Amount:           50,
		Method:           "transfer",
		Proof:            strings.NewReader("receipt-image"),
		ProofFileName:    "proof.jpg",
		ProofContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if tx.ProofBlobID == nil || *tx.ProofBlobID == "" {
		t.Error("expected proof blob reference")
	}
}

func TestReceiptNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	n := receiptNumber(now)
	if !strings.HasPrefix(n, "RCP-20260829-") {
		t.Fatalf("unexpected prefix: %s", n)
	}
	suffix := strings.TrimPrefix(n, "RCP-20260829-")
	if len(suffix) != 8 {
		t.Errorf("expected 8 hex chars, got %q", suffix)
	}
}

func TestReceipt_Document(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 100, 0)

	tx, _, err := svc.RecordPayment(context.Background(), PaymentInput{
		PatientID: patientID, Amount: 100, Method: "card",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	receipt, err := svc.Receipt(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	if receipt.ReceiptNumber != tx.ReceiptNumber {
		t.Errorf("receipt number mismatch: %s vs %s", receipt.ReceiptNumber, tx.ReceiptNumber)
	}
	if receipt.ClinicName != "Cosmetic Star Clinic" {
		t.Errorf("unexpected clinic name: %q", receipt.ClinicName)
	}
	if receipt.PatientName != "Ana Lima" {
		t.Errorf("unexpected patient name: %q", receipt.PatientName)
	}
	if receipt.Amount != 100 {
		t.Errorf("unexpected amount: %v", receipt.Amount)
	}
}

func TestFinancials_Unpaid(t *testing.T) {
	svc, repo := newTestService()
	patientID := seedPatientWithPlan(t, svc, repo, 100, 0)

	fin, err := svc.Financials(context.Background(), patientID)
	if err != nil {
		t.Fatalf("Financials: %v", err)
	}
	if fin.Status != StatusUnpaid || fin.Balance != 100 {
		t.Errorf("unexpected summary: %+v", fin)
	}
}
