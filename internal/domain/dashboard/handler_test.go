package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type mockRepo struct {
	summary *Summary
	err     error
}

func (m *mockRepo) Summary(_ context.Context) (*Summary, error) {
	return m.summary, m.err
}

type mockCounters struct {
	patients  int
	contracts int
}

func (m *mockCounters) Count(_ context.Context) (int, error)       { return m.patients, nil }
func (m *mockCounters) CountSigned(_ context.Context) (int, error) { return m.contracts, nil }

func TestService_SummaryFillsCounts(t *testing.T) {
	counters := &mockCounters{patients: 12, contracts: 8}
	svc := NewService(&mockRepo{summary: &Summary{BookingsToday: 2}}, counters, counters)

	got, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.PatientCount != 12 {
		t.Errorf("expected patient count from the patient repository, got %d", got.PatientCount)
	}
	if got.SignedContracts != 8 {
		t.Errorf("expected contract count from the contract repository, got %d", got.SignedContracts)
	}
	if got.BookingsToday != 2 {
		t.Errorf("expected booking figure to pass through, got %d", got.BookingsToday)
	}
}

func TestHandler_Summary(t *testing.T) {
	want := &Summary{
		BookingsToday:      2,
		BookingsUpcoming:   5,
		RevenueCollected:   4200,
		TotalPlanned:       9000,
		OutstandingBalance: 4800,
		PlansByStatus:      map[string]int{"unpaid": 1, "partial": 4, "paid": 3},
	}
	counters := &mockCounters{patients: 12, contracts: 8}
	h := NewHandler(NewService(&mockRepo{summary: want}, counters, counters))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Summary(c); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PatientCount != 12 || got.RevenueCollected != want.RevenueCollected {
		t.Errorf("unexpected summary: %+v", got)
	}
	if got.PlansByStatus["partial"] != 4 {
		t.Errorf("unexpected plans_by_status: %v", got.PlansByStatus)
	}
}

func TestHandler_SummaryError(t *testing.T) {
	counters := &mockCounters{}
	h := NewHandler(NewService(&mockRepo{err: errors.New("db down")}, counters, counters))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Summary(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
}
