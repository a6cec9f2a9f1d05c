package billing

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/blobstore"
	"github.com/epitofcode/Cosmetic-Star-CRM/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.PUT("/patients/:id/treatment-plan", h.SavePlan)
	g.GET("/patients/:id/treatment-plan", h.GetPlan)
	g.POST("/patients/:id/transactions", h.RecordPayment)
	g.GET("/patients/:id/transactions", h.ListTransactions)
	g.GET("/patients/:id/financials", h.Financials)
	g.GET("/transactions/:id/receipt", h.Receipt)
}

func (h *Handler) SavePlan(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var plan TreatmentPlan
	if err := c.Bind(&plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	plan.PatientID = patientID

	if err := h.svc.SavePlan(c.Request().Context(), &plan); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.svc.GetPlan(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) GetPlan(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	plan, err := h.svc.GetPlan(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, plan)
}

// paymentResponse pairs a recorded transaction with the summary computed in
// the same database transaction.
type paymentResponse struct {
	Transaction *Transaction `json:"transaction"`
	Financials  *Financials  `json:"financials"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	amount, err := strconv.ParseFloat(c.FormValue("amount"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be a number")
	}

	in := PaymentInput{
		PatientID: patientID,
		Amount:    amount,
		Method:    c.FormValue("method"),
	}
	if note := strings.TrimSpace(c.FormValue("note")); note != "" {
		in.Note = &note
	}

	if file, err := c.FormFile("proof"); err == nil {
		src, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
		}
		defer src.Close()
		in.Proof = src
		in.ProofFileName = file.Filename
		in.ProofContentType = file.Header.Get("Content-Type")
	}

	tx, fin, err := h.svc.RecordPayment(c.Request().Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, paymentResponse{Transaction: tx, Financials: fin})
}

func (h *Handler) ListTransactions(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)

	items, total, err := h.svc.ListTransactions(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Transaction{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Financials(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	fin, err := h.svc.Financials(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, fin)
}

func (h *Handler) Receipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid transaction id")
	}
	receipt, err := h.svc.Receipt(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, receipt)
}
