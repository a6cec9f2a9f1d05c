package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/epitofcode/Cosmetic-Star-CRM/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/slots", h.ListSlots)
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	g.PUT("/bookings/:id", h.Update)
	g.DELETE("/bookings/:id", h.Cancel)
}

const dateLayout = "2006-01-02"

type bookingRequest struct {
	PatientID     uuid.UUID `json:"patient_id"`
	BookingDate   string    `json:"booking_date"`
	Slot          string    `json:"slot"`
	Status        string    `json:"status"`
	ProcedureNote *string   `json:"procedure_note"`
}

func (h *Handler) Create(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	date, err := time.Parse(dateLayout, req.BookingDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "booking_date must be YYYY-MM-DD")
	}

	b := &Booking{
		PatientID:     req.PatientID,
		BookingDate:   date,
		Slot:          req.Slot,
		Status:        req.Status,
		ProcedureNote: req.ProcedureNote,
	}
	if err := h.svc.Book(c.Request().Context(), b); err != nil {
		switch {
		case errors.Is(err, ErrContractRequired):
			return c.JSON(http.StatusConflict, map[string]string{"error": "contract_required"})
		case errors.Is(err, ErrSlotTaken):
			return c.JSON(http.StatusConflict, map[string]string{"error": "slot_taken"})
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var patientID *uuid.UUID
	if p := c.QueryParam("patient_id"); p != "" {
		pid, err := uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		patientID = &pid
	}

	var date *time.Time
	if d := c.QueryParam("date"); d != "" {
		parsed, err := time.Parse(dateLayout, d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		date = &parsed
	}

	items, total, err := h.svc.List(c.Request().Context(), patientID, date, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Booking{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status        string  `json:"status"`
		ProcedureNote *string `json:"procedure_note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	b, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.ProcedureNote)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case errors.Is(err, ErrInvalidTransition):
			return c.JSON(http.StatusConflict, map[string]string{"error": "invalid_status_transition"})
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case errors.Is(err, ErrInvalidTransition):
			return c.JSON(http.StatusConflict, map[string]string{"error": "invalid_status_transition"})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListSlots(c echo.Context) error {
	d := c.QueryParam("date")
	if d == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	date, err := time.Parse(dateLayout, d)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	slots, err := h.svc.ListSlots(c.Request().Context(), date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  d,
		"slots": slots,
	})
}
