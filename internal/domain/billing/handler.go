package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the billing surface under an admission.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "billing_clerk", "receptionist"))
	read.GET("/admissions/:id/billing", h.GetLedger)
	read.GET("/admissions/:id/billing/payments", h.ListPayments)
	read.GET("/admissions/:id/billing/waivers", h.ListWaivers)

	write := api.Group("", auth.RequireRole("admin", "billing_clerk"))
	write.POST("/admissions/:id/billing/charges", h.ApplyCharge)
	write.POST("/admissions/:id/billing/discounts", h.ApplyDiscount)
	write.POST("/admissions/:id/billing/payments", h.RecordPayment)
	write.POST("/admissions/:id/billing/finalize", h.Finalize)
}

func admissionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid admission id")
	}
	return id, nil
}

func (h *Handler) GetLedger(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetByAdmission(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, l)
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) ApplyCharge(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.ApplyCharge(c.Request().Context(), id, req.Amount)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ApplyDiscount(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.ApplyDiscount(c.Request().Context(), id, req.Amount)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, l)
}

type paymentResponse struct {
	Ledger *Ledger `json:"ledger"`
	Excess int64   `json:"excess_refund_due"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, excess, err := h.svc.RecordPayment(c.Request().Context(), id, req.Amount)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, paymentResponse{Ledger: l, Excess: excess})
}

type finalizeRequest struct {
	CustomAmount *int64 `json:"custom_amount,omitempty"`
	RefundReason string `json:"refund_reason"`
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req finalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.Finalize(c.Request().Context(), id, req.CustomAmount, req.RefundReason)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) ListWaivers(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	waivers, err := h.svc.ListWaivers(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, waivers)
}

func billingError(err error) error {
	switch {
	case errors.Is(err, ErrLedgerNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNegativeAmount),
		errors.Is(err, ErrDiscountExceedsCharges),
		errors.Is(err, ErrCustomAmountExceedsRemaining),
		errors.Is(err, ErrRefundReasonRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyFinalized),
		errors.Is(err, ErrLedgerClosed),
		errors.Is(err, ErrLedgerDischarged):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
