package admission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/ward"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	read.GET("/admissions", h.List)
	read.GET("/admissions/:id", h.Get)
	read.GET("/admissions/:id/transfers", h.ListTransfers)

	write := api.Group("", auth.RequireRole("admin", "doctor", "receptionist"))
	write.POST("/admissions", h.Admit)
	write.POST("/admissions/:id/transfer", h.TransferBed)
	write.POST("/admissions/:id/discharge", h.Discharge)

	api.DELETE("/admissions/:id", h.SoftDelete, auth.RequireRole("admin"))
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Admit(c.Request().Context(), req)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		adms, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(adms, total, pg.Limit, pg.Offset))
	}

	adms, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(adms, total, pg.Limit, pg.Offset))
}

type transferRequest struct {
	WardID    uuid.UUID `json:"ward_id"`
	BedNumber int       `json:"bed_number"`
}

func (h *Handler) TransferBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.TransferBed(c.Request().Context(), id, req.WardID, req.BedNumber)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.Discharge(c.Request().Context(), id)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListTransfers(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	transfers, err := h.svc.ListTransfers(c.Request().Context(), id)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, transfers)
}

func (h *Handler) SoftDelete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.SoftDelete(c.Request().Context(), id); err != nil {
		return admissionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// admissionError maps lifecycle errors per kind: validation to 400, state
// to 409, missing resources to 404, bed races to 409.
func admissionError(err error) error {
	switch {
	case errors.Is(err, ErrAdmissionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ward.ErrBedOccupied):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ward.ErrBedNotFound), errors.Is(err, ward.ErrWardNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidStateTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidBedSelection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
