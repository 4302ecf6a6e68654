package ward

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	read.GET("/departments", h.ListDepartments)
	read.GET("/wards", h.ListWards)
	read.GET("/wards/:id", h.GetWard)
	read.GET("/wards/:id/beds", h.ListBeds)
	read.GET("/wards/:id/beds/available", h.ListAvailableBeds)
	read.GET("/wards/:id/summary", h.Summary)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/departments", h.CreateDepartment)
	write.POST("/wards", h.CreateWard)
}

type createDepartmentRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req createDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dept, err := h.registry.CreateDepartment(c.Request().Context(), req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, dept)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	depts, err := h.registry.ListDepartments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, depts)
}

type createWardRequest struct {
	Name         string    `json:"name"`
	DepartmentID uuid.UUID `json:"department_id"`
	BedCount     int       `json:"bed_count"`
}

func (h *Handler) CreateWard(c echo.Context) error {
	var req createWardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.registry.CreateWard(c.Request().Context(), req.Name, req.DepartmentID, req.BedCount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) ListWards(c echo.Context) error {
	wards, err := h.registry.ListWards(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, wards)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.registry.GetWard(c.Request().Context(), id)
	if err != nil {
		return wardError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ListBeds(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	beds, err := h.registry.ListBeds(c.Request().Context(), id)
	if err != nil {
		return wardError(err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) ListAvailableBeds(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	beds, err := h.registry.ListAvailableBeds(c.Request().Context(), id)
	if err != nil {
		return wardError(err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) Summary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	summary, err := h.registry.Summary(c.Request().Context(), id)
	if err != nil {
		return wardError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func wardError(err error) error {
	switch {
	case errors.Is(err, ErrWardNotFound), errors.Is(err, ErrBedNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBedOccupied):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
