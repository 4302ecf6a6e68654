package reporting

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reports := api.Group("/reports", auth.RequireRole("admin", "doctor", "billing_clerk"))
	reports.GET("/occupancy", h.Occupancy)
	reports.GET("/revenue", h.Revenue)
}

func (h *Handler) Occupancy(c echo.Context) error {
	snap, err := h.svc.Occupancy(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Revenue(c echo.Context) error {
	snap, err := h.svc.Revenue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}
