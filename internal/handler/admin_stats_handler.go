package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/stats のHTTP
type AdminStatsHandler struct {
	uc *usecase.StatsUsecase
}

// DI
func NewAdminStatsHandler(uc *usecase.StatsUsecase) *AdminStatsHandler {
	return &AdminStatsHandler{uc: uc}
}

func (h *AdminStatsHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/stats")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.dashboard)
}

func (h *AdminStatsHandler) dashboard(c echo.Context) error {
	out, err := h.uc.Dashboard(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
