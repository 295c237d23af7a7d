// Package api implements Echo-based HTTP handlers over the usecase layer.
package api

import (
	models "TradeDesk/internal/domain/models"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StrategiesHandler serves strategy CRUD and enable/disable.
type StrategiesHandler struct {
	logger     *xlogger.Logger
	strategies *usecase.StrategyService
}

func NewStrategiesHandler(logger *xlogger.Logger, strategies *usecase.StrategyService) *StrategiesHandler {
	return &StrategiesHandler{logger: logger, strategies: strategies}
}

func (h *StrategiesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/strategies")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/enable", h.Enable)
	g.POST("/:id/disable", h.Disable)
}

func (h *StrategiesHandler) Create(c echo.Context) error {
	req := &models.CreateStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg, err := h.strategies.Create(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("strategy create error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.CreatedResponse(c, cfg)
}

func (h *StrategiesHandler) List(c echo.Context) error {
	configs := h.strategies.List(c.Request().Context())
	return xhttp.ListResponse(c, configs, int64(len(configs)))
}

func (h *StrategiesHandler) Get(c echo.Context) error {
	cfg, err := h.strategies.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *StrategiesHandler) Update(c echo.Context) error {
	req := &models.UpdateStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg, err := h.strategies.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		h.logger.Error("strategy update error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *StrategiesHandler) Delete(c echo.Context) error {
	if err := h.strategies.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.NoContentResponse(c)
}

func (h *StrategiesHandler) Enable(c echo.Context) error {
	return h.setEnabled(c, true)
}

func (h *StrategiesHandler) Disable(c echo.Context) error {
	return h.setEnabled(c, false)
}

func (h *StrategiesHandler) setEnabled(c echo.Context, enabled bool) error {
	cfg, err := h.strategies.SetEnabled(c.Request().Context(), c.Param("id"), enabled)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cfg)
}
