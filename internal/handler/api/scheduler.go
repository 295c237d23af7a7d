package api

import (
	"context"

	"TradeDesk/internal/scheduler"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SchedulerHandler controls the execution loop. Start uses the handler's base
// context, not the request context, so loops outlive the HTTP call.
type SchedulerHandler struct {
	logger  *xlogger.Logger
	sched   *scheduler.Scheduler
	baseCtx context.Context
}

func NewSchedulerHandler(logger *xlogger.Logger, sched *scheduler.Scheduler, baseCtx context.Context) *SchedulerHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &SchedulerHandler{logger: logger, sched: sched, baseCtx: baseCtx}
}

func (h *SchedulerHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/scheduler")
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.GET("/status", h.Status)
	g.POST("/strategies/:id/run", h.RunOnce)
}

func (h *SchedulerHandler) Start(c echo.Context) error {
	h.sched.Start(h.baseCtx)
	h.logger.Info("scheduler started via api")
	return xhttp.SuccessResponse(c, h.sched.Status())
}

func (h *SchedulerHandler) Stop(c echo.Context) error {
	h.sched.Stop()
	h.logger.Info("scheduler stopped via api")
	return xhttp.SuccessResponse(c, h.sched.Status())
}

func (h *SchedulerHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.sched.Status())
}

// RunOnce triggers a single synchronous cycle for one strategy, regardless of
// its enabled flag. Useful for smoke-testing a config before enabling it.
func (h *SchedulerHandler) RunOnce(c echo.Context) error {
	id := c.Param("id")
	if err := h.sched.RunOnce(c.Request().Context(), id); err != nil {
		h.logger.Error("manual cycle error", xlogger.String("id", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	cfg, err := h.sched.Get(id)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cfg)
}
