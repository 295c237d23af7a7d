package api

import (
	"net/http"

	models "TradeDesk/internal/domain/models"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/queue"

	"github.com/labstack/echo/v4"
)

// BacktestsHandler runs simulations and serves stored results. When a job
// queue is configured, long runs can be submitted asynchronously.
type BacktestsHandler struct {
	logger    *xlogger.Logger
	backtests *usecase.BacktestService
	jobs      queue.QueueService
}

func NewBacktestsHandler(logger *xlogger.Logger, backtests *usecase.BacktestService, jobs queue.QueueService) *BacktestsHandler {
	return &BacktestsHandler{logger: logger, backtests: backtests, jobs: jobs}
}

func (h *BacktestsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/backtests")
	g.POST("", h.Run)
	g.POST("/async", h.RunAsync)
	g.GET("", h.History)
	g.GET("/:id", h.Get)
}

func (h *BacktestsHandler) Run(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	result, err := h.backtests.Run(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("backtest error",
			xlogger.String("strategy_type", req.StrategyType),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, result)
}

// RunAsync enqueues a backtest for background execution and returns 202.
// The result shows up in the history once the worker finishes.
func (h *BacktestsHandler) RunAsync(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_QUEUE_DISABLED", "", "background execution is not configured", http.StatusServiceUnavailable))
	}

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.jobs.PublishMessage(c.Request().Context(), usecase.BacktestJobType, req); err != nil {
		h.logger.Error("backtest enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, req)
}

func (h *BacktestsHandler) History(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 50)
	records, err := h.backtests.History(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("backtest history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *BacktestsHandler) Get(c echo.Context) error {
	rec, err := h.backtests.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, rec)
}
