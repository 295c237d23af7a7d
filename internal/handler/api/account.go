package api

import (
	models "TradeDesk/internal/domain/models"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AccountHandler proxies brokerage account state and serves the local order
// history log.
type AccountHandler struct {
	logger  *xlogger.Logger
	account *usecase.AccountService
}

func NewAccountHandler(logger *xlogger.Logger, account *usecase.AccountService) *AccountHandler {
	return &AccountHandler{logger: logger, account: account}
}

func (h *AccountHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/account", h.Account)
	g.GET("/positions", h.Positions)
	g.GET("/orders", h.Orders)
	g.GET("/orders/history", h.OrderHistory)
	g.DELETE("/orders/:id", h.CancelOrder)
}

func (h *AccountHandler) Account(c echo.Context) error {
	acct, err := h.account.GetAccount(c.Request().Context())
	if err != nil {
		h.logger.Error("account fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, acct)
}

func (h *AccountHandler) Positions(c echo.Context) error {
	positions, err := h.account.GetPositions(c.Request().Context())
	if err != nil {
		h.logger.Error("positions fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, positions, int64(len(positions)))
}

func (h *AccountHandler) Orders(c echo.Context) error {
	orders, err := h.account.GetOrders(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		h.logger.Error("orders fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, orders, int64(len(orders)))
}

func (h *AccountHandler) OrderHistory(c echo.Context) error {
	req := &models.OrderHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	records, err := h.account.OrderHistory(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("order history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *AccountHandler) CancelOrder(c echo.Context) error {
	if err := h.account.CancelOrder(c.Request().Context(), c.Param("id")); err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.NoContentResponse(c)
}
