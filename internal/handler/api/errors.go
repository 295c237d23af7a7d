package api

import (
	"errors"
	"net/http"

	"TradeDesk/internal/backtest"
	"TradeDesk/internal/broker/alpaca"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/scheduler"
	"TradeDesk/internal/strategy"
	xhttp "TradeDesk/pkg/http"
)

// toAppError maps domain sentinels onto HTTP statuses. Unknown errors fall
// through and render as 500 in AppErrorResponse.
func toAppError(err error) error {
	switch {
	case errors.Is(err, strategy.ErrUnknownType),
		errors.Is(err, strategy.ErrInvalidParameters),
		errors.Is(err, backtest.ErrBadRange),
		errors.Is(err, backtest.ErrEmptyData):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, scheduler.ErrStrategyNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrNoData):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, scheduler.ErrStrategyExists):
		return xhttp.NewAppError("ERR_CONFLICT", "", err.Error(), http.StatusConflict).WithError(err)
	case errors.Is(err, alpaca.ErrNotAuthenticated):
		return xhttp.UnauthorizedError(err.Error()).WithError(err)
	}
	return err
}
