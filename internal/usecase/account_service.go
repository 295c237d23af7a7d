package usecase

import (
	"context"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/pkg/logger"
)

// AccountService exposes brokerage account state and the local order history.
type AccountService struct {
	broker repository.Broker
	orders repository.OrderStore
	log    *logger.Logger
}

func NewAccountService(broker repository.Broker, orders repository.OrderStore, log *logger.Logger) *AccountService {
	return &AccountService{broker: broker, orders: orders, log: log}
}

func (s *AccountService) GetAccount(ctx context.Context) (*models.Account, error) {
	return s.broker.GetAccount(ctx)
}

func (s *AccountService) GetPositions(ctx context.Context) ([]*models.Position, error) {
	return s.broker.GetPositions(ctx)
}

// GetOrders lists brokerage orders by status ("open", "closed", "all").
func (s *AccountService) GetOrders(ctx context.Context, status string) ([]*models.Order, error) {
	return s.broker.GetOrders(ctx, status)
}

func (s *AccountService) CancelOrder(ctx context.Context, orderID string) error {
	if err := s.broker.CancelOrder(ctx, orderID); err != nil {
		return err
	}
	s.log.Info("order cancelled", logger.String("order_id", orderID))
	return nil
}

// OrderHistory returns locally recorded submissions, newest first. Without a
// configured store there is no history to return.
func (s *AccountService) OrderHistory(ctx context.Context, symbol string, limit int) ([]*repository.OrderRecord, error) {
	if s.orders == nil {
		return []*repository.OrderRecord{}, nil
	}
	return s.orders.History(ctx, symbol, limit)
}
