package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/backtest"
	models "TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/logger"
)

type barsBroker struct {
	bars    map[string][]models.PriceBar
	barsErr error
}

func (b *barsBroker) GetAccount(ctx context.Context) (*models.Account, error) {
	return nil, errors.New("not implemented")
}

func (b *barsBroker) GetPositions(ctx context.Context) ([]*models.Position, error) {
	return nil, errors.New("not implemented")
}

func (b *barsBroker) GetBars(ctx context.Context, symbol string, tf repository.Timeframe, start, end time.Time) ([]models.PriceBar, error) {
	if b.barsErr != nil {
		return nil, b.barsErr
	}
	return b.bars[symbol], nil
}

func (b *barsBroker) SubmitOrder(ctx context.Context, req *repository.OrderRequest) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (b *barsBroker) GetOrders(ctx context.Context, status string) ([]*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (b *barsBroker) CancelOrder(ctx context.Context, orderID string) error {
	return errors.New("not implemented")
}

func (b *barsBroker) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return nil, errors.New("not implemented")
}

func (b *barsBroker) GetLatestTrade(ctx context.Context, symbol string) (*models.Trade, error) {
	return nil, errors.New("not implemented")
}

type memBacktestStore struct {
	saved []*repository.BacktestRecord
}

func (s *memBacktestStore) Save(ctx context.Context, rec *repository.BacktestRecord) error {
	s.saved = append(s.saved, rec)
	return nil
}

func (s *memBacktestStore) List(ctx context.Context, limit int) ([]*repository.BacktestRecord, error) {
	return s.saved, nil
}

func (s *memBacktestStore) Get(ctx context.Context, id string) (*repository.BacktestRecord, error) {
	for _, rec := range s.saved {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func flatBars(n int, price float64) []models.PriceBar {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			Timestamp: day.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

func backtestRequest() *models.BacktestRequest {
	return &models.BacktestRequest{
		StrategyType:   strategy.TypeDualMovingAverage,
		Symbols:        []string{"AAPL"},
		Start:          "2024-01-02",
		End:            "2024-04-30",
		InitialCapital: 10000,
		SlippagePct:    0,
	}
}

func TestRunProducesResultAndPersists(t *testing.T) {
	broker := &barsBroker{bars: map[string][]models.PriceBar{"AAPL": flatBars(80, 100)}}
	store := &memBacktestStore{}
	svc := NewBacktestService(broker, store, logger.Nop())

	result, err := svc.Run(context.Background(), backtestRequest())
	require.NoError(t, err)
	require.Equal(t, 10000.0, result.InitialCapital)
	require.NotEmpty(t, result.EquityCurve)

	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	require.NotEmpty(t, rec.ID)
	require.Equal(t, strategy.TypeDualMovingAverage, rec.StrategyType)
	require.Equal(t, int32(result.Metrics.TotalTrades), rec.TotalTrades)

	var replay backtest.Result
	require.NoError(t, json.Unmarshal([]byte(rec.ResultJSON), &replay))
	require.Equal(t, result.Metrics.FinalEquity, replay.Metrics.FinalEquity)
}

func TestRunRejectsUnparseableDates(t *testing.T) {
	svc := NewBacktestService(&barsBroker{}, nil, logger.Nop())

	req := backtestRequest()
	req.Start = "yesterday"
	_, err := svc.Run(context.Background(), req)
	require.ErrorIs(t, err, backtest.ErrBadRange)
}

func TestRunRejectsUnknownStrategyType(t *testing.T) {
	svc := NewBacktestService(&barsBroker{}, nil, logger.Nop())

	req := backtestRequest()
	req.StrategyType = "martingale"
	_, err := svc.Run(context.Background(), req)
	require.ErrorIs(t, err, strategy.ErrUnknownType)
}

func TestRunPropagatesBarFetchFailure(t *testing.T) {
	broker := &barsBroker{barsErr: repository.ErrNoData}
	svc := NewBacktestService(broker, nil, logger.Nop())

	_, err := svc.Run(context.Background(), backtestRequest())
	require.ErrorIs(t, err, repository.ErrNoData)
}

func TestRunWithoutStoreSkipsPersistence(t *testing.T) {
	broker := &barsBroker{bars: map[string][]models.PriceBar{"AAPL": flatBars(80, 100)}}
	svc := NewBacktestService(broker, nil, logger.Nop())

	result, err := svc.Run(context.Background(), backtestRequest())
	require.NoError(t, err)
	require.NotNil(t, result)

	records, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
