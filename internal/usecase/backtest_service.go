package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeDesk/internal/backtest"
	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/logger"
	"TradeDesk/pkg/util"
)

// BacktestService runs strategy simulations over historical bars and keeps a
// record of completed runs when a store is configured.
type BacktestService struct {
	broker repository.Broker
	store  repository.BacktestStore
	log    *logger.Logger
}

func NewBacktestService(broker repository.Broker, store repository.BacktestStore, log *logger.Logger) *BacktestService {
	return &BacktestService{broker: broker, store: store, log: log}
}

// Run fetches daily history for every configured symbol, replays the strategy
// through the simulator, and persists the result.
func (s *BacktestService) Run(ctx context.Context, req *models.BacktestRequest) (*backtest.Result, error) {
	start, ok := util.ParseDate(req.Start)
	if !ok {
		return nil, fmt.Errorf("%w: start %q", backtest.ErrBadRange, req.Start)
	}
	end, ok := util.ParseDate(req.End)
	if !ok {
		return nil, fmt.Errorf("%w: end %q", backtest.ErrBadRange, req.End)
	}

	strat, err := strategy.New(req.StrategyType, req.Symbols, req.Parameters)
	if err != nil {
		return nil, err
	}

	history := make(map[string][]models.PriceBar, len(req.Symbols))
	for _, symbol := range req.Symbols {
		bars, err := s.broker.GetBars(ctx, symbol, repository.TF1Day, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
		}
		history[symbol] = bars
	}

	began := time.Now()
	result, err := backtest.NewEngine(req.InitialCapital, req.SlippagePct).Run(strat, history, start, end)
	if err != nil {
		return nil, err
	}
	s.log.Info("backtest complete",
		logger.String("strategy_type", req.StrategyType),
		logger.Strings("symbols", req.Symbols),
		logger.Int("trades", result.Metrics.TotalTrades),
		logger.Float64("return_pct", result.Metrics.TotalReturnPct),
		logger.Duration("took", time.Since(began)))

	s.persist(ctx, req, result)
	return result, nil
}

// History lists persisted runs, newest first, without the full result payload.
func (s *BacktestService) History(ctx context.Context, limit int) ([]*repository.BacktestRecord, error) {
	if s.store == nil {
		return []*repository.BacktestRecord{}, nil
	}
	return s.store.List(ctx, limit)
}

// Get returns one persisted run including the full result payload.
func (s *BacktestService) Get(ctx context.Context, id string) (*repository.BacktestRecord, error) {
	if s.store == nil {
		return nil, repository.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// persist is best effort: a storage failure never fails the run itself.
func (s *BacktestService) persist(ctx context.Context, req *models.BacktestRequest, result *backtest.Result) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Error("backtest result not serializable", logger.Error(err))
		return
	}
	rec := &repository.BacktestRecord{
		ID:             newID("bt"),
		CreatedAt:      time.Now().UTC(),
		StrategyType:   req.StrategyType,
		Symbols:        req.Symbols,
		StartDate:      result.Start,
		EndDate:        result.End,
		InitialCapital: req.InitialCapital,
		TotalReturnPct: result.Metrics.TotalReturnPct,
		SharpeRatio:    result.Metrics.SharpeRatio,
		MaxDrawdownPct: result.Metrics.MaxDrawdownPct,
		TotalTrades:    int32(result.Metrics.TotalTrades),
		ResultJSON:     string(payload),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.log.Error("backtest result not persisted", logger.String("id", rec.ID), logger.Error(err))
	}
}
