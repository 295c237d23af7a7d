package usecase

import (
	"context"

	models "TradeDesk/internal/domain/models"
	"TradeDesk/pkg/logger"
	"TradeDesk/pkg/queue"
)

// BacktestJobType tags queued backtest requests.
const BacktestJobType = "backtest.run"

// BacktestJob runs queued backtests in the background. Results land in the
// backtest store; callers poll the history endpoint for completion.
type BacktestJob struct {
	svc *BacktestService
	log *logger.Logger
}

func NewBacktestJob(svc *BacktestService, log *logger.Logger) *BacktestJob {
	return &BacktestJob{svc: svc, log: log}
}

func (j *BacktestJob) Name() string { return "backtest-runner" }
func (j *BacktestJob) Type() string { return BacktestJobType }

func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.BacktestRequest](payload)
	if err != nil {
		return err
	}
	if _, err := j.svc.Run(ctx, req); err != nil {
		j.log.Error("queued backtest failed",
			logger.String("strategy_type", req.StrategyType),
			logger.Strings("symbols", req.Symbols),
			logger.Error(err))
		return err
	}
	return nil
}
