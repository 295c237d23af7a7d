package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeDesk/internal/domain/repository"
)

// ClickHouseBacktestStore persists completed backtest runs with their full
// result payload for later retrieval.
type ClickHouseBacktestStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseBacktestStore(db *sql.DB, table string) repository.BacktestStore {
	if table == "" {
		table = "backtest_runs"
	}
	return &ClickHouseBacktestStore{db: db, table: table}
}

func (s *ClickHouseBacktestStore) Save(ctx context.Context, rec *repository.BacktestRecord) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (id, created_at, strategy_type, symbols, start_date, end_date, initial_capital, total_return_pct, sharpe_ratio, max_drawdown_pct, total_trades, result_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.CreatedAt,
		rec.StrategyType,
		strings.Join(rec.Symbols, ","),
		rec.StartDate,
		rec.EndDate,
		rec.InitialCapital,
		rec.TotalReturnPct,
		rec.SharpeRatio,
		rec.MaxDrawdownPct,
		rec.TotalTrades,
		rec.ResultJSON,
	)
	if err != nil {
		return fmt.Errorf("save backtest %s: %w", rec.ID, err)
	}
	return nil
}

func (s *ClickHouseBacktestStore) List(ctx context.Context, limit int) ([]*repository.BacktestRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	// Summary listing omits the heavy result payload.
	q := fmt.Sprintf(
		"SELECT id, created_at, strategy_type, symbols, start_date, end_date, initial_capital, total_return_pct, sharpe_ratio, max_drawdown_pct, total_trades FROM %s ORDER BY created_at DESC LIMIT ?",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list backtests: %w", err)
	}
	defer rows.Close()

	var records []*repository.BacktestRecord
	for rows.Next() {
		rec, err := scanBacktestRow(rows, false)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *ClickHouseBacktestStore) Get(ctx context.Context, id string) (*repository.BacktestRecord, error) {
	q := fmt.Sprintf(
		"SELECT id, created_at, strategy_type, symbols, start_date, end_date, initial_capital, total_return_pct, sharpe_ratio, max_drawdown_pct, total_trades, result_json FROM %s WHERE id = ? LIMIT 1",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get backtest %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: backtest %s", repository.ErrNotFound, id)
	}
	return scanBacktestRow(rows, true)
}

func scanBacktestRow(rows *sql.Rows, withResult bool) (*repository.BacktestRecord, error) {
	var rec repository.BacktestRecord
	var createdAt, start, end time.Time
	var symbols string

	dest := []interface{}{
		&rec.ID, &createdAt, &rec.StrategyType, &symbols, &start, &end,
		&rec.InitialCapital, &rec.TotalReturnPct, &rec.SharpeRatio,
		&rec.MaxDrawdownPct, &rec.TotalTrades,
	}
	if withResult {
		dest = append(dest, &rec.ResultJSON)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan backtest row: %w", err)
	}

	rec.CreatedAt = createdAt
	rec.StartDate = start
	rec.EndDate = end
	if symbols != "" {
		rec.Symbols = strings.Split(symbols, ",")
	}
	return &rec, nil
}
