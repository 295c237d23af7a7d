package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeDesk/internal/domain/repository"
)

// ClickHouseOrderStore appends every executed order to an append-only
// history table.
type ClickHouseOrderStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseOrderStore(db *sql.DB, table string) repository.OrderStore {
	if table == "" {
		table = "trading_orders"
	}
	return &ClickHouseOrderStore{db: db, table: table}
}

func (s *ClickHouseOrderStore) Append(ctx context.Context, rec *repository.OrderRecord) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, strategy_id, symbol, side, qty, reason, order_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.StrategyID,
		rec.Symbol,
		rec.Side,
		rec.Qty,
		rec.Reason,
		rec.OrderID,
	)
	if err != nil {
		return fmt.Errorf("append order %s %s: %w", rec.Side, rec.Symbol, err)
	}
	return nil
}

func (s *ClickHouseOrderStore) History(ctx context.Context, symbol string, limit int) ([]*repository.OrderRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	q := fmt.Sprintf("SELECT ts, strategy_id, symbol, side, qty, reason, order_id FROM %s", s.table)
	args := []interface{}{}
	if symbol != "" {
		q += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	defer rows.Close()

	var records []*repository.OrderRecord
	for rows.Next() {
		var rec repository.OrderRecord
		var ts time.Time
		if err := rows.Scan(&ts, &rec.StrategyID, &rec.Symbol, &rec.Side, &rec.Qty, &rec.Reason, &rec.OrderID); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		rec.Timestamp = ts
		records = append(records, &rec)
	}
	return records, rows.Err()
}
