package repository

// SchemaStatements returns the idempotent DDL for the trading history
// tables, applied through the ClickHouse client's InitSchema at startup.
func SchemaStatements(database string) []string {
	if database == "" {
		database = "tradedesk"
	}
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		`CREATE TABLE IF NOT EXISTS ` + database + `.trading_orders (
			ts DateTime64(3),
			strategy_id String,
			symbol LowCardinality(String),
			side LowCardinality(String),
			qty Int64,
			reason String,
			order_id String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS ` + database + `.backtest_runs (
			id String,
			created_at DateTime64(3),
			strategy_type LowCardinality(String),
			symbols String,
			start_date DateTime,
			end_date DateTime,
			initial_capital Float64,
			total_return_pct Float64,
			sharpe_ratio Float64,
			max_drawdown_pct Float64,
			total_trades Int32,
			result_json String
		) ENGINE = MergeTree()
		ORDER BY (created_at, id)`,
	}
}
