// Command backtest replays CSV price history through a strategy without
// touching a brokerage. Bars are daily OHLCV rows: timestamp (RFC3339 or
// 2006-01-02), open, high, low, close, volume.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"TradeDesk/internal/backtest"
	models "TradeDesk/internal/domain/models"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/util"
)

func main() {
	var (
		csvFiles     = flag.String("csv", "", "comma-separated SYMBOL=path.csv pairs")
		strategyType = flag.String("strategy", strategy.TypeMomentumBreakout, "strategy type")
		params       = flag.String("params", "", "comma-separated key=value parameter overrides")
		startStr     = flag.String("start", "", "start date (2006-01-02), defaults to first bar")
		endStr       = flag.String("end", "", "end date (2006-01-02), defaults to last bar")
		capital      = flag.Float64("capital", 100000, "initial capital")
		slippage     = flag.Float64("slippage", 0.05, "slippage percent per fill")
		asJSON       = flag.Bool("json", false, "print the full result as JSON")
	)
	flag.Parse()

	if *csvFiles == "" {
		log.Fatal("at least one -csv SYMBOL=path.csv is required")
	}

	history := make(map[string][]models.PriceBar)
	symbols := make([]string, 0)
	for _, pair := range strings.Split(*csvFiles, ",") {
		sym, path, ok := strings.Cut(pair, "=")
		if !ok {
			log.Fatalf("bad -csv entry %q, want SYMBOL=path.csv", pair)
		}
		bars, err := loadBars(path)
		if err != nil {
			log.Fatalf("load %s: %v", path, err)
		}
		history[sym] = bars
		symbols = append(symbols, sym)
	}

	overrides, err := parseParams(*params)
	if err != nil {
		log.Fatalf("bad -params: %v", err)
	}

	strat, err := strategy.New(*strategyType, symbols, overrides)
	if err != nil {
		log.Fatalf("strategy: %v", err)
	}

	start, end := dateRange(history, *startStr, *endStr)
	result, err := backtest.NewEngine(*capital, *slippage).Run(strat, history, start, end)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("encode result: %v", err)
		}
		return
	}
	printSummary(strat, result)
}

func loadBars(path string) ([]models.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for i, row := range rows {
		ts, ok := util.ParseDate(row[0])
		if !ok {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: bad timestamp %q", i+1, row[0])
		}
		vals := make([]float64, 5)
		for j := 1; j < 6; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i+1, j+1, err)
			}
			vals[j-1] = v
		}
		bars = append(bars, models.PriceBar{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return bars, nil
}

func parseParams(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad entry %q, want key=value", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}

func dateRange(history map[string][]models.PriceBar, startStr, endStr string) (time.Time, time.Time) {
	var start, end time.Time
	for _, bars := range history {
		if len(bars) == 0 {
			continue
		}
		if start.IsZero() || bars[0].Timestamp.Before(start) {
			start = bars[0].Timestamp
		}
		if last := bars[len(bars)-1].Timestamp; last.After(end) {
			end = last
		}
	}
	if t, ok := util.ParseDate(startStr); ok {
		start = t
	}
	if t, ok := util.ParseDate(endStr); ok {
		end = t
	}
	return start, end
}

func printSummary(strat strategy.Strategy, result *backtest.Result) {
	m := result.Metrics
	fmt.Printf("%s  %s .. %s\n", strat.Name(),
		result.Start.Format("2006-01-02"), result.End.Format("2006-01-02"))
	fmt.Printf("  initial capital    %12.2f\n", result.InitialCapital)
	fmt.Printf("  final equity       %12.2f\n", m.FinalEquity)
	fmt.Printf("  total return       %11.2f%%\n", m.TotalReturnPct)
	fmt.Printf("  buy & hold return  %11.2f%%\n", m.BuyAndHoldReturnPct)
	fmt.Printf("  max drawdown       %11.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("  sharpe ratio       %12.2f\n", m.SharpeRatio)
	fmt.Printf("  trades             %12d (%d wins / %d losses, %.1f%% win rate)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRatePct)
	fmt.Printf("  avg win / loss     %12.2f / %.2f\n", m.AvgWin, m.AvgLoss)
	fmt.Printf("  avg holding days   %12.1f\n", m.AvgHoldingDays)
}
