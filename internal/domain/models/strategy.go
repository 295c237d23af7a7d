package models

import "time"

// StrategyConfig is a stored strategy definition. The scheduler owns one live
// strategy instance per config; mutation happens only through the scheduler's
// add/remove/enable/disable operations.
type StrategyConfig struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Type             string             `json:"type"`
	Symbols          []string           `json:"symbols"`
	Parameters       map[string]float64 `json:"parameters"`
	IntervalSeconds  int                `json:"interval_seconds"`
	Enabled          bool               `json:"enabled"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Executions       int64              `json:"executions"`
	SignalsGenerated int64              `json:"signals_generated"`
	OrdersPlaced     int64              `json:"orders_placed"`
	LastExecution    *time.Time         `json:"last_execution,omitempty"`
}

// Clone returns a deep copy so callers can hand configs across goroutines.
func (c *StrategyConfig) Clone() *StrategyConfig {
	cp := *c
	cp.Symbols = append([]string(nil), c.Symbols...)
	cp.Parameters = make(map[string]float64, len(c.Parameters))
	for k, v := range c.Parameters {
		cp.Parameters[k] = v
	}
	if c.LastExecution != nil {
		t := *c.LastExecution
		cp.LastExecution = &t
	}
	return &cp
}
