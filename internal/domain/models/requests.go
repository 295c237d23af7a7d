package models

// HTTP request payloads for the API layer. Validation tags are enforced by
// pkg/http.ReadAndValidateRequest; defaults by creasty/defaults.

type CreateStrategyRequest struct {
	Name            string             `json:"name" validate:"required,min=1,max=64"`
	Type            string             `json:"type" validate:"required"`
	Symbols         []string           `json:"symbols" validate:"required,min=1,dive,required"`
	Parameters      map[string]float64 `json:"parameters"`
	IntervalSeconds int                `json:"interval_seconds" default:"60" validate:"min=1,max=86400"`
}

type UpdateStrategyRequest struct {
	Name            string             `json:"name" validate:"omitempty,min=1,max=64"`
	Symbols         []string           `json:"symbols" validate:"omitempty,min=1,dive,required"`
	Parameters      map[string]float64 `json:"parameters"`
	IntervalSeconds int                `json:"interval_seconds" validate:"omitempty,min=1,max=86400"`
}

type BacktestRequest struct {
	StrategyType   string             `json:"strategy_type" validate:"required"`
	Symbols        []string           `json:"symbols" validate:"required,min=1,dive,required"`
	Parameters     map[string]float64 `json:"parameters"`
	Start          string             `json:"start" validate:"required"`
	End            string             `json:"end" validate:"required"`
	InitialCapital float64            `json:"initial_capital" default:"100000" validate:"gt=0"`
	SlippagePct    float64            `json:"slippage_pct" default:"0.05" validate:"gte=0,lte=5"`
}

type OrderHistoryRequest struct {
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit" default:"100" validate:"min=1,max=1000"`
}
