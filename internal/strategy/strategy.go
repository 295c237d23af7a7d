// Package strategy turns price-bar history into trade signals. Variants are
// dispatched through the Strategy interface and built by New from a type tag
// plus caller parameter overrides merged over struct-tag defaults.
package strategy

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"TradeDesk/internal/domain/models"
)

// Strategy type tags accepted by New.
const (
	TypeMomentumBreakout  = "momentum_breakout"
	TypeMeanReversionRSI  = "mean_reversion_rsi"
	TypeDualMovingAverage = "dual_ma"
	TypeBollingerBounce   = "bollinger_bounce"
)

var (
	// ErrUnknownType indicates an unsupported strategy type tag.
	ErrUnknownType = errors.New("unknown strategy type")

	// ErrInvalidParameters indicates parameters outside their documented ranges.
	ErrInvalidParameters = errors.New("invalid strategy parameters")
)

// Strategy produces trade signals from per-symbol bar history. Symbols with
// insufficient history are silently skipped; a buy that cannot be sized
// (portfolioValue <= 0 or allocation below one share) is dropped, never fatal.
type Strategy interface {
	Name() string
	Type() string
	Symbols() []string
	Parameters() map[string]float64
	Validate() error
	Analyze(history map[string][]models.PriceBar, portfolioValue float64) []models.Signal
}

var validate = validator.New()

// New builds a strategy instance of the given type with caller overrides
// merged over defaults. Parameters are validated before the instance is
// returned.
func New(strategyType string, symbols []string, params map[string]float64) (Strategy, error) {
	var s Strategy
	var err error
	switch strategyType {
	case TypeMomentumBreakout:
		s, err = NewMomentumBreakout(symbols, params)
	case TypeMeanReversionRSI:
		s, err = NewMeanReversionRSI(symbols, params)
	case TypeDualMovingAverage:
		s, err = NewDualMovingAverage(symbols, params)
	case TypeBollingerBounce:
		s, err = NewBollingerBounce(symbols, params)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, strategyType)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Types lists the supported strategy type tags.
func Types() []string {
	return []string{
		TypeMomentumBreakout,
		TypeMeanReversionRSI,
		TypeDualMovingAverage,
		TypeBollingerBounce,
	}
}

// override applies a caller-supplied parameter when present.
func override(dst *float64, params map[string]float64, key string) {
	if v, ok := params[key]; ok {
		*dst = v
	}
}

func validateStruct(p interface{}) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return nil
}

// closes extracts the close series from a bar sequence.
func closes(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// highs extracts the high series from a bar sequence.
func highs(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// volumes extracts the volume series from a bar sequence.
func volumes(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
