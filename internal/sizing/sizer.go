// Package sizing converts portfolio value and a target allocation percentage
// into a whole-share quantity. Shared by every strategy variant.
package sizing

import "errors"

var (
	// ErrInvalidAllocation indicates an allocation percentage outside (0,100].
	ErrInvalidAllocation = errors.New("allocation percentage must be in (0,100]")

	// ErrMissingPortfolioValue indicates the portfolio value was absent or
	// non-positive; the caller drops the signal rather than failing the cycle.
	ErrMissingPortfolioValue = errors.New("portfolio value must be greater than 0")

	// ErrInvalidPrice indicates a non-positive price.
	ErrInvalidPrice = errors.New("price must be greater than 0")
)

// Shares returns the whole-share quantity funded by allocationPct percent of
// portfolioValue at the given price. Returns 0 when the allocation does not
// cover a single share, otherwise at least 1.
func Shares(price, portfolioValue, allocationPct float64) (int64, error) {
	if price <= 0 {
		return 0, ErrInvalidPrice
	}
	if portfolioValue <= 0 {
		return 0, ErrMissingPortfolioValue
	}
	if allocationPct <= 0 || allocationPct > 100 {
		return 0, ErrInvalidAllocation
	}

	allocation := portfolioValue * allocationPct / 100
	if allocation < price {
		return 0, nil
	}
	qty := int64(allocation / price)
	if qty < 1 {
		qty = 1
	}
	return qty, nil
}
