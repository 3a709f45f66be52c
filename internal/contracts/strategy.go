package contracts

import "fmt"

// StrategyType identifies a scanning strategy / dashboard page
type StrategyType string

const (
	StrategyLongTerm     StrategyType = "long_term"
	StrategySwing        StrategyType = "swing"
	StrategyShortTerm    StrategyType = "short_term"
	StrategyIntradayBuy  StrategyType = "intraday_buy"
	StrategyIntradaySell StrategyType = "intraday_sell"
	StrategyCustom       StrategyType = "custom"
)

// AllStrategies lists every supported strategy type
var AllStrategies = []StrategyType{
	StrategyLongTerm,
	StrategySwing,
	StrategyShortTerm,
	StrategyIntradayBuy,
	StrategyIntradaySell,
	StrategyCustom,
}

// ParseStrategy validates a strategy name from an API caller
func ParseStrategy(s string) (StrategyType, error) {
	for _, st := range AllStrategies {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown strategy type: %q", s)
}

// IsIntraday reports whether the strategy uses the intraday category set
func (s StrategyType) IsIntraday() bool {
	return s == StrategyIntradayBuy || s == StrategyIntradaySell
}

// Direction returns "buy" or "sell" for intraday strategies, "" otherwise.
// Intraday variant families are suffixed by direction in the catalog.
func (s StrategyType) Direction() string {
	switch s {
	case StrategyIntradayBuy:
		return "buy"
	case StrategyIntradaySell:
		return "sell"
	default:
		return ""
	}
}

// Combination selects one variant per category, either the configured
// default for a strategy or supplied by the caller.
type Combination map[string]string

// ResolvedQuery is one concrete weighted query produced by the resolver
type ResolvedQuery struct {
	Category        string  `json:"category"`
	Query           string  `json:"query"`
	Weight          float64 `json:"weight"`
	ExpectedResults int     `json:"expected_results"`
	DisplayName     string  `json:"display_name"`
}
