package contracts

import (
	"fmt"
	"strconv"
	"strings"
)

// Candidate is one screener row normalized into the internal record shape.
// Candidates are ephemeral: rebuilt on every scoring request, never the
// system of record.
type Candidate struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	PerChg    float64 `json:"per_chg"`
	Sector    string  `json:"sector,omitempty"`
	QueryUsed string  `json:"query_used"` // category that sourced this row
	Source    string  `json:"source"`
}

// NewCandidate is the single normalization boundary for external rows.
// The screener returns loosely-shaped records with inconsistent field
// spellings (nsecode vs symbol, per_chg vs change); every known spelling
// is mapped here and nowhere else. Rows without a resolvable symbol are
// rejected.
func NewCandidate(row map[string]interface{}, source string) (Candidate, error) {
	c := Candidate{Source: source}

	c.Symbol = strings.ToUpper(strings.TrimSpace(firstString(row, "symbol", "nsecode", "code", "scrip")))
	if c.Symbol == "" {
		return Candidate{}, fmt.Errorf("row has no symbol: %v", rowKeys(row))
	}

	c.Name = firstString(row, "name", "stock_name", "company")
	if c.Name == "" {
		c.Name = c.Symbol
	}
	c.Sector = firstString(row, "sector", "industry")

	c.Close = firstFloat(row, "close", "bsecode_close", "price", "ltp")
	c.PerChg = firstFloat(row, "per_chg", "change", "pct_change")
	c.Volume = int64(firstFloat(row, "volume", "vol"))

	return c, nil
}

// firstString returns the first present key coerced to string
func firstString(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return strings.TrimSpace(s)
		case fmt.Stringer:
			return s.String()
		}
	}
	return ""
}

// firstFloat returns the first present key coerced to float64.
// The source emits numbers both as JSON numbers and as formatted strings
// ("1,234.50").
func firstFloat(row map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func rowKeys(row map[string]interface{}) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	return keys
}
