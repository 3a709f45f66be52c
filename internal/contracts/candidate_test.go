package contracts

import "testing"

func TestNewCandidate(t *testing.T) {
	row := map[string]interface{}{
		"nsecode": "tatamotors",
		"name":    "Tata Motors Ltd",
		"close":   "1,024.50",
		"per_chg": 2.31,
		"volume":  float64(1_250_000),
		"sector":  "Automobile",
	}

	c, err := NewCandidate(row, "chartink")
	if err != nil {
		t.Fatalf("NewCandidate failed: %v", err)
	}

	if c.Symbol != "TATAMOTORS" {
		t.Errorf("expected symbol TATAMOTORS, got %s", c.Symbol)
	}
	if c.Close != 1024.50 {
		t.Errorf("expected close 1024.50, got %f", c.Close)
	}
	if c.PerChg != 2.31 {
		t.Errorf("expected per_chg 2.31, got %f", c.PerChg)
	}
	if c.Volume != 1_250_000 {
		t.Errorf("expected volume 1250000, got %d", c.Volume)
	}
	if c.Source != "chartink" {
		t.Errorf("expected source chartink, got %s", c.Source)
	}
}

func TestNewCandidateAlternateSpellings(t *testing.T) {
	// Same row under different key spellings must normalize identically
	rows := []map[string]interface{}{
		{"symbol": "INFY", "close": 1500.0},
		{"nsecode": "INFY", "price": 1500.0},
		{"code": "infy ", "ltp": 1500.0},
	}

	for i, row := range rows {
		c, err := NewCandidate(row, "chartink")
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if c.Symbol != "INFY" {
			t.Errorf("row %d: expected symbol INFY, got %s", i, c.Symbol)
		}
		if c.Close != 1500.0 {
			t.Errorf("row %d: expected close 1500, got %f", i, c.Close)
		}
	}
}

func TestNewCandidateMissingSymbol(t *testing.T) {
	row := map[string]interface{}{
		"close":  100.0,
		"volume": 500.0,
	}

	if _, err := NewCandidate(row, "chartink"); err == nil {
		t.Error("expected error for row without symbol")
	}
}

func TestNewCandidateNameFallsBackToSymbol(t *testing.T) {
	c, err := NewCandidate(map[string]interface{}{"symbol": "SBIN"}, "chartink")
	if err != nil {
		t.Fatalf("NewCandidate failed: %v", err)
	}
	if c.Name != "SBIN" {
		t.Errorf("expected name to fall back to symbol, got %s", c.Name)
	}
}

func TestRecommendationLabel(t *testing.T) {
	tests := []struct {
		score     float64
		threshold float64
		want      string
	}{
		{90, 65, LabelStrongBuy},
		{85, 65, LabelStrongBuy},
		{80, 65, LabelBuy},
		{70, 65, LabelModerateBuy},
		{65, 65, LabelModerateBuy},
		{55, 60, LabelHold},
		{30, 20, LabelModerateBuy},
		{40, 45, LabelAvoid},
	}

	for _, tc := range tests {
		if got := RecommendationLabel(tc.score, tc.threshold); got != tc.want {
			t.Errorf("RecommendationLabel(%.0f, %.0f) = %s, want %s", tc.score, tc.threshold, got, tc.want)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if _, err := ParseStrategy("swing"); err != nil {
		t.Errorf("expected swing to parse: %v", err)
	}
	if _, err := ParseStrategy("overnight"); err == nil {
		t.Error("expected unknown strategy to fail")
	}
}

func TestStrategyDirection(t *testing.T) {
	if StrategyIntradayBuy.Direction() != "buy" {
		t.Error("expected buy direction")
	}
	if StrategyIntradaySell.Direction() != "sell" {
		t.Error("expected sell direction")
	}
	if StrategySwing.Direction() != "" {
		t.Error("expected empty direction for swing")
	}
	if !StrategyIntradayBuy.IsIntraday() || StrategyLongTerm.IsIntraday() {
		t.Error("IsIntraday misclassified")
	}
}
