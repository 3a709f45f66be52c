package strategyconfig

import (
	"fmt"
)

// Validate checks catalog constraints. A broken catalog is a deployment
// problem, so this fails fast on the first violation.
func Validate(cat *Catalog) error {
	// === Meta ===
	if cat.Meta.Strategy == "" {
		return fmt.Errorf("meta.strategy: required")
	}
	if cat.Meta.Version == "" {
		return fmt.Errorf("meta.version: required")
	}
	if _, err := targetStrategies(cat.Meta.Strategy); err != nil {
		return fmt.Errorf("meta.strategy: %w", err)
	}

	// === Categories ===
	if len(cat.Categories) == 0 {
		return fmt.Errorf("categories: required")
	}

	seenCat := make(map[string]bool)
	for _, category := range cat.Categories {
		if category.Name == "" {
			return fmt.Errorf("categories: name required")
		}
		if seenCat[category.Name] {
			return fmt.Errorf("categories.%s: duplicate category", category.Name)
		}
		seenCat[category.Name] = true

		if len(category.Variants) == 0 {
			return fmt.Errorf("categories.%s: at least one variant required", category.Name)
		}

		seenVar := make(map[string]bool)
		for _, v := range category.Variants {
			field := fmt.Sprintf("categories.%s.%s", category.Name, v.Name)
			if v.Name == "" {
				return fmt.Errorf("categories.%s: variant name required", category.Name)
			}
			if seenVar[v.Name] {
				return fmt.Errorf("%s: duplicate variant", field)
			}
			seenVar[v.Name] = true

			if v.Query == "" {
				return fmt.Errorf("%s: query required", field)
			}
			if v.Weight <= 0 || v.Weight > 1 {
				return fmt.Errorf("%s: weight must be in (0, 1], got %.4f", field, v.Weight)
			}
			if v.ExpectedResults <= 0 {
				return fmt.Errorf("%s: expected_results must be > 0", field)
			}
		}
	}

	// === Default combination ===
	if len(cat.DefaultCombination) == 0 {
		return fmt.Errorf("default_combination: required")
	}
	for category, variant := range cat.DefaultCombination {
		c := cat.Category(category)
		if c == nil {
			return fmt.Errorf("default_combination.%s: unknown category", category)
		}
		if !variantExists(cat, c, variant) {
			return fmt.Errorf("default_combination.%s: unknown variant %q", category, variant)
		}
	}

	// === Rerank weights ===
	r := cat.Rerank
	for field, w := range map[string]float64{
		"rerank.fundamental_weight": r.FundamentalWeight,
		"rerank.technical_weight":   r.TechnicalWeight,
		"rerank.quality_weight":     r.QualityWeight,
		"rerank.sector_weight":      r.SectorWeight,
		"rerank.sentiment_weight":   r.SentimentWeight,
		"rerank.liquidity_weight":   r.LiquidityWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s: must be >= 0, got %.4f", field, w)
		}
	}
	if r.MinScoreDefault < 0 || r.MinScoreDefault > 100 {
		return fmt.Errorf("rerank.min_score_default: must be in [0, 100], got %.2f", r.MinScoreDefault)
	}

	return nil
}

// variantExists checks a variant name against a category, covering both
// plain names and intraday direction-suffixed families.
func variantExists(cat *Catalog, c *Category, name string) bool {
	if c.Variant(name) != nil {
		return true
	}
	if cat.Meta.Strategy == "intraday" {
		return c.Variant(name+"_buy") != nil && c.Variant(name+"_sell") != nil
	}
	return false
}
