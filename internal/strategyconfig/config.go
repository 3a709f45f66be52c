package strategyconfig

// Catalog is the versioned variant catalog for one strategy type
type Catalog struct {
	Meta               Meta              `yaml:"meta" json:"meta"`
	Categories         []Category        `yaml:"categories" json:"categories"`
	DefaultCombination map[string]string `yaml:"default_combination" json:"default_combination"`
	Rerank             Rerank            `yaml:"rerank" json:"rerank"`
}

// Meta identifies a catalog
type Meta struct {
	Strategy    string `yaml:"strategy" json:"strategy"` // long_term | swing | short_term | intraday | custom
	Version     string `yaml:"version" json:"version"`
	Default     bool   `yaml:"default" json:"default"` // default version for its strategy
	Description string `yaml:"description" json:"description"`
}

// Category is one scoring dimension with its variant family.
// Catalog order is resolution order.
type Category struct {
	Name     string    `yaml:"name" json:"name"`
	Variants []Variant `yaml:"variants" json:"variants"`
}

// Variant is one named, weighted query recipe within a category.
// Immutable at runtime; selected by name to form a combination.
type Variant struct {
	Name            string  `yaml:"name" json:"name"`
	DisplayName     string  `yaml:"display_name" json:"display_name"`
	Description     string  `yaml:"description" json:"description"`
	Query           string  `yaml:"query" json:"query"`
	Weight          float64 `yaml:"weight" json:"weight"`
	ExpectedResults int     `yaml:"expected_results" json:"expected_results"`
}

// Rerank holds the secondary-scoring weights, distinct from the
// per-variant weights used during aggregation.
type Rerank struct {
	FundamentalWeight float64  `yaml:"fundamental_weight" json:"fundamental_weight"`
	TechnicalWeight   float64  `yaml:"technical_weight" json:"technical_weight"`
	QualityWeight     float64  `yaml:"quality_weight" json:"quality_weight"`
	SectorWeight      float64  `yaml:"sector_weight" json:"sector_weight"`
	SentimentWeight   float64  `yaml:"sentiment_weight" json:"sentiment_weight"`
	LiquidityWeight   float64  `yaml:"liquidity_weight" json:"liquidity_weight"`
	SectorBonus       float64  `yaml:"sector_bonus" json:"sector_bonus"`
	SentimentScale    float64  `yaml:"sentiment_scale" json:"sentiment_scale"`
	FavoredSectors    []string `yaml:"favored_sectors" json:"favored_sectors"`
	MinScoreDefault   float64  `yaml:"min_score_default" json:"min_score_default"`
}

// Category returns the named category, or nil
func (c *Catalog) Category(name string) *Category {
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return &c.Categories[i]
		}
	}
	return nil
}

// Variant returns the named variant, or nil
func (c *Category) Variant(name string) *Variant {
	for i := range c.Variants {
		if c.Variants[i].Name == name {
			return &c.Variants[i]
		}
	}
	return nil
}

// CategoryNames returns category names in catalog (resolution) order
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}
