package strategyconfig

import (
	"fmt"
	"strings"

	"github.com/sidkm/sift/internal/contracts"
)

// ValidationError is one problem with a submitted combination
type ValidationError struct {
	Category string
	Message  string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every problem found in a combination so a
// caller sees all of them at once instead of fixing one per round trip.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// Messages returns the individual error strings for API payloads
func (e ValidationErrors) Messages() []string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return msgs
}

// Resolve turns (strategy, version, combination) into a concrete weighted
// query list. A nil or empty combination selects the catalog's default.
// Pure function over loaded configuration: same inputs, same output,
// same order (catalog category order).
func (s *Store) Resolve(strategy contracts.StrategyType, version string, comb contracts.Combination) ([]contracts.ResolvedQuery, error) {
	cat, err := s.Catalog(strategy, version)
	if err != nil {
		return nil, err
	}

	if len(comb) == 0 {
		comb = cat.DefaultCombination
	}

	suffix := ""
	if strategy.IsIntraday() {
		suffix = "_" + strategy.Direction()
	}

	var errs ValidationErrors
	resolved := make([]contracts.ResolvedQuery, 0, len(comb))

	// Catalog category order keeps resolution deterministic; the
	// combination itself is an unordered map.
	for _, category := range cat.Categories {
		name, ok := comb[category.Name]
		if !ok {
			continue
		}

		variant := category.Variant(name + suffix)
		if variant == nil && suffix != "" {
			// Allow callers to pass the already-suffixed name
			variant = category.Variant(name)
		}
		if variant == nil {
			errs = append(errs, ValidationError{
				Category: category.Name,
				Message:  fmt.Sprintf("Invalid %s variant: %s", category.Name, name),
			})
			continue
		}

		resolved = append(resolved, contracts.ResolvedQuery{
			Category:        category.Name,
			Query:           variant.Query,
			Weight:          variant.Weight,
			ExpectedResults: variant.ExpectedResults,
			DisplayName:     variant.DisplayName,
		})
	}

	// Categories referenced by the caller that the catalog doesn't have
	for category := range comb {
		if cat.Category(category) == nil {
			errs = append(errs, ValidationError{
				Category: category,
				Message:  fmt.Sprintf("Unknown category: %s", category),
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return resolved, nil
}

// CombinationPreview summarizes what a combination would fetch, for the
// validate endpoint. No fetches are executed.
type CombinationPreview struct {
	Valid           bool               `json:"valid"`
	Errors          []string           `json:"errors,omitempty"`
	ExpectedResults int                `json:"expected_results"`
	Weights         map[string]float64 `json:"weights,omitempty"`
	WeightSum       float64            `json:"weight_sum"`
	Categories      []string           `json:"categories,omitempty"`
}

// Preview validates a combination and reports its expected metrics
func (s *Store) Preview(strategy contracts.StrategyType, version string, comb contracts.Combination) (*CombinationPreview, error) {
	resolved, err := s.Resolve(strategy, version, comb)
	if err != nil {
		var verrs ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			return &CombinationPreview{Valid: false, Errors: verrs.Messages()}, nil
		}
		return nil, err
	}

	preview := &CombinationPreview{
		Valid:   true,
		Weights: make(map[string]float64, len(resolved)),
	}
	for _, q := range resolved {
		preview.ExpectedResults += q.ExpectedResults
		preview.Weights[q.Category] = q.Weight
		preview.WeightSum += q.Weight
		preview.Categories = append(preview.Categories, q.Category)
	}

	return preview, nil
}

func asValidationErrors(err error, target *ValidationErrors) bool {
	if verrs, ok := err.(ValidationErrors); ok {
		*target = verrs
		return true
	}
	return false
}
