package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/sidkm/sift/internal/contracts"
)

// Store holds every loaded catalog, keyed by strategy type and version.
// Read-only after LoadDir; the pipeline treats it as pure configuration.
type Store struct {
	catalogs map[contracts.StrategyType]map[string]*Catalog
	defaults map[contracts.StrategyType]string
}

// Load reads one YAML catalog file.
// KnownFields(true): a typo in a catalog fails loudly instead of silently
// dropping a variant.
func Load(path string) (*Catalog, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := Validate(&cat); err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}

	return &cat, data, nil
}

// LoadDir loads every *.yaml catalog under dir into a Store
func LoadDir(dir string) (*Store, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no strategy catalogs found in %s", dir)
	}
	sort.Strings(entries)

	store := NewStore()
	for _, path := range entries {
		cat, _, err := Load(path)
		if err != nil {
			return nil, err
		}
		if err := store.Add(cat); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return store, nil
}

// NewStore creates an empty Store; catalogs are registered with Add
func NewStore() *Store {
	return &Store{
		catalogs: make(map[contracts.StrategyType]map[string]*Catalog),
		defaults: make(map[contracts.StrategyType]string),
	}
}

// Add registers a catalog. A catalog with meta.strategy "intraday" serves
// both intraday directions; the resolver picks the variant suffix.
func (s *Store) Add(cat *Catalog) error {
	strategies, err := targetStrategies(cat.Meta.Strategy)
	if err != nil {
		return err
	}

	for _, st := range strategies {
		if s.catalogs[st] == nil {
			s.catalogs[st] = make(map[string]*Catalog)
		}
		if _, dup := s.catalogs[st][cat.Meta.Version]; dup {
			return fmt.Errorf("duplicate catalog %s/%s", st, cat.Meta.Version)
		}
		s.catalogs[st][cat.Meta.Version] = cat

		// First registered version becomes the default unless a later one
		// is explicitly flagged.
		if cat.Meta.Default || s.defaults[st] == "" {
			s.defaults[st] = cat.Meta.Version
		}
	}

	return nil
}

// Catalog returns the catalog for (strategy, version).
// An empty version selects the strategy's default version.
func (s *Store) Catalog(strategy contracts.StrategyType, version string) (*Catalog, error) {
	versions, ok := s.catalogs[strategy]
	if !ok {
		return nil, &ConfigError{Strategy: string(strategy), Version: version, Reason: "no catalog for strategy"}
	}

	if version == "" {
		version = s.defaults[strategy]
	}

	cat, ok := versions[version]
	if !ok {
		return nil, &ConfigError{Strategy: string(strategy), Version: version, Reason: "unknown catalog version"}
	}

	return cat, nil
}

// Versions lists the loaded versions for a strategy
func (s *Store) Versions(strategy contracts.StrategyType) []string {
	versions := make([]string, 0, len(s.catalogs[strategy]))
	for v := range s.catalogs[strategy] {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// Hash generates a SHA-256 hash of a catalog (canonical JSON), used to
// stamp scan snapshots with the exact configuration that produced them.
func Hash(cat *Catalog) (string, error) {
	jsonBytes, err := json.Marshal(cat)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// ConfigError reports a missing or unusable catalog. Fatal for the
// request that needed it, never for the process.
type ConfigError struct {
	Strategy string
	Version  string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("strategy %s: %s", e.Strategy, e.Reason)
	}
	return fmt.Sprintf("strategy %s (version %s): %s", e.Strategy, e.Version, e.Reason)
}

func targetStrategies(name string) ([]contracts.StrategyType, error) {
	if name == "intraday" {
		return []contracts.StrategyType{contracts.StrategyIntradayBuy, contracts.StrategyIntradaySell}, nil
	}

	st, err := contracts.ParseStrategy(name)
	if err != nil {
		return nil, err
	}
	return []contracts.StrategyType{st}, nil
}
