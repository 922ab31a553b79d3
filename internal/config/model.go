package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/patrickwarner/admatcher/internal/models"
)

// ErrZeroWeights is returned when every configured weight is zero. Scoring
// would then reduce to default contributions only.
var ErrZeroWeights = errors.New("all feature weights are zero")

// ModelConfig carries the externally configured scoring constants.
type ModelConfig struct {
	HistoryFeatureTypes []models.FeatureType
	Defaults            map[models.FeatureType]decimal.Decimal
	Weights             map[models.FeatureType]decimal.Decimal
	// Pair1 is the closeness threshold for widening to the 2nd-ranked ad,
	// Pair2 for the 3rd.
	Pair1 decimal.Decimal
	Pair2 decimal.Decimal
}

// modelFile mirrors the YAML layout. Numbers are read as their literal text so
// they convert to decimals without passing through float64.
type modelFile struct {
	HistoryFeatureTypes []string          `yaml:"history_feature_types"`
	Defaults            map[string]string `yaml:"defaults"`
	Weights             map[string]string `yaml:"weights"`
	ScoreDistance       struct {
		Pair1 string `yaml:"pair1"`
		Pair2 string `yaml:"pair2"`
	} `yaml:"score_distance"`
}

// DefaultModelConfig returns the built-in model used when no file is configured.
func DefaultModelConfig() ModelConfig {
	defaults := make(map[models.FeatureType]decimal.Decimal, len(models.AllFeatureTypes))
	weights := make(map[models.FeatureType]decimal.Decimal, len(models.AllFeatureTypes))
	for _, ft := range models.AllFeatureTypes {
		defaults[ft] = decimal.Zero
		weights[ft] = decimal.NewFromInt(1)
	}
	history := make([]models.FeatureType, len(models.HistoryFeatureTypes))
	copy(history, models.HistoryFeatureTypes)
	return ModelConfig{
		HistoryFeatureTypes: history,
		Defaults:            defaults,
		Weights:             weights,
		Pair1:               decimal.RequireFromString("0.9"),
		Pair2:               decimal.RequireFromString("0.9"),
	}
}

// LoadModelConfig reads a YAML model file. Sections absent from the file keep
// their DefaultModelConfig values.
func LoadModelConfig(path string) (ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("read model config: %w", err)
	}
	return ParseModelConfig(data)
}

// ParseModelConfig parses YAML model configuration and validates it.
func ParseModelConfig(data []byte) (ModelConfig, error) {
	var f modelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ModelConfig{}, fmt.Errorf("parse model config: %w", err)
	}

	cfg := DefaultModelConfig()
	if len(f.HistoryFeatureTypes) > 0 {
		cfg.HistoryFeatureTypes = cfg.HistoryFeatureTypes[:0]
		for _, name := range f.HistoryFeatureTypes {
			ft, err := models.ParseFeatureType(name)
			if err != nil {
				return ModelConfig{}, fmt.Errorf("history_feature_types: %w", err)
			}
			cfg.HistoryFeatureTypes = append(cfg.HistoryFeatureTypes, ft)
		}
	}
	if err := mergeDecimals(cfg.Defaults, f.Defaults); err != nil {
		return ModelConfig{}, fmt.Errorf("defaults: %w", err)
	}
	if err := mergeDecimals(cfg.Weights, f.Weights); err != nil {
		return ModelConfig{}, fmt.Errorf("weights: %w", err)
	}
	if f.ScoreDistance.Pair1 != "" {
		d, err := decimal.NewFromString(f.ScoreDistance.Pair1)
		if err != nil {
			return ModelConfig{}, fmt.Errorf("score_distance.pair1: %w", err)
		}
		cfg.Pair1 = d
	}
	if f.ScoreDistance.Pair2 != "" {
		d, err := decimal.NewFromString(f.ScoreDistance.Pair2)
		if err != nil {
			return ModelConfig{}, fmt.Errorf("score_distance.pair2: %w", err)
		}
		cfg.Pair2 = d
	}

	if err := cfg.Validate(); err != nil {
		return ModelConfig{}, err
	}
	return cfg, nil
}

func mergeDecimals(dst map[models.FeatureType]decimal.Decimal, src map[string]string) error {
	for name, raw := range src {
		ft, err := models.ParseFeatureType(name)
		if err != nil {
			return err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", ft, err)
		}
		dst[ft] = d
	}
	return nil
}

// Validate rejects degenerate configurations: all-zero weights and
// thresholds outside (0, 1].
func (m ModelConfig) Validate() error {
	nonZero := false
	for _, w := range m.Weights {
		if !w.IsZero() {
			nonZero = true
			break
		}
	}
	if !nonZero {
		return ErrZeroWeights
	}
	one := decimal.NewFromInt(1)
	for name, t := range map[string]decimal.Decimal{"pair1": m.Pair1, "pair2": m.Pair2} {
		if !t.IsPositive() || t.GreaterThan(one) {
			return fmt.Errorf("score_distance.%s must be in (0, 1], got %s", name, t)
		}
	}
	return nil
}

// Default returns the contribution for a feature type with no matched values.
func (m ModelConfig) Default(ft models.FeatureType) decimal.Decimal {
	return m.Defaults[ft]
}

// Weight returns the multiplier applied to a matched value's statistic.
func (m ModelConfig) Weight(ft models.FeatureType) decimal.Decimal {
	return m.Weights[ft]
}
