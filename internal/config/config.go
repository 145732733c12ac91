package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/StructureScanner/internal/engine"
	"github.com/Alias1177/StructureScanner/internal/scoring"
	"github.com/Alias1177/StructureScanner/internal/strategy"
	"github.com/Alias1177/StructureScanner/models"
)

// ErrInvalidConfig marks parameters the engine cannot run with
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration
type Config struct {
	Engine engine.Config

	WeightsFile        string  `env:"SCORING_WEIGHTS_FILE"`
	LogLevel           string  `env:"LOG_LEVEL" envDefault:"info"`
	BatchWorkers       int     `env:"BATCH_WORKERS" envDefault:"4"`
	EnableBacktest     bool    `env:"ENABLE_BACKTEST" envDefault:"false"`
	BacktestHorizon    int     `env:"BACKTEST_HORIZON" envDefault:"48"`
	BacktestConfidence float64 `env:"BACKTEST_MIN_CONFIDENCE" envDefault:"50"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
	return FromEnv()
}

// FromEnv reads the current environment over the engine defaults
func FromEnv() (*Config, error) {
	cfg := Config{Engine: engine.DefaultConfig()}
	e := &cfg.Engine

	e.SwingLookback = getEnvIntWithDefault("SWING_LOOKBACK", e.SwingLookback)
	e.HTFMultiplier = getEnvIntWithDefault("HTF_MULTIPLIER", e.HTFMultiplier)
	e.EmitWindow = getEnvIntWithDefault("EMIT_WINDOW", e.EmitWindow)
	e.AssertPreconditions = getEnvBoolWithDefault("ASSERT_PRECONDITIONS", e.AssertPreconditions)

	e.Indicators.ATRPeriod = getEnvIntWithDefault("ATR_PERIOD", e.Indicators.ATRPeriod)
	e.Indicators.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", e.Indicators.RSIPeriod)
	e.Indicators.BBPeriod = getEnvIntWithDefault("BB_PERIOD", e.Indicators.BBPeriod)
	e.Indicators.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", e.Indicators.BBStdDev)
	e.Indicators.ADXPeriod = getEnvIntWithDefault("ADX_PERIOD", e.Indicators.ADXPeriod)
	e.Indicators.EMAFast = getEnvIntWithDefault("EMA_FAST_PERIOD", e.Indicators.EMAFast)
	e.Indicators.EMAMid = getEnvIntWithDefault("EMA_MID_PERIOD", e.Indicators.EMAMid)
	e.Indicators.EMASlow = getEnvIntWithDefault("EMA_SLOW_PERIOD", e.Indicators.EMASlow)

	e.Geometry.PremiumRatio = getEnvFloatWithDefault("ZONE_PREMIUM_RATIO", e.Geometry.PremiumRatio)
	e.Geometry.DiscountRatio = getEnvFloatWithDefault("ZONE_DISCOUNT_RATIO", e.Geometry.DiscountRatio)
	e.Geometry.EqualThresholdATR = getEnvFloatWithDefault("EQUAL_LEVEL_ATR", e.Geometry.EqualThresholdATR)

	e.Imbalance.DisplacementATR = getEnvFloatWithDefault("DISPLACEMENT_ATR", e.Imbalance.DisplacementATR)
	e.Imbalance.MaxZoneAge = getEnvIntWithDefault("MAX_ZONE_AGE", e.Imbalance.MaxZoneAge)
	e.Imbalance.HighVolatilityATR = getEnvFloatWithDefault("OB_HIGH_VOLATILITY_ATR", e.Imbalance.HighVolatilityATR)
	e.Imbalance.SwapHighVolatilityExtremes = getEnvBoolWithDefault("OB_SWAP_HIGH_VOLATILITY", e.Imbalance.SwapHighVolatilityExtremes)
	e.Imbalance.MinGapATR = getEnvFloatWithDefault("FVG_MIN_GAP_ATR", e.Imbalance.MinGapATR)
	e.Imbalance.SweepATR = getEnvFloatWithDefault("SWEEP_ATR", e.Imbalance.SweepATR)

	e.Strategy.RewardRatio = getEnvFloatWithDefault("REWARD_RATIO", e.Strategy.RewardRatio)
	e.Strategy.StopATR = getEnvFloatWithDefault("STOP_ATR", e.Strategy.StopATR)

	ids, err := parseStrategies(getEnvWithDefault("STRATEGIES", ""))
	if err != nil {
		return nil, err
	}
	e.Strategies = ids

	cfg.WeightsFile = getEnvWithDefault("SCORING_WEIGHTS_FILE", "")
	if cfg.WeightsFile != "" {
		w, err := LoadWeights(cfg.WeightsFile)
		if err != nil {
			return nil, err
		}
		e.Weights = w
	}

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.BatchWorkers = getEnvIntWithDefault("BATCH_WORKERS", 4)
	cfg.EnableBacktest = getEnvBoolWithDefault("ENABLE_BACKTEST", false)
	cfg.BacktestHorizon = getEnvIntWithDefault("BACKTEST_HORIZON", 48)
	cfg.BacktestConfidence = getEnvFloatWithDefault("BACKTEST_MIN_CONFIDENCE", 50)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseStrategies reads a comma-separated list of strategy ids
func parseStrategies(raw string) ([]strategy.ID, error) {
	var ids []strategy.ID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strategy.ParseID(part)
		if err != nil {
			return nil, fmt.Errorf("STRATEGIES: %w: %w", ErrInvalidConfig, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LoadWeights reads a YAML scoring table. Entries override the default
// table; factors missing from the file keep their default weight.
func LoadWeights(path string) (scoring.Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.Weights{}, fmt.Errorf("read weights file: %w", err)
	}

	var file struct {
		Base    *float64           `yaml:"base"`
		Factors map[string]float64 `yaml:"factors"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return scoring.Weights{}, fmt.Errorf("parse weights file %s: %w: %w", path, ErrInvalidConfig, err)
	}

	w := scoring.DefaultWeights()
	if file.Base != nil {
		w.Base = *file.Base
	}
	for name, v := range file.Factors {
		f := models.Factor(name)
		if !scoring.Known(f) {
			return scoring.Weights{}, fmt.Errorf("weights file %s: unknown factor %q: %w", path, name, ErrInvalidConfig)
		}
		w.Factors[f] = v
	}
	return w, nil
}

// Validate rejects parameter combinations the engine cannot run with
func Validate(cfg *Config) error {
	e := cfg.Engine
	var problems []string

	if e.SwingLookback < 1 {
		problems = append(problems, "SWING_LOOKBACK must be at least 1")
	}
	for name, v := range map[string]int{
		"ATR_PERIOD": e.Indicators.ATRPeriod,
		"RSI_PERIOD": e.Indicators.RSIPeriod,
		"BB_PERIOD":  e.Indicators.BBPeriod,
		"ADX_PERIOD": e.Indicators.ADXPeriod,
	} {
		if v < 2 {
			problems = append(problems, name+" must be at least 2")
		}
	}
	if e.Geometry.PremiumRatio <= 0 || e.Geometry.DiscountRatio <= 0 ||
		e.Geometry.PremiumRatio+e.Geometry.DiscountRatio > 1 {
		problems = append(problems, "zone ratios must be positive and sum to at most 1")
	}
	if e.Imbalance.DisplacementATR <= 0 {
		problems = append(problems, "DISPLACEMENT_ATR must be positive")
	}
	if e.Imbalance.MaxZoneAge < 1 {
		problems = append(problems, "MAX_ZONE_AGE must be at least 1")
	}
	if e.Strategy.RewardRatio <= 0 {
		problems = append(problems, "REWARD_RATIO must be positive")
	}
	if e.EmitWindow < 0 || e.HTFMultiplier < 0 {
		problems = append(problems, "EMIT_WINDOW and HTF_MULTIPLIER must not be negative")
	}
	if cfg.BatchWorkers < 1 {
		problems = append(problems, "BATCH_WORKERS must be at least 1")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer value")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-numeric value")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
