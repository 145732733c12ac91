package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/StructureScanner/internal/config"
	"github.com/Alias1177/StructureScanner/internal/engine"
	"github.com/Alias1177/StructureScanner/internal/trading/backtest"
	"github.com/Alias1177/StructureScanner/models"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.LogLevel)
	printConfig(cfg)

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: scanner <bars.json> [more.json ...]")
	}

	inputs := make([]engine.Input, 0, len(os.Args)-1)
	for _, path := range os.Args[1:] {
		in, err := readInput(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to read bars")
		}
		inputs = append(inputs, in)
	}

	eng, err := engine.New(cfg.Engine, engine.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build engine")
	}

	results, err := engine.RunBatch(ctx, eng, inputs, cfg.BatchWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	if cfg.EnableBacktest {
		runBacktesting(cfg, inputs, results)
	}

	if err := writeSignals(os.Stdout, results); err != nil {
		log.Fatal().Err(err).Msg("Failed to write signals")
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	e := cfg.Engine
	log.Info().
		Int("SwingLookback", e.SwingLookback).
		Int("ATRPeriod", e.Indicators.ATRPeriod).
		Int("RSIPeriod", e.Indicators.RSIPeriod).
		Int("BBPeriod", e.Indicators.BBPeriod).
		Float64("BBStdDev", e.Indicators.BBStdDev).
		Float64("DisplacementATR", e.Imbalance.DisplacementATR).
		Int("MaxZoneAge", e.Imbalance.MaxZoneAge).
		Float64("RewardRatio", e.Strategy.RewardRatio).
		Int("HTFMultiplier", e.HTFMultiplier).
		Int("EmitWindow", e.EmitWindow).
		Int("Strategies", len(e.Strategies)).
		Str("WeightsFile", cfg.WeightsFile).
		Int("BatchWorkers", cfg.BatchWorkers).
		Bool("EnableBacktest", cfg.EnableBacktest).
		Msg("Configuration loaded")
}

// readInput accepts either a bare JSON array of bars or an object with
// "bars" and optional "higher_timeframe"
func readInput(path string) (engine.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Input{}, fmt.Errorf("read %s: %w", path, err)
	}

	var in engine.Input
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &in.Bars)
	} else {
		err = json.Unmarshal(trimmed, &in)
	}
	if err != nil {
		return engine.Input{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return in, nil
}

const monteCarloRuns = 1000

type scanOutput struct {
	Symbol    string                `json:"symbol"`
	Timeframe string                `json:"timeframe"`
	HTFTrend  models.Trend          `json:"htf_trend"`
	Signals   []models.ScoredSignal `json:"signals"`
}

func writeSignals(w io.Writer, results []engine.Result) error {
	out := make([]scanOutput, len(results))
	for i, r := range results {
		out[i] = scanOutput{Symbol: r.Symbol, Timeframe: r.Timeframe, HTFTrend: r.HTFTrend, Signals: r.Signals}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runBacktesting replays each window's signals over its own bars
func runBacktesting(cfg *config.Config, inputs []engine.Input, results []engine.Result) {
	log.Info().Msg("Replaying signals...")
	bt := backtest.NewEngine(cfg.BacktestHorizon, cfg.BacktestConfidence, log.Logger)

	for i, r := range results {
		res, err := bt.Run(inputs[i].Bars, r.Signals)
		if err != nil {
			log.Error().Err(err).Str("symbol", r.Symbol).Msg("Backtest failed")
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s%s", r.Symbol, r.Timeframe, bt.FormatResults(res))

		if mc := backtest.MonteCarlo(res, monteCarloRuns, 1); mc != nil {
			log.Info().
				Str("symbol", r.Symbol).
				Float64("median_r", mc.TotalR.Median).
				Float64("p10_r", mc.TotalR.P10).
				Float64("median_drawdown_r", mc.MaxDrawdown.Median).
				Float64("probability_loss", mc.ProbabilityLoss).
				Msg("Monte Carlo summary")
		}
	}
}
