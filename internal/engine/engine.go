package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Alias1177/StructureScanner/internal/imbalance"
	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/scoring"
	"github.com/Alias1177/StructureScanner/internal/strategy"
	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/internal/zones"
	"github.com/Alias1177/StructureScanner/models"
)

// Config holds every tunable of one engine
type Config struct {
	SwingLookback int
	Indicators    indicators.Params
	Geometry      zones.Geometry
	Imbalance     imbalance.Params
	Strategy      strategy.Params
	// Strategies selects detectors; empty runs all of them
	Strategies []strategy.ID
	Weights    scoring.Weights

	// HTFMultiplier groups this many bars into one higher-timeframe bar when
	// the input carries none
	HTFMultiplier int
	// EmitWindow limits output to the last N bars; 0 emits for every bar
	EmitWindow          int
	AssertPreconditions bool
}

func DefaultConfig() Config {
	return Config{
		SwingLookback:       3,
		Indicators:          indicators.DefaultParams(),
		Geometry:            zones.DefaultGeometry(),
		Imbalance:           imbalance.DefaultParams(),
		Strategy:            strategy.DefaultParams(),
		Weights:             scoring.DefaultWeights(),
		HTFMultiplier:       4,
		AssertPreconditions: true,
	}
}

// Input is one window of bars for a single symbol and timeframe
type Input struct {
	Bars            []models.Bar `json:"bars"`
	HigherTimeframe []models.Bar `json:"higher_timeframe,omitempty"`
}

// Result holds the scored signals and the analysis they came from
type Result struct {
	Symbol    string                `json:"symbol"`
	Timeframe string                `json:"timeframe"`
	Signals   []models.ScoredSignal `json:"signals"`

	Swings      []models.SwingPoint     `json:"swings"`
	Events      []models.StructureEvent `json:"events"`
	State       structure.State         `json:"state"`
	HTFTrend    models.Trend            `json:"htf_trend"`
	Band        models.PriceBand        `json:"band"`
	Pools       []models.LiquidityPool  `json:"pools"`
	Zones       []models.Zone           `json:"zones"`
	Transitions []imbalance.Transition  `json:"transitions"`
	Sweeps      []models.LiquiditySweep `json:"sweeps"`
}

// Engine runs the full detection pipeline. It keeps no state between runs
// and is safe for concurrent use.
type Engine struct {
	cfg       Config
	detectors []strategy.Detector
	scorer    *scoring.Scorer
	analyzer  *structure.Analyzer
	imbalance *imbalance.Detector
	logger    zerolog.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the logger; engines are silent by default
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine from cfg
func New(cfg Config, opts ...Option) (*Engine, error) {
	detectors, err := strategy.Build(cfg.Strategies, cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("build detectors: %w", err)
	}
	if cfg.Weights.Factors == nil {
		cfg.Weights = scoring.DefaultWeights()
	}

	e := &Engine{
		cfg:       cfg,
		detectors: detectors,
		scorer:    scoring.New(cfg.Weights),
		imbalance: imbalance.NewDetector(cfg.Imbalance),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	e.analyzer = structure.NewAnalyzer(e.logger)
	return e, nil
}

// Config returns the configuration the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// Run analyzes one window. Invalid bars are rejected when
// AssertPreconditions is on; a window too short for the indicators yields
// no signals and no error.
func (e *Engine) Run(in Input) (Result, error) {
	bars := in.Bars
	if e.cfg.AssertPreconditions {
		if err := Validate(bars); err != nil {
			return Result{}, fmt.Errorf("validate window: %w", err)
		}
		if err := Validate(in.HigherTimeframe); err != nil {
			return Result{}, fmt.Errorf("validate higher timeframe: %w", err)
		}
	}

	res := Result{Signals: []models.ScoredSignal{}}
	if len(bars) == 0 {
		return res, nil
	}
	res.Symbol, res.Timeframe = bars[0].Symbol, bars[0].Timeframe

	series := indicators.Compute(bars, e.cfg.Indicators)
	swings := structure.SwingHistory(bars, e.cfg.SwingLookback)
	analysis := e.analyzer.Run(bars, swings)
	bands := e.cfg.Geometry.Timeline(bars, swings)
	pools := e.cfg.Geometry.EqualLevels(swings, series.ATR)
	found, err := e.imbalance.Scan(bars, series.ATR, swings, bands)
	if err != nil {
		return Result{}, fmt.Errorf("scan imbalances: %w", err)
	}
	htf := e.higherTimeframeTrend(bars, in.HigherTimeframe)

	ctx := &strategy.Context{
		Symbol:    res.Symbol,
		Timeframe: res.Timeframe,
		Bars:      bars,
		Series:    series,
		Swings:    swings,
		Structure: analysis,
		Bands:     bands,
		Pools:     pools,
		Imbalance: found,
		HTFTrend:  htf,
	}
	if w := e.cfg.EmitWindow; w > 0 && w < len(bars) {
		ctx.From = len(bars) - w
	}

	for _, d := range e.detectors {
		for _, c := range d.Detect(ctx) {
			s := e.scorer.Score(c)
			s.ID = signalID(c, bars[c.BarIndex].Timestamp)
			res.Signals = append(res.Signals, s)
		}
	}
	sortSignals(res.Signals)

	res.Swings = structure.Alternating(swings)
	res.Events = analysis.Events
	res.State = analysis.State
	res.HTFTrend = htf[len(htf)-1]
	res.Band = bands[len(bands)-1]
	res.Pools = pools
	res.Zones = found.Zones.Zones()
	res.Transitions = found.Zones.History()
	res.Sweeps = found.Sweeps

	e.logger.Debug().
		Str("symbol", res.Symbol).
		Str("timeframe", res.Timeframe).
		Int("bars", len(bars)).
		Int("swings", len(swings)).
		Int("events", len(res.Events)).
		Int("zones", found.Zones.Len()).
		Int("sweeps", len(res.Sweeps)).
		Int("signals", len(res.Signals)).
		Msg("window analyzed")

	return res, nil
}

var sideOrder = map[models.Side]int{models.Long: 0, models.Short: 1}

// sortSignals orders by bar, then strategy enumeration, then side
func sortSignals(signals []models.ScoredSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.BarIndex != b.BarIndex {
			return a.BarIndex < b.BarIndex
		}
		if oa, ob := strategy.ID(a.StrategyID).Order(), strategy.ID(b.StrategyID).Order(); oa != ob {
			return oa < ob
		}
		return sideOrder[a.Side] < sideOrder[b.Side]
	})
}
