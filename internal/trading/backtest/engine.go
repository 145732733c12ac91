package backtest

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Alias1177/StructureScanner/models"
)

// Outcome of one signal replayed against the bars that followed it
type Outcome string

const (
	OutcomeTarget Outcome = "target"
	OutcomeStop   Outcome = "stop"
	OutcomeOpen   Outcome = "open"
)

// Trade is a replayed signal
type Trade struct {
	SignalID   string  `json:"signal_id"`
	StrategyID string  `json:"strategy_id"`
	Side       string  `json:"side"`
	Confidence float64 `json:"confidence"`
	BarIndex   int     `json:"bar_index"`
	ExitIndex  int     `json:"exit_index"`
	Outcome    Outcome `json:"outcome"`
	R          float64 `json:"r"` // multiples of the initial risk
	Month      string  `json:"month"`
}

// Results aggregates replayed trades. Open trades are listed but not scored.
type Results struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	OpenTrades     int     `json:"open_trades"`
	WinPercentage  float64 `json:"win_percentage"`
	AverageGain    float64 `json:"average_gain"`
	AverageLoss    float64 `json:"average_loss"`
	MaxConsecutive struct {
		Wins  int `json:"wins"`
		Loses int `json:"loses"`
	} `json:"max_consecutive"`
	StrategyPerformance map[string]float64 `json:"strategy_performance"`
	MonthlyReturns      map[string]float64 `json:"monthly_returns"`
	ProfitFactor        float64            `json:"profit_factor"`
	MaxDrawdown         float64            `json:"max_drawdown"`
	SharpeRatio         float64            `json:"sharpe_ratio"`
	EquityCurve         []float64          `json:"equity_curve,omitempty"`
	TotalR              float64            `json:"total_r"`
	DetailedResults     []Trade            `json:"detailed_results"`
}

// Engine replays signals over the window they were generated from
type Engine struct {
	// Horizon is the number of bars a trade may stay open; 0 means until
	// the window ends
	Horizon       int
	MinConfidence float64
	logger        zerolog.Logger
}

// NewEngine creates a replay engine
func NewEngine(horizon int, minConfidence float64, logger zerolog.Logger) *Engine {
	return &Engine{
		Horizon:       horizon,
		MinConfidence: minConfidence,
		logger:        logger.With().Str("component", "backtest").Logger(),
	}
}

// Run replays every signal at or above MinConfidence. Signals are processed
// in their given order.
func (e *Engine) Run(bars []models.Bar, signals []models.ScoredSignal) (*Results, error) {
	results := &Results{
		StrategyPerformance: make(map[string]float64),
		MonthlyReturns:      make(map[string]float64),
		DetailedResults:     []Trade{},
	}

	type tally struct{ wins, total int }
	strategyStats := make(map[string]tally)
	var consecutiveWins, consecutiveLosses int

	for _, s := range signals {
		if s.Confidence < e.MinConfidence {
			continue
		}
		if s.BarIndex < 0 || s.BarIndex >= len(bars) {
			return nil, fmt.Errorf("signal %s: bar index %d outside window of %d bars", s.ID, s.BarIndex, len(bars))
		}

		trade := e.replay(bars, s)
		results.DetailedResults = append(results.DetailedResults, trade)
		if trade.Outcome == OutcomeOpen {
			results.OpenTrades++
			continue
		}

		results.TotalTrades++
		stats := strategyStats[trade.StrategyID]
		stats.total++
		if trade.Outcome == OutcomeTarget {
			results.WinningTrades++
			stats.wins++
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			results.LosingTrades++
			consecutiveLosses++
			consecutiveWins = 0
		}
		strategyStats[trade.StrategyID] = stats
		results.MaxConsecutive.Wins = max(results.MaxConsecutive.Wins, consecutiveWins)
		results.MaxConsecutive.Loses = max(results.MaxConsecutive.Loses, consecutiveLosses)
		results.MonthlyReturns[trade.Month] += trade.R
	}

	for id, stats := range strategyStats {
		results.StrategyPerformance[id] = float64(stats.wins) / float64(stats.total) * 100
	}
	calculateMetrics(results)

	e.logger.Debug().
		Int("signals", len(signals)).
		Int("closed", results.TotalTrades).
		Int("open", results.OpenTrades).
		Float64("total_r", results.TotalR).
		Msg("replay finished")
	return results, nil
}

// replay walks forward from the bar after the signal. A bar that spans
// both stop and target counts as stopped.
func (e *Engine) replay(bars []models.Bar, s models.ScoredSignal) Trade {
	trade := Trade{
		SignalID:   s.ID,
		StrategyID: s.StrategyID,
		Side:       string(s.Side),
		Confidence: s.Confidence,
		BarIndex:   s.BarIndex,
		ExitIndex:  -1,
		Outcome:    OutcomeOpen,
		Month:      bars[s.BarIndex].Timestamp.UTC().Format("2006-01"),
	}

	last := len(bars) - 1
	if e.Horizon > 0 {
		last = min(last, s.BarIndex+e.Horizon)
	}
	riskPerUnit := s.Entry - s.Stop
	if s.Side == models.Short {
		riskPerUnit = -riskPerUnit
	}

	for i := s.BarIndex + 1; i <= last; i++ {
		b := bars[i]
		var stopped, reached bool
		if s.Side == models.Long {
			stopped, reached = b.Low <= s.Stop, b.High >= s.Target
		} else {
			stopped, reached = b.High >= s.Stop, b.Low <= s.Target
		}
		switch {
		case stopped:
			trade.Outcome, trade.ExitIndex, trade.R = OutcomeStop, i, -1
		case reached:
			trade.Outcome, trade.ExitIndex = OutcomeTarget, i
			if riskPerUnit > 0 {
				reward := s.Target - s.Entry
				if s.Side == models.Short {
					reward = -reward
				}
				trade.R = reward / riskPerUnit
			}
		default:
			continue
		}
		break
	}
	return trade
}

// FormatResults creates a human-readable summary
func (e *Engine) FormatResults(results *Results) string {
	if results == nil {
		return "No backtest results available"
	}

	output := "\n===== SIGNAL REPLAY =====\n"
	output += fmt.Sprintf("Closed trades: %d (open: %d)\n", results.TotalTrades, results.OpenTrades)
	output += fmt.Sprintf("Winning trades: %d (%.2f%%)\n", results.WinningTrades, results.WinPercentage)
	output += fmt.Sprintf("Total: %+.2fR\n", results.TotalR)
	output += fmt.Sprintf("Average gain: %.2fR\n", results.AverageGain)
	output += fmt.Sprintf("Average loss: %.2fR\n", results.AverageLoss)
	output += fmt.Sprintf("Profit factor: %.2f\n", results.ProfitFactor)
	output += fmt.Sprintf("Maximum drawdown: %.2fR\n", results.MaxDrawdown)
	output += fmt.Sprintf("Max consecutive wins: %d\n", results.MaxConsecutive.Wins)
	output += fmt.Sprintf("Max consecutive losses: %d\n", results.MaxConsecutive.Loses)

	if len(results.StrategyPerformance) > 0 {
		output += "\nWin rate by strategy:\n"
		for _, id := range sortedKeys(results.StrategyPerformance) {
			output += fmt.Sprintf("- %s: %.2f%%\n", id, results.StrategyPerformance[id])
		}
	}

	if len(results.MonthlyReturns) > 0 {
		output += "\nMonthly returns:\n"
		for _, month := range sortedKeys(results.MonthlyReturns) {
			output += fmt.Sprintf("- %s: %+.2fR\n", month, results.MonthlyReturns[month])
		}
	}
	return output
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
