package backtest

import (
	"math/rand"
	"sort"
)

// Percentiles of a simulated distribution
type Percentiles struct {
	Worst  float64 `json:"worst"`
	P10    float64 `json:"p10"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Best   float64 `json:"best"`
}

// MonteCarloResults summarizes reshuffled trade sequences, in R
type MonteCarloResults struct {
	Simulations     int         `json:"simulations"`
	TotalR          Percentiles `json:"total_r"`
	MaxDrawdown     Percentiles `json:"max_drawdown"`
	ProbabilityLoss float64     `json:"probability_loss"`
}

const minSimulatedTrades = 10

// MonteCarlo reshuffles closed trade outcomes simulations times. The same
// seed always yields the same distribution. Fewer than ten closed trades
// return nil.
func MonteCarlo(results *Results, simulations int, seed int64) *MonteCarloResults {
	if results == nil || simulations < 1 {
		return nil
	}
	var trades []float64
	for _, t := range results.DetailedResults {
		if t.Outcome != OutcomeOpen {
			trades = append(trades, t.R)
		}
	}
	if len(trades) < minSimulatedTrades {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	totals := make([]float64, simulations)
	drawdowns := make([]float64, simulations)
	losing := 0

	shuffled := make([]float64, len(trades))
	for sim := 0; sim < simulations; sim++ {
		copy(shuffled, trades)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		equity, peak, worst := 0.0, 0.0, 0.0
		for _, r := range shuffled {
			equity += r
			peak = max(peak, equity)
			worst = max(worst, peak-equity)
		}
		totals[sim], drawdowns[sim] = equity, worst
		if equity < 0 {
			losing++
		}
	}

	return &MonteCarloResults{
		Simulations:     simulations,
		TotalR:          percentiles(totals),
		MaxDrawdown:     percentiles(drawdowns),
		ProbabilityLoss: float64(losing) / float64(simulations) * 100,
	}
}

func percentiles(values []float64) Percentiles {
	sort.Float64s(values)
	n := len(values)
	return Percentiles{
		Worst:  values[0],
		P10:    values[n/10],
		P25:    values[n/4],
		Median: values[n/2],
		P75:    values[n*3/4],
		P90:    values[n*9/10],
		Best:   values[n-1],
	}
}
