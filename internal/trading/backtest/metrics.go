package backtest

import "math"

// calculateMetrics derives ratios and the R equity curve from closed trades
func calculateMetrics(results *Results) {
	if results.TotalTrades == 0 {
		return
	}
	results.WinPercentage = float64(results.WinningTrades) / float64(results.TotalTrades) * 100

	var totalGain, totalLoss float64
	returns := make([]float64, 0, results.TotalTrades)
	equity := 0.0
	results.EquityCurve = []float64{equity}
	for _, trade := range results.DetailedResults {
		if trade.Outcome == OutcomeOpen {
			continue
		}
		if trade.R > 0 {
			totalGain += trade.R
		} else {
			totalLoss -= trade.R
		}
		returns = append(returns, trade.R)
		equity += trade.R
		results.EquityCurve = append(results.EquityCurve, equity)
	}
	results.TotalR = equity

	if results.WinningTrades > 0 {
		results.AverageGain = totalGain / float64(results.WinningTrades)
	}
	if results.LosingTrades > 0 {
		results.AverageLoss = totalLoss / float64(results.LosingTrades)
	}
	if totalLoss > 0 {
		results.ProfitFactor = totalGain / totalLoss
	} else {
		results.ProfitFactor = totalGain
	}

	results.MaxDrawdown = maxDrawdown(results.EquityCurve)

	// per-trade Sharpe, not annualized
	m := mean(returns)
	if sd := stdDev(returns, m); sd > 0 {
		results.SharpeRatio = m / sd
	}
}

// maxDrawdown is the largest peak-to-trough fall of an additive curve
func maxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak, worst := curve[0], 0.0
	for _, v := range curve {
		peak = math.Max(peak, v)
		worst = math.Max(worst, peak-v)
	}
	return worst
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
