package strategy

import (
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/StructureScanner/internal/imbalance"
	"github.com/Alias1177/StructureScanner/internal/indicators"
	"github.com/Alias1177/StructureScanner/internal/structure"
	"github.com/Alias1177/StructureScanner/internal/zones"
	"github.com/Alias1177/StructureScanner/models"
)

var baseTime = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func generateTestBars(n int, generator func(int) models.Bar) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		bars[i].Timestamp = baseTime.Add(time.Duration(i) * 15 * time.Minute)
		bars[i].Symbol = "EUR/USD"
		bars[i].Timeframe = "15min"
	}
	return bars
}

func flat(price, half float64) models.Bar {
	return models.Bar{Open: price, High: price + half, Low: price - half, Close: price, Volume: 100}
}

// seriesContext computes indicators only
func seriesContext(bars []models.Bar) *Context {
	return &Context{
		Symbol:    "EUR/USD",
		Timeframe: "15min",
		Bars:      bars,
		Series:    indicators.Compute(bars, indicators.DefaultParams()),
		Imbalance: imbalance.Result{Zones: imbalance.NewZoneLog()},
	}
}

// fullContext runs the whole analysis pipeline over bars
func fullContext(t *testing.T, bars []models.Bar) *Context {
	t.Helper()
	series := indicators.Compute(bars, indicators.DefaultParams())
	swings := structure.SwingHistory(bars, 3)
	geo := zones.DefaultGeometry()
	bands := geo.Timeline(bars, swings)
	found, err := imbalance.NewDetector(imbalance.DefaultParams()).Scan(bars, series.ATR, swings, bands)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return &Context{
		Symbol:    "EUR/USD",
		Timeframe: "15min",
		Bars:      bars,
		Series:    series,
		Swings:    swings,
		Structure: structure.NewAnalyzer(zerolog.Nop()).Run(bars, swings),
		Bands:     bands,
		Pools:     geo.EqualLevels(swings, series.ATR),
		Imbalance: found,
	}
}

func wavyBars(n int) []models.Bar {
	return generateTestBars(n, func(i int) models.Bar {
		x := float64(i)
		c := 1.10 + 0.006*math.Sin(x/11) + 0.003*math.Sin(x/3.1) + 0.0012*math.Cos(x*1.3)
		o := c - 0.0008*math.Sin(x*0.8)
		spread := 0.0003 + 0.0006*math.Abs(math.Sin(x*0.29))
		return models.Bar{
			Open:   o,
			High:   math.Max(o, c) + spread,
			Low:    math.Min(o, c) - spread,
			Close:  c,
			Volume: 1000 + 800*math.Abs(math.Sin(x*0.17)),
		}
	})
}

func detect(t *testing.T, id ID, ctx *Context) []models.SignalCandidate {
	t.Helper()
	d, err := New(id, DefaultParams())
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	if d.ID() != id {
		t.Fatalf("detector reports id %s, want %s", d.ID(), id)
	}
	return d.Detect(ctx)
}

func at(cands []models.SignalCandidate, bar int, side models.Side) (models.SignalCandidate, bool) {
	for _, c := range cands {
		if c.BarIndex == bar && c.Side == side {
			return c, true
		}
	}
	return models.SignalCandidate{}, false
}

func TestBuildAndParse(t *testing.T) {
	all, err := Build(nil, DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("expected 10 detectors, got %d", len(all))
	}
	for i, d := range all {
		if d.ID() != All[i] || d.ID().Order() != i {
			t.Errorf("detector %d is %s", i, d.ID())
		}
	}

	some, err := Build([]ID{MTFConfluence, SMCStructure}, DefaultParams())
	if err != nil || len(some) != 2 || some[0].ID() != SMCStructure {
		t.Errorf("Build subset = %v, %v; want enumeration order", some, err)
	}

	if _, err := Build([]ID{"fibonacci"}, DefaultParams()); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}

	tests := []struct {
		in   string
		want ID
		err  bool
	}{
		{"smc_structure", SMCStructure, false},
		{" VWAP_Reclaim ", VWAPReclaim, false},
		{"martingale", "", true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseID(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestCandidateGeometry(t *testing.T) {
	ctx := fullContext(t, wavyBars(900))
	ctx.HTFTrend = make([]models.Trend, len(ctx.Bars))
	for i := range ctx.HTFTrend {
		ctx.HTFTrend[i] = ctx.Structure.TrendAt(i)
	}

	total := 0
	for _, id := range All {
		t.Run(string(id), func(t *testing.T) {
			for _, c := range detect(t, id, ctx) {
				total++
				if c.StrategyID != string(id) {
					t.Fatalf("candidate from %s tagged %s", id, c.StrategyID)
				}
				if c.Side == models.Long && !(c.Stop < c.Entry && c.Entry < c.Target) {
					t.Errorf("long at %d has stop %v entry %v target %v", c.BarIndex, c.Stop, c.Entry, c.Target)
				}
				if c.Side == models.Short && !(c.Stop > c.Entry && c.Entry > c.Target) {
					t.Errorf("short at %d has stop %v entry %v target %v", c.BarIndex, c.Stop, c.Entry, c.Target)
				}
				if !sort.SliceIsSorted(c.Factors, func(i, j int) bool { return c.Factors[i] < c.Factors[j] }) {
					t.Errorf("factors not sorted: %v", c.Factors)
				}
				if c.Factors.Has(models.FactorTrendAligned) && c.Factors.Has(models.FactorCounterTrend) {
					t.Errorf("candidate at %d is both aligned and counter trend", c.BarIndex)
				}
				if c.SignalType == "" || c.Symbol != "EUR/USD" || c.Timeframe != "15min" {
					t.Errorf("incomplete candidate %+v", c)
				}
			}
		})
	}
	if total == 0 {
		t.Fatal("expected candidates on a 900-bar wavy series")
	}
}

func TestEmitWindowStart(t *testing.T) {
	ctx := fullContext(t, wavyBars(600))
	ctx.From = 500
	for _, id := range All {
		for _, c := range detect(t, id, ctx) {
			if c.BarIndex < 500 {
				t.Errorf("%s emitted at %d before the window start", id, c.BarIndex)
			}
		}
	}
}

func TestRangeBreakout(t *testing.T) {
	bars := generateTestBars(26, func(i int) models.Bar { return flat(100, 0.5) })
	bars[25] = models.Bar{Timestamp: bars[25].Timestamp, Open: 100, High: 102.2, Low: 99.9, Close: 102, Volume: 100}

	ctx := seriesContext(bars)
	cands := detect(t, RangeBreakout, ctx)
	if len(cands) != 1 {
		t.Fatalf("expected a single breakout, got %+v", cands)
	}
	c := cands[0]
	if c.BarIndex != 25 || c.Side != models.Long || !c.Factors.Has(models.FactorBreakout) {
		t.Fatalf("unexpected candidate %+v", c)
	}
	atr := ctx.Series.ATR[25]
	if math.Abs(c.Stop-(102-1.5*atr)) > 1e-9 || math.Abs(c.Target-(102+3*atr)) > 1e-9 {
		t.Errorf("levels = stop %v target %v with ATR %v", c.Stop, c.Target, atr)
	}
	if c.SignalType != TypeBreakout {
		t.Errorf("signal type = %s", c.SignalType)
	}
}

func TestBollingerReversion(t *testing.T) {
	bars := generateTestBars(32, func(i int) models.Bar {
		c := 100.0
		if i%2 == 1 {
			c = 100.1
		}
		o := 100.1
		if i%2 == 1 {
			o = 100.0
		}
		return models.Bar{Open: o, High: math.Max(o, c) + 0.05, Low: math.Min(o, c) - 0.05, Close: c, Volume: 100}
	})
	bars[30] = models.Bar{Timestamp: bars[30].Timestamp, Open: 100, High: 100.05, Low: 96.9, Close: 97, Volume: 100}
	bars[31] = models.Bar{Timestamp: bars[31].Timestamp, Open: 97, High: 99.1, Low: 96.95, Close: 99, Volume: 100}

	ctx := seriesContext(bars)
	c, ok := at(detect(t, BollingerReversion, ctx), 31, models.Long)
	if !ok {
		t.Fatal("expected a long reversion on the re-entry bar")
	}
	if c.Target != ctx.Series.BBMiddle[31] {
		t.Errorf("target = %v, want middle band %v", c.Target, ctx.Series.BBMiddle[31])
	}
	want := 96.9 - 0.1*ctx.Series.ATR[31]
	if math.Abs(c.Stop-want) > 1e-9 {
		t.Errorf("stop = %v, want %v", c.Stop, want)
	}
	for _, f := range []models.Factor{models.FactorBandReentry, models.FactorRSIExtreme} {
		if !c.Factors.Has(f) {
			t.Errorf("missing factor %s in %v", f, c.Factors)
		}
	}
}

func TestVWAPReclaim(t *testing.T) {
	bars := generateTestBars(21, func(i int) models.Bar {
		c := 100 - 0.05*float64(i)
		return models.Bar{Open: c + 0.04, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 100}
	})
	bars[20] = models.Bar{Timestamp: bars[20].Timestamp, Open: 99.0, High: 100.6, Low: 98.95, Close: 100.5, Volume: 100}

	c, ok := at(detect(t, VWAPReclaim, seriesContext(bars)), 20, models.Long)
	if !ok {
		t.Fatal("expected a VWAP reclaim long")
	}
	if !c.Factors.Has(models.FactorVWAPReclaim) || c.SignalType != TypeReversal {
		t.Errorf("unexpected candidate %+v", c)
	}
}

func TestSessionKillzone(t *testing.T) {
	bars := generateTestBars(31, func(i int) models.Bar { return flat(100, 0.5) })
	raid := func(i int, o, h, l, c float64) {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = o, h, l, c
	}
	raid(28, 99.7, 99.9, 99.3, 99.8)     // 07:00, runs the Asian low
	raid(29, 99.7, 99.9, 99.3, 99.8)     // same raid again
	raid(30, 100.3, 100.7, 100.2, 100.4) // runs the Asian high

	cands := detect(t, SessionKillzone, seriesContext(bars))
	if len(cands) != 2 {
		t.Fatalf("expected one long and one short, got %+v", cands)
	}
	if c, ok := at(cands, 28, models.Long); !ok || !c.Factors.Has(models.FactorKillzone) || !c.Factors.Has(models.FactorSweep) {
		t.Errorf("missing long raid at 28: %+v", cands)
	}
	if _, ok := at(cands, 30, models.Short); !ok {
		t.Errorf("missing short raid at 30: %+v", cands)
	}

	daily := seriesContext(bars)
	daily.Timeframe = "1day"
	if got := detect(t, SessionKillzone, daily); got != nil {
		t.Errorf("daily bars have no sessions, got %+v", got)
	}
}

func fill(values []float64, v float64) {
	for i := range values {
		values[i] = v
	}
}

func TestVolatilitySqueeze(t *testing.T) {
	const last = 39

	tests := []struct {
		name      string
		bar       models.Bar
		prior     float64 // close MomentumLookback bars back
		squeezeAt bool    // bands still inside the channel on the last bar
		want      models.Side
		fires     bool
	}{
		{"release up", models.Bar{Open: 100, High: 100.9, Low: 99.8, Close: 100.8, Volume: 100}, 100, false, models.Long, true},
		{"release down", models.Bar{Open: 100, High: 100.2, Low: 99.1, Close: 99.2, Volume: 100}, 100, false, models.Short, true},
		{"still squeezed", models.Bar{Open: 100, High: 100.9, Low: 99.8, Close: 100.8, Volume: 100}, 100, true, "", false},
		{"momentum disagrees", models.Bar{Open: 100, High: 100.9, Low: 99.8, Close: 100.8, Volume: 100}, 101, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := generateTestBars(last+1, func(i int) models.Bar { return flat(100, 0.5) })
			tt.bar.Timestamp = bars[last].Timestamp
			bars[last] = tt.bar
			back := &bars[last-DefaultParams().MomentumLookback]
			back.Close, back.High = tt.prior, max(back.High, tt.prior)

			ctx := seriesContext(bars)
			s := ctx.Series
			fill(s.BBUpper, 101)
			fill(s.BBMiddle, 100)
			fill(s.BBLower, 99)
			fill(s.KCUpper, 100.8)
			fill(s.KCLower, 99.2)
			s.BBUpper[last-1], s.BBLower[last-1] = 100.5, 99.5
			if tt.squeezeAt {
				s.BBUpper[last], s.BBLower[last] = 100.5, 99.5
			}

			cands := detect(t, VolatilitySqueeze, ctx)
			if !tt.fires {
				if len(cands) != 0 {
					t.Fatalf("expected nothing, got %+v", cands)
				}
				return
			}
			if len(cands) != 1 {
				t.Fatalf("expected one candidate, got %+v", cands)
			}
			c := cands[0]
			if c.BarIndex != last || c.Side != tt.want || c.SignalType != TypeBreakout {
				t.Fatalf("unexpected candidate %+v", c)
			}
			if !c.Factors.Has(models.FactorSqueezeRelease) {
				t.Errorf("missing squeeze factor in %v", c.Factors)
			}
			atr := s.ATR[last]
			want := tt.bar.Close - 1.5*atr
			if tt.want == models.Short {
				want = tt.bar.Close + 1.5*atr
			}
			if math.Abs(c.Stop-want) > 1e-9 {
				t.Errorf("stop = %v, want %v", c.Stop, want)
			}
		})
	}
}

func TestMomentumBurst(t *testing.T) {
	const last = 39

	tests := []struct {
		name   string
		before float64 // fast EMA on every earlier bar, mid EMA sits at 100
		now    float64
		rsi    float64
		want   models.Side
		fires  bool
	}{
		{"cross up", 99.9, 100.1, 60, models.Long, true},
		{"cross down", 100.1, 99.9, 40, models.Short, true},
		{"cross up overbought", 99.9, 100.1, 75, "", false},
		{"cross up at midline", 99.9, 100.1, 50, "", false},
		{"cross down oversold", 100.1, 99.9, 25, "", false},
		{"no cross", 99.9, 99.95, 60, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := generateTestBars(last+1, func(i int) models.Bar { return flat(100, 0.5) })
			bars[last].Close = 100.3
			if tt.want == models.Short {
				bars[last].Close = 99.7
			}

			ctx := seriesContext(bars)
			s := ctx.Series
			fill(s.EMAMid, 100)
			fill(s.EMAFast, tt.before)
			fill(s.RSI, 50)
			s.EMAFast[last] = tt.now
			s.RSI[last] = tt.rsi

			cands := detect(t, MomentumBurst, ctx)
			if !tt.fires {
				if len(cands) != 0 {
					t.Fatalf("expected nothing, got %+v", cands)
				}
				return
			}
			if len(cands) != 1 {
				t.Fatalf("expected one candidate, got %+v", cands)
			}
			c := cands[0]
			if c.BarIndex != last || c.Side != tt.want || c.SignalType != TypeMomentum {
				t.Fatalf("unexpected candidate %+v", c)
			}
			if !c.Factors.Has(models.FactorEMACross) {
				t.Errorf("missing EMA cross factor in %v", c.Factors)
			}
			if math.Abs(c.Entry-bars[last].Close) > 1e-12 {
				t.Errorf("entry = %v, want the close", c.Entry)
			}
		})
	}
}

func TestTrendPullback(t *testing.T) {
	bars := generateTestBars(81, func(i int) models.Bar {
		c := 100 + 0.5*float64(i)
		return models.Bar{Open: c - 0.4, High: c + 0.2, Low: c - 0.6, Close: c, Volume: 100}
	})
	bars[80] = models.Bar{Timestamp: bars[80].Timestamp, Open: 137.0, High: 138.7, Low: 136.7, Close: 138.5, Volume: 100}

	ctx := seriesContext(bars)
	cands := detect(t, TrendPullback, ctx)
	if len(cands) != 1 {
		t.Fatalf("expected only the pullback bar, got %+v", cands)
	}
	c := cands[0]
	if c.BarIndex != 80 || c.Side != models.Long || !c.Factors.Has(models.FactorADXStrong) {
		t.Fatalf("unexpected candidate %+v", c)
	}
	want := ctx.Series.EMAMid[80] - 0.1*ctx.Series.ATR[80]
	if math.Abs(c.Stop-want) > 1e-9 {
		t.Errorf("stop = %v, want below the mid EMA at %v", c.Stop, want)
	}
}

func TestSupplyDemand(t *testing.T) {
	bars := generateTestBars(29, func(i int) models.Bar { return flat(100, 0.5) })
	set := func(i int, o, h, l, c float64) {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = o, h, l, c
	}
	for i := 20; i <= 22; i++ {
		set(i, 100, 100.2, 99.8, 100.1)
	}
	set(23, 100.2, 103.1, 100.1, 103) // departure
	for i := 24; i <= 27; i++ {
		set(i, 103, 103.7, 102.8, 103.5)
	}
	set(28, 102.5, 102.6, 100.1, 100.6) // first return into the base

	ctx := seriesContext(bars)
	cands := detect(t, SupplyDemand, ctx)
	c, ok := at(cands, 28, models.Long)
	if !ok {
		t.Fatalf("expected demand long at 28, got %+v", cands)
	}
	want := 99.8 - 0.1*ctx.Series.ATR[28]
	if math.Abs(c.Stop-want) > 1e-9 || !c.Factors.Has(models.FactorFreshZone) {
		t.Errorf("unexpected candidate %+v", c)
	}
	for _, c := range cands {
		if c.Side == models.Long && c.BarIndex != 28 {
			t.Errorf("unexpected extra long at %d", c.BarIndex)
		}
	}
}

func structureContext() *Context {
	bars := generateTestBars(40, func(i int) models.Bar {
		return models.Bar{Open: 100.2, High: 100.5, Low: 99.8, Close: 100.2, Volume: 100}
	})
	bars[32] = models.Bar{Timestamp: bars[32].Timestamp, Open: 100.0, High: 100.4, Low: 99.4, Close: 100.2, Volume: 100}

	ctx := seriesContext(bars)
	ref := models.SwingPoint{BarIndex: 24, Price: 100.1, Kind: models.SwingHigh, Confirmed: true, ConfirmedAt: 27}
	low := models.SwingPoint{BarIndex: 25, Price: 99.5, Kind: models.SwingLow, Confirmed: true, ConfirmedAt: 28}
	ctx.Swings = []models.SwingPoint{ref, low}

	trends := make([]models.Trend, len(bars))
	for i := range trends {
		trends[i] = models.TrendNeutral
		if i >= 30 {
			trends[i] = models.TrendBullish
		}
	}
	ctx.Structure = structure.Analysis{
		Events: []models.StructureEvent{{Kind: models.BOS, Direction: models.Bullish, ReferenceSwing: ref, BarIndex: 30}},
		Trends: trends,
	}
	ctx.Imbalance.Zones.Add(models.Zone{
		Kind: models.FairValueGap, Top: 99.6, Bottom: 99.0, Direction: models.Bullish,
		OriginBarIndex: 27, FormedAt: 28, Strength: 0.5,
	})
	return ctx
}

func TestSMCStructure(t *testing.T) {
	ctx := structureContext()
	cands := detect(t, SMCStructure, ctx)
	if len(cands) != 1 {
		t.Fatalf("expected one retrace entry, got %+v", cands)
	}
	c := cands[0]
	if c.BarIndex != 32 || c.Side != models.Long || c.SignalType != TypeContinuation {
		t.Fatalf("unexpected candidate %+v", c)
	}
	for _, f := range []models.Factor{models.FactorBOS, models.FactorFVG, models.FactorFreshZone, models.FactorTrendAligned} {
		if !c.Factors.Has(f) {
			t.Errorf("missing factor %s in %v", f, c.Factors)
		}
	}
	want := 99.0 - 0.1*ctx.Series.ATR[32]
	if math.Abs(c.Stop-want) > 1e-9 {
		t.Errorf("stop = %v, want %v", c.Stop, want)
	}
}

func TestMTFConfluence(t *testing.T) {
	tests := []struct {
		name string
		htf  models.Trend
		want int
	}{
		{"aligned", models.TrendBullish, 1},
		{"opposed", models.TrendBearish, 0},
		{"unknown", models.TrendNeutral, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := structureContext()
			ctx.HTFTrend = make([]models.Trend, len(ctx.Bars))
			for i := range ctx.HTFTrend {
				ctx.HTFTrend[i] = tt.htf
			}
			cands := detect(t, MTFConfluence, ctx)
			if len(cands) != tt.want {
				t.Fatalf("got %d candidates, want %d", len(cands), tt.want)
			}
			if tt.want == 0 {
				return
			}
			c := cands[0]
			if c.BarIndex != 30 || !c.Factors.Has(models.FactorMTFAligned) || !c.Factors.Has(models.FactorBOS) {
				t.Errorf("unexpected candidate %+v", c)
			}
			want := 99.5 - 0.1*ctx.Series.ATR[30]
			if math.Abs(c.Stop-want) > 1e-9 {
				t.Errorf("stop = %v, want below the swing low at %v", c.Stop, want)
			}
		})
	}
}

func TestRecentSweep(t *testing.T) {
	ctx := &Context{Imbalance: imbalance.Result{Sweeps: []models.LiquiditySweep{
		{Direction: models.Bullish, BarIndex: 9, ReversalConfirmed: true, ConfirmedBarIndex: 10},
		{Direction: models.Bearish, BarIndex: 12, ConfirmedBarIndex: -1},
	}}}

	tests := []struct {
		t    int
		dir  models.Direction
		want bool
	}{
		{9, models.Bullish, false},
		{10, models.Bullish, true},
		{15, models.Bullish, true},
		{16, models.Bullish, false},
		{13, models.Bearish, false},
	}
	for _, tt := range tests {
		if got := ctx.recentSweep(tt.t, 5, tt.dir); got != tt.want {
			t.Errorf("recentSweep(%d, %s) = %v, want %v", tt.t, tt.dir, got, tt.want)
		}
	}
}
