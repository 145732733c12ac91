package structure

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/StructureScanner/models"
)

// State carries the analyzer between calls. The zero value is a fresh
// neutral state.
type State struct {
	Trend models.Trend `json:"trend"`
	// Next is the first bar index not yet processed
	Next int `json:"next"`
	// BrokenHigh and BrokenLow hold the bar index of the last swing already
	// broken on each side. Swings never sit at index 0, so 0 means none.
	BrokenHigh int `json:"broken_high"`
	BrokenLow  int `json:"broken_low"`
}

func (s State) normalized() State {
	if s.Trend == "" {
		s.Trend = models.TrendNeutral
	}
	return s
}

// Analysis is the result of a full pass
type Analysis struct {
	Events []models.StructureEvent
	// Trends holds the trend in force after each bar
	Trends []models.Trend
	State  State
}

// EventAt returns the event fired on bar i, if any
func (a Analysis) EventAt(i int) (models.StructureEvent, bool) {
	for j := len(a.Events) - 1; j >= 0; j-- {
		e := a.Events[j]
		if e.BarIndex == i {
			return e, true
		}
		if e.BarIndex < i {
			break
		}
	}
	return models.StructureEvent{}, false
}

// LastEventBefore returns the latest event at or before bar i
func (a Analysis) LastEventBefore(i int) (models.StructureEvent, bool) {
	for j := len(a.Events) - 1; j >= 0; j-- {
		if a.Events[j].BarIndex <= i {
			return a.Events[j], true
		}
	}
	return models.StructureEvent{}, false
}

// TrendAt returns the trend after bar i, neutral when out of range
func (a Analysis) TrendAt(i int) models.Trend {
	if i < 0 || i >= len(a.Trends) {
		return models.TrendNeutral
	}
	return a.Trends[i]
}

// Analyzer classifies closes through confirmed swing levels as BOS or CHoCH
type Analyzer struct {
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer logging through the given logger
func NewAnalyzer(logger zerolog.Logger) *Analyzer {
	return &Analyzer{logger: logger.With().Str("component", "structure").Logger()}
}

// DefaultAnalyzer logs through the global logger
func DefaultAnalyzer() *Analyzer {
	return NewAnalyzer(log.Logger)
}

// Update processes bars from prior.Next to the end of the window and returns
// the new state with the events fired on those bars. swings is the
// SwingHistory of the window.
func (a *Analyzer) Update(bars []models.Bar, swings []models.SwingPoint, prior State) (State, []models.StructureEvent) {
	st, events := a.fold(bars, swings, prior, nil)
	return st, events
}

// Run analyzes the whole window from a fresh state and records the trend
// timeline.
func (a *Analyzer) Run(bars []models.Bar, swings []models.SwingPoint) Analysis {
	trends := make([]models.Trend, len(bars))
	st, events := a.fold(bars, swings, State{}, trends)
	return Analysis{Events: events, Trends: trends, State: st}
}

func (a *Analyzer) fold(bars []models.Bar, swings []models.SwingPoint, prior State, trends []models.Trend) (State, []models.StructureEvent) {
	st := prior.normalized()
	var events []models.StructureEvent

	for t := st.Next; t < len(bars); t++ {
		c := bars[t].Close

		high, haveHigh := LatestKnown(swings, models.SwingHigh, t)
		if haveHigh && high.BarIndex <= st.BrokenHigh {
			haveHigh = false
		}
		low, haveLow := LatestKnown(swings, models.SwingLow, t)
		if haveLow && low.BarIndex <= st.BrokenLow {
			haveLow = false
		}

		bull := haveHigh && c > high.Price
		bear := haveLow && c < low.Price

		var (
			ev    models.StructureEvent
			fired bool
		)
		switch {
		case bull && bear:
			st.BrokenHigh, st.BrokenLow = high.BarIndex, low.BarIndex
			switch st.Trend {
			case models.TrendBullish:
				ev, fired = event(models.CHoCH, models.Bearish, low, t), true
				st.Trend = models.TrendBearish
			case models.TrendBearish:
				ev, fired = event(models.CHoCH, models.Bullish, high, t), true
				st.Trend = models.TrendBullish
			}
		case bull:
			st.BrokenHigh = high.BarIndex
			kind := models.BOS
			if st.Trend == models.TrendBearish {
				kind = models.CHoCH
			}
			ev, fired = event(kind, models.Bullish, high, t), true
			st.Trend = models.TrendBullish
		case bear:
			st.BrokenLow = low.BarIndex
			kind := models.BOS
			if st.Trend == models.TrendBullish {
				kind = models.CHoCH
			}
			ev, fired = event(kind, models.Bearish, low, t), true
			st.Trend = models.TrendBearish
		}

		if fired {
			events = append(events, ev)
			a.logger.Debug().
				Int("bar", t).
				Str("kind", string(ev.Kind)).
				Str("direction", string(ev.Direction)).
				Float64("level", ev.ReferenceSwing.Price).
				Msg("structure break")
		}
		if trends != nil {
			trends[t] = st.Trend
		}
	}

	if len(bars) > st.Next {
		st.Next = len(bars)
	}
	return st, events
}

func event(kind models.StructureKind, dir models.Direction, ref models.SwingPoint, t int) models.StructureEvent {
	return models.StructureEvent{Kind: kind, Direction: dir, ReferenceSwing: ref, BarIndex: t}
}
