package strategy

import (
	"time"

	"github.com/Alias1177/StructureScanner/internal/trading/risk"
	"github.com/Alias1177/StructureScanner/models"
)

// Session is a UTC hour range [StartHour, EndHour)
type Session struct {
	Name      string
	StartHour int
	EndHour   int
}

// Contains reports whether ts falls inside the session
func (s Session) Contains(ts time.Time) bool {
	h := ts.UTC().Hour()
	return h >= s.StartHour && h < s.EndHour
}

// Sessions holds the range-building session and the killzones traded
// against it
type Sessions struct {
	Asia      Session
	Killzones []Session
}

func DefaultSessions() Sessions {
	return Sessions{
		Asia: Session{Name: "asia", StartHour: 0, EndHour: 6},
		Killzones: []Session{
			{Name: "london", StartHour: 7, EndHour: 10},
			{Name: "new_york", StartHour: 12, EndHour: 15},
		},
	}
}

func (s Sessions) inKillzone(ts time.Time) bool {
	for _, k := range s.Killzones {
		if k.Contains(ts) {
			return true
		}
	}
	return false
}

// sessionKillzone fades a killzone raid of the Asian range: the wick runs
// the range extreme and the close comes back inside
type sessionKillzone struct {
	base
	sessions Sessions
}

func (d *sessionKillzone) ID() ID { return SessionKillzone }

func (d *sessionKillzone) Detect(ctx *Context) []models.SignalCandidate {
	if dur, ok := models.TimeframeDuration(ctx.Timeframe); ok && dur >= 24*time.Hour {
		return nil
	}

	var (
		out       []models.SignalCandidate
		day       string
		asiaHigh  float64
		asiaLow   float64
		haveRange bool
		fired     map[models.Side]bool
	)
	p := d.params

	for t, bar := range ctx.Bars {
		key := bar.Timestamp.UTC().Format("2006-01-02")
		if t == 0 || key != day {
			day = key
			haveRange = false
			fired = make(map[models.Side]bool, 2)
		}

		if d.sessions.Asia.Contains(bar.Timestamp) {
			if !haveRange {
				asiaHigh, asiaLow, haveRange = bar.High, bar.Low, true
			} else {
				asiaHigh = max(asiaHigh, bar.High)
				asiaLow = min(asiaLow, bar.Low)
			}
			continue
		}

		if !haveRange || !d.sessions.inKillzone(bar.Timestamp) {
			continue
		}
		atr, ok := ctx.atr(t)
		if !ok {
			continue
		}

		for _, side := range sides {
			if fired[side] {
				continue
			}
			var raided bool
			stopLevel := bar.Low
			if side == models.Long {
				raided = bar.Low < asiaLow && bar.Close > asiaLow
			} else {
				raided = bar.High > asiaHigh && bar.Close < asiaHigh
				stopLevel = bar.High
			}
			if !raided {
				continue
			}

			c, ok := d.emit(ctx, SessionKillzone, setup{
				t:          t,
				side:       side,
				entry:      bar.Close,
				stop:       risk.BufferedStop(stopLevel, p.StopBufferATR*atr, side),
				signalType: TypeReversal,
				factors:    []models.Factor{models.FactorKillzone, models.FactorSweep},
			})
			if !ok {
				continue
			}
			fired[side] = true
			if t >= ctx.From {
				out = append(out, c)
			}
		}
	}
	return out
}
