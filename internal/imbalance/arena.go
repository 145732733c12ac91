package imbalance

import (
	"errors"
	"fmt"

	"github.com/Alias1177/StructureScanner/models"
)

// ErrZoneClosed is returned when a status change targets a zone that is no
// longer active
var ErrZoneClosed = errors.New("zone is not active")

// ZoneKey identifies a zone; a key is never added twice
type ZoneKey struct {
	Kind      models.ZoneKind
	Direction models.Direction
	Origin    int
}

// Transition records one status change
type Transition struct {
	Key      ZoneKey           `json:"key"`
	From     models.ZoneStatus `json:"from"`
	To       models.ZoneStatus `json:"to"`
	BarIndex int               `json:"bar_index"`
}

// ZoneLog is an append-only arena of zones. Status is changed in place by
// index and every change is kept in the history.
type ZoneLog struct {
	zones   []models.Zone
	index   map[ZoneKey]int
	history []Transition
}

func NewZoneLog() *ZoneLog {
	return &ZoneLog{index: make(map[ZoneKey]int)}
}

func keyOf(z models.Zone) ZoneKey {
	return ZoneKey{Kind: z.Kind, Direction: z.Direction, Origin: z.OriginBarIndex}
}

// Add appends an active zone and returns its index. A zone whose key is
// already present is ignored and the existing index is returned with false.
func (l *ZoneLog) Add(z models.Zone) (int, bool) {
	key := keyOf(z)
	if i, ok := l.index[key]; ok {
		return i, false
	}
	z.Status = models.ZoneActive
	z.StatusBarIndex = z.FormedAt
	l.zones = append(l.zones, z)
	i := len(l.zones) - 1
	l.index[key] = i
	return i, true
}

// Lookup finds a zone by key
func (l *ZoneLog) Lookup(key ZoneKey) (models.Zone, bool) {
	i, ok := l.index[key]
	if !ok {
		return models.Zone{}, false
	}
	return l.zones[i], true
}

// Mitigate marks zone i as mitigated at bar
func (l *ZoneLog) Mitigate(i, bar int) error {
	return l.transition(i, models.ZoneMitigated, bar)
}

// Expire marks zone i as expired at bar
func (l *ZoneLog) Expire(i, bar int) error {
	return l.transition(i, models.ZoneExpired, bar)
}

func (l *ZoneLog) transition(i int, to models.ZoneStatus, bar int) error {
	if i < 0 || i >= len(l.zones) {
		return fmt.Errorf("zone %d: index out of range", i)
	}
	z := &l.zones[i]
	if z.Status != models.ZoneActive {
		return fmt.Errorf("zone %d (%s at %d) is %s: %w", i, z.Kind, z.OriginBarIndex, z.Status, ErrZoneClosed)
	}
	l.history = append(l.history, Transition{Key: keyOf(*z), From: z.Status, To: to, BarIndex: bar})
	z.Status = to
	z.StatusBarIndex = bar
	return nil
}

// Len returns the number of zones ever added
func (l *ZoneLog) Len() int {
	return len(l.zones)
}

// Zones returns a copy of every zone in insertion order
func (l *ZoneLog) Zones() []models.Zone {
	out := make([]models.Zone, len(l.zones))
	copy(out, l.zones)
	return out
}

// History returns a copy of all status transitions
func (l *ZoneLog) History() []Transition {
	out := make([]Transition, len(l.history))
	copy(out, l.history)
	return out
}

// ActiveAt returns the zones that were formed by bar t and still active
// through it. A zone whose status changed on bar t is not included.
func (l *ZoneLog) ActiveAt(t int) []models.Zone {
	if l == nil {
		return nil
	}
	var out []models.Zone
	for _, z := range l.zones {
		if z.FormedAt > t {
			continue
		}
		if z.Status != models.ZoneActive && z.StatusBarIndex <= t {
			continue
		}
		out = append(out, z)
	}
	return out
}

// step applies the lifecycle to all active zones for bar t
func (l *ZoneLog) step(bars []models.Bar, t, maxAge int) error {
	c := bars[t].Close
	for i, z := range l.zones {
		if z.Status != models.ZoneActive || t <= z.FormedAt {
			continue
		}
		var err error
		switch {
		case t >= z.OriginBarIndex+2 && mitigatedBy(z, c):
			err = l.Mitigate(i, t)
		case t-z.OriginBarIndex > maxAge:
			err = l.Expire(i, t)
		}
		if err != nil {
			return fmt.Errorf("bar %d: %w", t, err)
		}
	}
	return nil
}

// mitigatedBy reports a close beyond the zone's far edge
func mitigatedBy(z models.Zone, c float64) bool {
	if z.Direction == models.Bullish {
		return c < z.Bottom
	}
	return c > z.Top
}
