package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/StructureScanner/models"
)

var signalNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("github.com/Alias1177/StructureScanner/signal"))

// signalID is a name-based UUID of the signal's identity so repeated runs
// over the same bars produce the same IDs
func signalID(c models.SignalCandidate, barTime time.Time) string {
	name := fmt.Sprintf("%s|%s|%s|%d|%s", c.Symbol, c.Timeframe, c.StrategyID, barTime.UTC().UnixNano(), c.Side)
	return uuid.NewSHA1(signalNamespace, []byte(name)).String()
}
