package shellz

import "github.com/zoobzio/clockz"

// Clock is the time source TimeDefinition's "now" resolves against. Tests
// swap in clockz.NewFakeClock() so Duration/Time compilation is
// deterministic; production uses clockz.RealClock (grounded on pipz's own
// injectable-clock pattern).
var Clock clockz.Clock = clockz.RealClock
