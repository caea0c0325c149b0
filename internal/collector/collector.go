// Package collector reads a player's world-space pose out of a running
// foreign process by walking a pointer chain, probing a list of offset
// variants until one succeeds and caching the winner.
package collector

import (
	"time"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

// Collector is the cross-process memory reader contract. Open binds to a
// process by name; Sample reads one pose; IsAlive reports target liveness;
// ActiveOffset names the cached offset variant, if any has succeeded yet.
type Collector interface {
	Sample() (types.Pose, error)
	IsAlive() bool
	ActiveOffset() (string, bool)
	Close()
}

// Opener constructs a Collector bound to a named process, probing
// variants against it. Implemented per-platform (collector_windows.go,
// collector_other.go).
type Opener func(processName string, variants []types.OffsetVariant) (Collector, error)

// Open is the platform-specific constructor, set by the build-tagged file
// linked into this binary.
var Open Opener

// SampleInterval is the nominal cadence between samples; drift is
// acceptable (§5). A var, not a const, so tests can shrink it.
var SampleInterval = 500 * time.Millisecond
