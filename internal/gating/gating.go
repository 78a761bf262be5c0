// Package gating enforces the information-flow invariant between secondary
// signals and core scoring: a bot whose entire source set is
// secondary-signal-only must never populate core metrics. A violation is a
// code defect in a bot implementation, not a runtime data problem, so it is
// raised unconditionally rather than logged and ignored.
package gating

import (
	"fmt"
	"sort"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// Validate checks a bot output against the owning bot's source set. It is run
// synchronously after every fetch, before the output is cached or returned.
// Panics on violation; callers must not recover it into a warning.
func Validate(sources []registry.Source, out *signal.BotOutput) {
	if !registry.SecondaryOnly(sources) {
		return
	}
	if len(out.CoreMetrics) == 0 {
		return
	}
	keys := make([]string, 0, len(out.CoreMetrics))
	for k := range out.CoreMetrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	panic(fmt.Sprintf(
		"gating violation: bot %q is built on secondary-signal-only sources but populated core metrics %v",
		out.BotID, keys,
	))
}
