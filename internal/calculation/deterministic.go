package calculation

import "time"

// nowFunc is the engine clock. Tests pin it so lastRunAt and execution times are stable.
var nowFunc = time.Now

// SetNowFunc replaces the engine clock (tests only).
func SetNowFunc(f func() time.Time) { nowFunc = f }

// runStamp is the lastRunAt value recorded for a run: UTC, whole seconds.
func runStamp() time.Time { return nowFunc().UTC().Truncate(time.Second) }
