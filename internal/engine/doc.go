// Package engine runs every registered validation against every registered
// model and records the results.
//
// Run executes pairs one after another in registration order (validations
// outer, models inner) and persists the merged table once at the end.
// RunParallel executes pairs on a bounded worker pool and streams each row
// to the store as it completes, so an interrupted run keeps its finished
// rows. Both return the merged table.
//
// Pairs already present in the prior results are skipped unless a
// ForceRerun (or any other SkipPolicy) says otherwise. Deprecated specs
// never run.
//
// Each job makes its own validation and model instances; nothing is shared
// between jobs.
package engine
