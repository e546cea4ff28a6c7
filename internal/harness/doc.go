// Package harness runs conformance scenarios against the gauntlet engine.
//
// A scenario names a run plan and a sequence of steps. Each step is a real
// engine run over the same results table, optionally with its own
// force_rerun and parallel settings, so a scenario can check incremental
// behaviour: which pairs ran in which step, what the table kept, and which
// artefacts were written. Runs use a stepping clock and fixed run IDs, and
// each scenario gets its own work directory.
//
// Scenarios are YAML files:
//
//	name: incremental
//	description: second run only fills gaps
//	plan: ../plans/cv.yaml
//	steps:
//	  - name: initial
//	    expect_ran: 6
//	  - name: repeat
//	    expect_ran: 0
//	assertions:
//	  - type: row_count
//	    count: 6
//
// RunWithGolden compares the final table's shape against
// testdata/golden/<name>.golden.
package harness
