// Package results holds the typed values, rows and tables that flow out of
// validation runs.
//
// A Row is one validation's result for one model. Three columns are reserved
// for engine metadata (validation_id, model_id, runtime_secs) and a Table is
// conceptually keyed by the (validation_id, model_id) pair.
//
// Values are a sealed set of scalars (String, Int, Float, Bool, Null). Their
// cell encoding is chosen so that a Float never reloads as an Int, which keeps
// a table identical across a write/load cycle.
package results
