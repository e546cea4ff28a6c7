// Package queryir describes filters over a result table independently of
// where the table is stored.
//
// A Select names the columns to keep and a Predicate the rows must match.
// Backends either evaluate a Select in memory (Apply, for CSV tables) or
// compile it to their own query language (package querysql, for SQLite).
// Both must agree on which rows match:
//
//	Equals{Column: "model_id", Value: results.String("SVC-v1")}
//	Equals{Column: "mean_score", Value: results.Null{}} // cell is empty
//	And{Predicates: [...]}                              // all must match
//
// Predicate is a sealed interface; only this package defines its variants,
// so backends can switch on it exhaustively.
//
// Value comparison is typed: a String never equals a number and a Bool
// only equals a Bool. Int and Float compare numerically, so "1" matches a
// cell holding 1.0.
package queryir
