// Package catalog provides the built-in models and validations that plans
// can reference by name.
//
// Models are small binary classifiers over dense feature vectors.
// Validations score a Classifier on a deterministic synthetic dataset:
// CrossValidation reports per-fold accuracy with its mean and standard
// deviation, Holdout reports a single accuracy under "result".
//
// Entry-point references take the form
//
//	gauntlet/catalog/models:LinearSVC
//	gauntlet/catalog/validations:CrossValidation
package catalog
