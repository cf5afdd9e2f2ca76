// Package catalog enumerates forecast runs and resolves per-run metadata.
//
// A Catalog is loaded once by Open and never refreshed; open a new one to
// observe runs registered afterwards. Run identifiers are case-folded, so
// "R1" and "r1" name the same run.
//
// # Model Trees
//
// Each run's model hierarchy lives in a self-referential parent/child table,
// split by level of analysis and type of violence. Run.ModelTree walks all
// eight axes with an explicit work list starting from the empty root symbol.
//
// A leaf ends its own call chain and contributes no edge: a parent whose
// children are all leaves yields exactly its (parent, child) pairs, and an
// axis whose root has no children is empty. This truncation is inherited
// from the production resolver and is kept as-is pending product review.
//
// The tree is resolved at most once per Run. Concurrent first callers share
// a single resolution; a failed resolution is not cached.
package catalog
