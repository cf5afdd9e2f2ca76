// Package filter accumulates row-selection predicates for a wide-table query.
//
// A Set turns high-level filter requests (regions, ISO-3 codes,
// Gleditsch-Ward codes, grid cells, bounding boxes, points, month ranges)
// into primitive predicates over a single identifier column. Predicates are
// ANDed by the query compiler; their order never changes the result.
//
// Requests are additive, with one exception: Region replaces everything
// registered so far with the region's country list. Nil or empty inputs, and
// ISO codes that are not three letters after trimming, register nothing.
// Coordinates outside the raster always fail with errs.CodeOutOfBounds.
//
// # Predicates
//
// Predicate is a sealed interface; only this package implements it:
//   - InSet: column value is one of Values
//   - Mapped: column value is linked to one of Values through the
//     grid-to-country mapping table
//
// Predicates hold values only. SQL text is produced by package querysql.
package filter
