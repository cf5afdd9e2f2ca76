// Package harness runs conformance scenarios against a forecast database.
//
// A scenario is a YAML file describing one fetch request (run, level of
// analysis, models, filters, page size and the pages to read) together with
// assertions over what the request returns:
//
//	name: gw_example
//	description: Gleditsch-Ward code 2 selects the United States
//	run: r1
//	loa: cm
//	models: [m1]
//	page_size: 2
//	filters:
//	  gw: [2]
//	pages: [1]
//	assertions:
//	  - type: total_rows
//	    count: 2
//	  - type: column_values
//	    page: 1
//	    column: sc_m1
//	    values: [0.6543, 0.1235]
//
// Supported assertion types:
//   - columns: the projected column list equals Columns
//   - column_values: a page's values for Column equal Values
//   - row_count: a page holds exactly Count rows
//   - total_rows, total_pages: the filtered totals equal Count
//   - error: the request failed with the error code Code
//
// Run executes every step through the same page.Fetcher the CLI uses and
// records a trace of steps. Domain failures (unknown run, table or column,
// coordinates outside the raster) end the trace and are matched by error
// assertions. Storage failures abort the scenario.
//
// RunWithGolden additionally compares the trace against
// testdata/golden/<name>.golden. To regenerate golden files:
//
//	go test ./internal/harness -update
package harness
