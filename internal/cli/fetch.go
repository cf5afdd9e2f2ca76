package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/forecastdb/internal/filter"
	"github.com/roach88/forecastdb/internal/page"
	"github.com/roach88/forecastdb/internal/schema"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	LOA        string
	Models     []string
	Components bool
	Page       int
	PageSize   int
	Count      bool

	ISO        []string
	GW         []int64
	Region     string
	Priogrid   []int64
	CountryIDs []int64
	GridBox    []int64
	Box        []float64
	Point      []float64
	From       string
	To         string
}

// FetchResult is one page of a run's table.
type FetchResult struct {
	Run        string     `json:"run"`
	Table      string     `json:"table"`
	FetchID    string     `json:"fetch_id"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Columns    []string   `json:"columns"`
	Rows       []page.Row `json:"rows"`
	TotalRows  *int64     `json:"total_rows,omitempty"`
	TotalPages *int64     `json:"total_pages,omitempty"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <run>",
		Short: "Fetch one page of a run's results",
		Long: `Fetch one page of a run's country-month or grid-month table.

Rows are ordered by month, then by country or cell id. All filters combine
with AND, except --region, which replaces every other country or cell
filter registered before it. --region is applied first, so the remaining
flags narrow the region further.

Example:
  forecastdb fetch r1 --loa cm --model ens_sb --model m1 --iso NOR,SWE
  forecastdb fetch r1 --loa pgm --model pg_ens --box=-5,5,30,40 --from 2020-01 --to 2020-06
  forecastdb fetch r1 --loa cm --model m1 --components --page 3 --count --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.LOA, "loa", "cm", "level of analysis (cm|pgm)")
	cmd.Flags().StringSliceVarP(&opts.Models, "model", "m", nil, "model to project (repeatable)")
	cmd.Flags().BoolVar(&opts.Components, "components", false, "also project each model's component columns")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "page number, 1-based")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "rows per page (default from config)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "report total rows and pages")

	cmd.Flags().StringSliceVar(&opts.ISO, "iso", nil, "ISO-3 alpha country codes")
	cmd.Flags().Int64SliceVar(&opts.GW, "gw", nil, "Gleditsch-Ward country codes")
	cmd.Flags().StringVar(&opts.Region, "region", "", "named region (replaces earlier filters)")
	cmd.Flags().Int64SliceVar(&opts.Priogrid, "pg", nil, "PRIO-GRID cell ids")
	cmd.Flags().Int64SliceVar(&opts.CountryIDs, "country-id", nil, "country ids")
	cmd.Flags().Int64SliceVar(&opts.GridBox, "grid-box", nil, "cell rectangle as corner1,corner2")
	cmd.Flags().Float64SliceVar(&opts.Box, "box", nil, "coordinate rectangle as lat1,lat2,lon1,lon2")
	cmd.Flags().Float64SliceVar(&opts.Point, "point", nil, "single coordinate as lat,lon")
	cmd.Flags().StringVar(&opts.From, "from", "", "first month (e.g. 2020-01-01, 2020-01, 2020, 01/02/2020)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last month (same forms as --from)")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *FetchOptions, runID string) error {
	loa, err := schema.ParseLOA(opts.LOA)
	if err != nil {
		return WrapRequestError("invalid --loa", err)
	}
	req, err := filterRequest(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter flags", err)
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := commandContext(cmd)
	formatter := newFormatter(cmd, opts.RootOptions)

	run, err := s.catalog.GetRun(runID)
	if err != nil {
		return WrapRequestError("unknown run", err)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.PageSize
	}
	f, err := page.New(run, page.Options{
		LOA:        loa,
		Models:     opts.Models,
		PageSize:   pageSize,
		Components: opts.Components,
	})
	if err != nil {
		return WrapRequestError("failed to create fetcher", err)
	}
	if err := f.Init(ctx); err != nil {
		return WrapRequestError("failed to initialize fetcher", err)
	}

	if err := f.Filters().Apply(ctx, req); err != nil {
		return WrapRequestError("failed to register filters", err)
	}
	formatter.VerboseLog("fetch %s: %d filter(s) on %s", f.ID(), f.Filters().Len(), f.Table())

	result := &FetchResult{
		Run:      run.ID,
		Table:    f.Table(),
		FetchID:  f.ID(),
		Page:     max(opts.Page, 1),
		PageSize: f.PageSize(),
	}
	if opts.Count {
		rows, pages, err := f.TotalCounts(ctx)
		if err != nil {
			return WrapRequestError("failed to count rows", err)
		}
		result.TotalRows, result.TotalPages = &rows, &pages
	}
	if result.Columns, err = f.Columns(ctx); err != nil {
		return WrapRequestError("failed to plan columns", err)
	}
	if result.Rows, err = f.Fetch(ctx, opts.Page); err != nil {
		return WrapRequestError("failed to fetch page", err)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeRows(formatter, result)
	return nil
}

// filterRequest converts the filter flags into a filter.Request.
func filterRequest(opts *FetchOptions) (filter.Request, error) {
	req := filter.Request{
		Region:     opts.Region,
		ISO:        opts.ISO,
		GW:         opts.GW,
		CountryIDs: opts.CountryIDs,
		Priogrid:   opts.Priogrid,
	}
	if len(opts.GridBox) > 0 {
		if len(opts.GridBox) != 2 {
			return req, fmt.Errorf("--grid-box wants 2 cell ids, got %d", len(opts.GridBox))
		}
		req.GridBox = &filter.GridBox{Corner1: opts.GridBox[0], Corner2: opts.GridBox[1]}
	}
	if len(opts.Box) > 0 {
		if len(opts.Box) != 4 {
			return req, fmt.Errorf("--box wants lat1,lat2,lon1,lon2, got %d values", len(opts.Box))
		}
		req.Box = &filter.LatLonBox{Lat1: opts.Box[0], Lat2: opts.Box[1], Lon1: opts.Box[2], Lon2: opts.Box[3]}
	}
	if len(opts.Point) > 0 {
		if len(opts.Point) != 2 {
			return req, fmt.Errorf("--point wants lat,lon, got %d values", len(opts.Point))
		}
		req.Point = &filter.LatLon{Lat: opts.Point[0], Lon: opts.Point[1]}
	}

	var err error
	if req.From, err = parseDateFlag("from", opts.From); err != nil {
		return req, err
	}
	if req.To, err = parseDateFlag("to", opts.To); err != nil {
		return req, err
	}
	return req, nil
}

// parseDateFlag parses value with filter.ParseDate. An empty value is nil.
func parseDateFlag(name, value string) (*filter.Date, error) {
	if value == "" {
		return nil, nil
	}
	t, err := filter.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &filter.Date{Time: t}, nil
}

func writeRows(formatter *OutputFormatter, result *FetchResult) {
	w := formatter.Writer
	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if result.TotalRows != nil {
		fmt.Fprintf(w, "page %d of %d (%d rows)\n", result.Page, *result.TotalPages, *result.TotalRows)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
