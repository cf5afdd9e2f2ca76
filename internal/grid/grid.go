// Package grid maps between PRIO-GRID cell identifiers, (row, column)
// positions and geographic coordinates.
//
// The raster covers the globe in 0.5 degree cells: 360 rows by 720 columns,
// with row 0 and column 0 at the south-west corner (-90, -180). Identifiers
// are 1-based:
//
//	id = row*Cols + col + 1
//
// This package is the only place coordinate arithmetic happens. Filters and
// commands go through it for every box and point lookup.
package grid

import (
	"math"

	"github.com/roach88/forecastdb/internal/errs"
)

const (
	// CellSize is the edge length of a cell in degrees.
	CellSize = 0.5

	// Rows is the number of cell rows (latitude bands).
	Rows = 360

	// Cols is the number of cell columns (longitude bands).
	Cols = 720

	// MaxID is the largest valid cell identifier.
	MaxID = Rows * Cols

	originLat = -90.0
	originLon = -180.0
)

// CellOf returns the identifier of the cell at (row, col).
func CellOf(row, col int) (int64, error) {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return 0, errs.OutOfBounds("row %d, col %d outside %dx%d raster", row, col, Rows, Cols)
	}
	return idOf(row, col), nil
}

func idOf(row, col int) int64 {
	return int64(row)*Cols + int64(col) + 1
}

// RowColOf returns the (row, col) position of a cell identifier.
func RowColOf(id int64) (row, col int, err error) {
	if id < 1 || id > MaxID {
		return 0, 0, errs.OutOfBounds("cell id %d outside [1, %d]", id, MaxID)
	}
	zero := id - 1
	return int(zero / Cols), int(zero % Cols), nil
}

// CellOfLatLon returns the identifier of the cell containing (lat, lon).
//
// Points on a cell's south or west edge belong to that cell. The north pole
// and the antimeridian at +180 fold into the last row and column.
func CellOfLatLon(lat, lon float64) (int64, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, errs.OutOfBounds("coordinate (%g, %g) outside [-90, 90] x [-180, 180]", lat, lon)
	}
	row := int(math.Floor((lat - originLat) / CellSize))
	col := int(math.Floor((lon - originLon) / CellSize))
	if row == Rows {
		row = Rows - 1
	}
	if col == Cols {
		col = Cols - 1
	}
	return CellOf(row, col)
}

// CenterOf returns the latitude and longitude of a cell's center.
func CenterOf(id int64) (lat, lon float64, err error) {
	row, col, err := RowColOf(id)
	if err != nil {
		return 0, 0, err
	}
	lat = originLat + (float64(row)+0.5)*CellSize
	lon = originLon + (float64(col)+0.5)*CellSize
	return lat, lon, nil
}

// Rect returns every cell in the closed row/column rectangle spanned by two
// corner cells. Corner order does not matter. Cells are listed column by
// column, south to north within each column.
func Rect(corner1, corner2 int64) ([]int64, error) {
	row1, col1, err := RowColOf(corner1)
	if err != nil {
		return nil, err
	}
	row2, col2, err := RowColOf(corner2)
	if err != nil {
		return nil, err
	}
	if row1 > row2 {
		row1, row2 = row2, row1
	}
	if col1 > col2 {
		col1, col2 = col2, col1
	}

	ids := make([]int64, 0, (row2-row1+1)*(col2-col1+1))
	for col := col1; col <= col2; col++ {
		for row := row1; row <= row2; row++ {
			ids = append(ids, idOf(row, col))
		}
	}
	return ids, nil
}
