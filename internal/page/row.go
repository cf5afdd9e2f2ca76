package page

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Row is one result row. Values line up with Columns, in projection order.
// Numeric values are decimal.Decimal rounded to four places; SQL NULL is nil.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the row as an object whose keys keep column order.
// Decimals are written as JSON numbers.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		switch v := r.Values[i].(type) {
		case decimal.Decimal:
			buf.WriteString(v.String())
		default:
			val, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
