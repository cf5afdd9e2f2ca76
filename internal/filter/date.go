package filter

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"
)

// ParseDate reads a month boundary in any common layout ("2020-02-01",
// "2020-02", "2020", "01/02/2020", "feb 1, 2020", RFC 3339). Dates without
// a zone are UTC. A missing day or month means the first of the period.
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Date is a time decoded through ParseDate, so scenario files accept the
// same forms as the command line.
type Date struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	t, err := ParseDate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Time = t
	return nil
}

// timeOf returns nil for a nil d.
func timeOf(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
