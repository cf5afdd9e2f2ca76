package filter

import "context"

// Request is a declarative bundle of filter requests, as read from command
// line flags or scenario files. The zero value registers nothing.
type Request struct {
	Region     string     `yaml:"region,omitempty" json:"region,omitempty"`
	ISO        []string   `yaml:"iso,omitempty" json:"iso,omitempty"`
	GW         []int64    `yaml:"gw,omitempty" json:"gw,omitempty"`
	CountryIDs []int64    `yaml:"country_ids,omitempty" json:"country_ids,omitempty"`
	Priogrid   []int64    `yaml:"pg,omitempty" json:"pg,omitempty"`
	GridBox    *GridBox   `yaml:"grid_box,omitempty" json:"grid_box,omitempty"`
	Box        *LatLonBox `yaml:"box,omitempty" json:"box,omitempty"`
	Point      *LatLon    `yaml:"point,omitempty" json:"point,omitempty"`
	From       *Date      `yaml:"from,omitempty" json:"from,omitempty"`
	To         *Date      `yaml:"to,omitempty" json:"to,omitempty"`
}

// Apply registers every field of r on s. Region goes first, so the other
// fields narrow the region instead of being discarded by it.
func (s *Set) Apply(ctx context.Context, r Request) error {
	if r.Region != "" {
		if err := s.Region(ctx, r.Region); err != nil {
			return err
		}
	}
	if err := s.ISO(ctx, r.ISO); err != nil {
		return err
	}
	if err := s.GW(ctx, r.GW); err != nil {
		return err
	}
	s.CountryIDs(r.CountryIDs)
	s.Priogrid(r.Priogrid)
	if err := s.GridBox(r.GridBox); err != nil {
		return err
	}
	if err := s.LatLonBox(r.Box); err != nil {
		return err
	}
	if err := s.Point(r.Point); err != nil {
		return err
	}
	s.Months(timeOf(r.From), timeOf(r.To))
	return nil
}
