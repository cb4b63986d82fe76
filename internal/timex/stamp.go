package timex

import (
	"fmt"
	"time"

	// Zone data is embedded so the default zone resolves in scratch images.
	_ "time/tzdata"
)

const (
	DefaultStampLayout = "02/01/2006, 15:04:05"
	DefaultStampZone   = "America/Sao_Paulo"
)

// Stamper renders the createdAt/updatedAt strings stored on user records.
type Stamper struct {
	Layout   string
	Location *time.Location
	Now      func() time.Time
}

// NewStamper loads zone and returns a Stamper using the wall clock. Empty
// layout or zone fall back to the defaults.
func NewStamper(layout, zone string) (*Stamper, error) {
	if layout == "" {
		layout = DefaultStampLayout
	}
	if zone == "" {
		zone = DefaultStampZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return &Stamper{Layout: layout, Location: loc, Now: time.Now}, nil
}

// Stamp formats the current instant.
func (s *Stamper) Stamp() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := s.Layout
	if layout == "" {
		layout = DefaultStampLayout
	}
	return now().In(loc).Format(layout)
}
