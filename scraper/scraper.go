package scraper

import (
	"log"
	"time"

	"github.com/gbl08ma/sqalx"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// Scraper is something that runs in the background retrieving data about the
// fleet. Scrapers may report duplicate readings to their callbacks.
type Scraper interface {
	ID() string
	Init(node sqalx.Node, log *log.Logger) error
	Begin()
	End()
	Running() bool
	LastUpdate() time.Time
}

// PositionScraper runs in the background retrieving live vessel positions
type PositionScraper interface {
	Scraper
	Positions() []*dataobjects.VesselPosition
}

// ScheduleScraper runs in the background retrieving the published sailing
// schedule over a rolling forward window
type ScheduleScraper interface {
	Scraper
}

// BulletinScraper runs in the background retrieving operational bulletins
// posted for terminals
type BulletinScraper interface {
	Scraper
	Bulletins(terminal string) []*dataobjects.Bulletin
}
