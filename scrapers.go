package main

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/gbl08ma/sqalx"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/scraper"
	"github.com/salishsea/ferrytrack/scraper/wsfscraper"
)

const (
	vesselLocationsURL = "https://www.wsdot.wa.gov/ferries/api/vessels/rest/vessellocations"
	scheduleURL        = "https://www.wsdot.wa.gov/ferries/api/schedule/rest/scheduletoday"
	bulletinsBaseURL   = "https://www.wsdot.com/ferries/vesselwatch/terminals"
)

var (
	positionscr scraper.PositionScraper
	schedulescr scraper.ScheduleScraper
	bulletinscr scraper.BulletinScraper

	scrapers = make(map[string]scraper.Scraper)
)

// SetUpScrapers initializes and starts the scrapers used to obtain fleet information
func SetUpScrapers(node sqalx.Node) error {
	accessCode, present := secrets.Get("trafficAPIaccessCode")
	if !present {
		return errors.New("Traffic API access code not present in keybox")
	}

	positionscr = &wsfscraper.PositionScraper{
		NewPositionsCallback: handleNewPositions,
		EndpointURL:          vesselLocationsURL,
		AccessCode:           accessCode,
		Period:               15 * time.Second,
	}
	err := positionscr.Init(node,
		log.New(os.Stdout, "positionscraper", log.Ldate|log.Ltime))
	if err != nil {
		return err
	}
	positionscr.Begin()
	scrapers[positionscr.ID()] = positionscr

	schedulescr = &wsfscraper.ScheduleScraper{
		NewTripCallback: handleNewScheduledTrip,
		EndpointURL:     scheduleURL,
		AccessCode:      accessCode,
		Period:          30 * time.Minute,
		WindowDays:      2,
	}
	err = schedulescr.Init(node,
		log.New(os.Stdout, "schedulescraper", log.Ldate|log.Ltime))
	if err != nil {
		return err
	}
	schedulescr.Begin()
	scrapers[schedulescr.ID()] = schedulescr

	return nil
}

// TearDownScrapers terminates and cleans up the scrapers used to obtain fleet information
func TearDownScrapers() {
	positionscr.End()
	schedulescr.End()
}

func handleNewPositions(positions []*dataobjects.VesselPosition) {
	tx, err := rootSqalxNode.Beginx()
	if err != nil {
		mainLog.Println(err)
		return
	}
	defer tx.Rollback()

	for _, position := range positions {
		err = position.Update(tx)
		if err != nil {
			mainLog.Println(err)
			return
		}
	}

	err = tx.Commit()
	if err != nil {
		mainLog.Println(err)
		return
	}

	err = tripHandler.ProcessAll(rootSqalxNode, positions)
	if err != nil {
		mainLog.Println(err)
		return
	}

	lastChange = time.Now().UTC()
}

func handleNewScheduledTrip(trip *dataobjects.ScheduledTrip) {
	tx, err := rootSqalxNode.Beginx()
	if err != nil {
		mainLog.Println(err)
		return
	}
	defer tx.Rollback()

	// keep the vessel and terminal registries in sync with what the
	// schedule advertises
	if _, err := dataobjects.GetVessel(tx, trip.Vessel); err != nil {
		vessel := &dataobjects.Vessel{
			Abbrev:    trip.Vessel,
			Name:      trip.Vessel,
			InService: true,
		}
		if err := vessel.Update(tx); err != nil {
			mainLog.Println(err)
			return
		}
	}
	for _, abbrev := range []string{trip.DepartingTerminal, trip.ArrivingTerminal} {
		if _, err := dataobjects.GetTerminal(tx, abbrev); err != nil {
			terminal := &dataobjects.Terminal{
				Abbrev: abbrev,
				Name:   abbrev,
			}
			if err := terminal.Update(tx); err != nil {
				mainLog.Println(err)
				return
			}
		}
	}

	err = trip.Update(tx)
	if err != nil {
		mainLog.Println(err)
		return
	}

	tx.Commit()
}

// SetUpBulletins sets up the scraper used to obtain terminal bulletins
func SetUpBulletins(terminals []string) {
	bulletinscr = &wsfscraper.BulletinScraper{
		NewBulletinCallback: handleNewBulletin,
		BaseURL:             bulletinsBaseURL,
		Terminals:           terminals,
		Period:              10 * time.Minute,
	}
	err := bulletinscr.Init(rootSqalxNode,
		log.New(os.Stdout, "bulletinscraper", log.Ldate|log.Ltime))
	if err != nil {
		mainLog.Println(err)
		return
	}
	bulletinscr.Begin()
	scrapers[bulletinscr.ID()] = bulletinscr
}

// TearDownBulletins terminates and cleans up the bulletin scraper
func TearDownBulletins() {
	if bulletinscr != nil {
		bulletinscr.End()
	}
}

func handleNewBulletin(bulletin *dataobjects.Bulletin) {
	tx, err := rootSqalxNode.Beginx()
	if err != nil {
		mainLog.Println(err)
		return
	}
	defer tx.Rollback()

	// the scraper reposts the whole page on every pass, only store
	// bulletins we have not seen yet
	existing, err := dataobjects.GetBulletinsForTerminal(tx, bulletin.Terminal)
	if err != nil {
		mainLog.Println(err)
		return
	}
	for _, e := range existing {
		if e.Terminal == bulletin.Terminal && e.Title == bulletin.Title && e.Body == bulletin.Body {
			return
		}
	}

	err = bulletin.Update(tx)
	if err != nil {
		mainLog.Println(err)
		return
	}

	tx.Commit()
}
