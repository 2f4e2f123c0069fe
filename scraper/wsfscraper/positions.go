package wsfscraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/gbl08ma/sqalx"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// PositionScraper polls the vessel locations feed
type PositionScraper struct {
	running          bool
	ticker           *time.Ticker
	stopChan         chan struct{}
	log              *log.Logger
	previousResponse []byte

	// snapshotMutex guards lastUpdate and positions, which other
	// goroutines read through LastUpdate and Positions
	snapshotMutex sync.RWMutex
	lastUpdate    time.Time
	positions     []*dataobjects.VesselPosition

	EndpointURL          string
	AccessCode           string
	HTTPClient           *http.Client
	Period               time.Duration
	NewPositionsCallback func(positions []*dataobjects.VesselPosition)
}

// ID returns the ID of this scraper
func (sc *PositionScraper) ID() string {
	return "sc-wsf-positions"
}

// Init initializes the scraper
func (sc *PositionScraper) Init(node sqalx.Node, log *log.Logger) error {
	sc.log = log
	if sc.HTTPClient == nil {
		sc.HTTPClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if sc.EndpointURL == "" {
		return errors.New("PositionScraper: endpoint URL missing")
	}
	return nil
}

// Begin starts the scraper
func (sc *PositionScraper) Begin() {
	sc.stopChan = make(chan struct{}, 1)
	sc.ticker = time.NewTicker(sc.Period)
	sc.running = true
	sc.log.Println("Position scraper starting")
	sc.update()
	sc.log.Println("Position scraper completed first fetch")
	go sc.mainLoop()
}

// End stops the scraper
func (sc *PositionScraper) End() {
	sc.ticker.Stop()
	close(sc.stopChan)
	sc.running = false
}

// Running returns whether the scraper is running
func (sc *PositionScraper) Running() bool {
	return sc.running
}

// LastUpdate returns the time of the last successful fetch
func (sc *PositionScraper) LastUpdate() time.Time {
	sc.snapshotMutex.RLock()
	defer sc.snapshotMutex.RUnlock()
	return sc.lastUpdate
}

// Positions returns the latest position snapshot for the whole fleet
func (sc *PositionScraper) Positions() []*dataobjects.VesselPosition {
	sc.snapshotMutex.RLock()
	defer sc.snapshotMutex.RUnlock()
	return sc.positions
}

func (sc *PositionScraper) mainLoop() {
	for {
		select {
		case <-sc.ticker.C:
			sc.update()
		case <-sc.stopChan:
			return
		}
	}
}

type positionResponse struct {
	VesselID     int      `json:"VesselID"`
	VesselAbbrev string   `json:"VesselAbbrev"`
	Latitude     float64  `json:"Latitude"`
	Longitude    float64  `json:"Longitude"`
	Heading      *float64 `json:"Heading"`
	Speed        *float64 `json:"Speed"`
	InService    bool     `json:"InService"`
	AtDock       bool     `json:"AtDock"`
	TimeStamp    string   `json:"TimeStamp"`
}

func (sc *PositionScraper) update() {
	response, err := sc.HTTPClient.Get(sc.EndpointURL + "?apiaccesscode=" + sc.AccessCode)
	if err != nil {
		sc.log.Println(err)
		return
	}
	defer response.Body.Close()
	content, err := ioutil.ReadAll(response.Body)
	if err != nil {
		sc.log.Println(err)
		return
	}
	if bytes.Equal(content, sc.previousResponse) {
		return
	}
	sc.previousResponse = content

	var decoded []positionResponse
	err = json.Unmarshal(content, &decoded)
	if err != nil {
		sc.log.Println("Error decoding vessel positions:", err)
		return
	}

	positions := []*dataobjects.VesselPosition{}
	for _, item := range decoded {
		timestamp, err := parseFeedTime(item.TimeStamp)
		if err != nil {
			sc.log.Printf("Skipping position for %s: %v\n", item.VesselAbbrev, err)
			continue
		}
		position := &dataobjects.VesselPosition{
			VesselID:  item.VesselID,
			Vessel:    item.VesselAbbrev,
			Latitude:  item.Latitude,
			Longitude: item.Longitude,
			InService: item.InService,
			AtDock:    item.AtDock,
			Time:      timestamp,
		}
		if item.Heading != nil {
			position.Heading = *item.Heading
			position.HasHeading = true
		}
		if item.Speed != nil {
			position.Speed = *item.Speed
			position.HasSOG = true
		}
		positions = append(positions, position)
	}

	sc.snapshotMutex.Lock()
	sc.positions = positions
	sc.lastUpdate = time.Now()
	sc.snapshotMutex.Unlock()
	sc.log.Printf("New fleet snapshot with %d vessels\n", len(positions))
	if sc.NewPositionsCallback != nil {
		sc.NewPositionsCallback(positions)
	}
}

var dotNetDateRegexp = regexp.MustCompile(`/Date\((-?\d+)(?:[+-]\d{4})?\)/`)

// parseFeedTime parses the feed's timestamps, which are either epoch
// milliseconds or the .NET "/Date(ms±zzzz)/" wire format
func parseFeedTime(value string) (time.Time, error) {
	if matches := dotNetDateRegexp.FindStringSubmatch(value); matches != nil {
		ms, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return utils.TimeFromMillis(ms), nil
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
	}
	return utils.TimeFromMillis(ms), nil
}
