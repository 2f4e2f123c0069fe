package wsfscraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"time"

	"github.com/gbl08ma/sqalx"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// ScheduleScraper polls the published sailing schedule over a rolling
// forward window
type ScheduleScraper struct {
	running    bool
	ticker     *time.Ticker
	stopChan   chan struct{}
	log        *log.Logger
	lastUpdate time.Time

	EndpointURL     string
	AccessCode      string
	HTTPClient      *http.Client
	Period          time.Duration
	WindowDays      int
	NewTripCallback func(trip *dataobjects.ScheduledTrip)
}

// ID returns the ID of this scraper
func (sc *ScheduleScraper) ID() string {
	return "sc-wsf-schedule"
}

// Init initializes the scraper
func (sc *ScheduleScraper) Init(node sqalx.Node, log *log.Logger) error {
	sc.log = log
	if sc.HTTPClient == nil {
		sc.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if sc.WindowDays == 0 {
		sc.WindowDays = 2
	}
	if sc.EndpointURL == "" {
		return errors.New("ScheduleScraper: endpoint URL missing")
	}
	return nil
}

// Begin starts the scraper
func (sc *ScheduleScraper) Begin() {
	sc.stopChan = make(chan struct{}, 1)
	sc.ticker = time.NewTicker(sc.Period)
	sc.running = true
	sc.log.Println("Schedule scraper starting")
	sc.update()
	sc.log.Println("Schedule scraper completed first fetch")
	go sc.mainLoop()
}

// End stops the scraper
func (sc *ScheduleScraper) End() {
	sc.ticker.Stop()
	close(sc.stopChan)
	sc.running = false
}

// Running returns whether the scraper is running
func (sc *ScheduleScraper) Running() bool {
	return sc.running
}

// LastUpdate returns the time of the last successful fetch
func (sc *ScheduleScraper) LastUpdate() time.Time {
	return sc.lastUpdate
}

func (sc *ScheduleScraper) mainLoop() {
	for {
		select {
		case <-sc.ticker.C:
			sc.update()
		case <-sc.stopChan:
			return
		}
	}
}

type scheduleResponse struct {
	TerminalCombos []struct {
		DepartingTerminalName string `json:"DepartingTerminalName"`
		ArrivingTerminalName  string `json:"ArrivingTerminalName"`
		Times                 []struct {
			DepartingTime string `json:"DepartingTime"`
			VesselName    string `json:"VesselName"`
		} `json:"Times"`
	} `json:"TerminalCombos"`
}

func (sc *ScheduleScraper) update() {
	today := time.Now()
	for day := 0; day < sc.WindowDays; day++ {
		err := sc.fetchDay(today.AddDate(0, 0, day))
		if err != nil {
			sc.log.Println(err)
			return
		}
	}
	sc.lastUpdate = time.Now()
}

func (sc *ScheduleScraper) fetchDay(day time.Time) error {
	url := fmt.Sprintf("%s/%s?apiaccesscode=%s", sc.EndpointURL, day.Format("2006-01-02"), sc.AccessCode)
	response, err := sc.HTTPClient.Get(url)
	if err != nil {
		return fmt.Errorf("fetchDay: %s", err)
	}
	defer response.Body.Close()
	content, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("fetchDay: %s", err)
	}

	var decoded scheduleResponse
	err = json.Unmarshal(content, &decoded)
	if err != nil {
		return fmt.Errorf("fetchDay: error decoding schedule: %s", err)
	}

	count := 0
	for _, combo := range decoded.TerminalCombos {
		for _, sailing := range combo.Times {
			departing, err := parseFeedTime(sailing.DepartingTime)
			if err != nil {
				sc.log.Printf("Skipping sailing %s -> %s: %v\n",
					combo.DepartingTerminalName, combo.ArrivingTerminalName, err)
				continue
			}
			trip := &dataobjects.ScheduledTrip{
				Key: fmt.Sprintf("%s#%d#%s#%s", sailing.VesselName, departing.Unix(),
					combo.DepartingTerminalName, combo.ArrivingTerminalName),
				Vessel:            sailing.VesselName,
				DepartingTerminal: combo.DepartingTerminalName,
				ArrivingTerminal:  combo.ArrivingTerminalName,
				DepartingTime:     departing,
			}
			if sc.NewTripCallback != nil {
				sc.NewTripCallback(trip)
			}
			count++
		}
	}
	sc.log.Printf("Schedule for %s: %d sailings\n", day.Format("2006-01-02"), count)
	return nil
}
