package wsfscraper

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// BulletinScraper scrapes the operational bulletins page of the terminal
// condition website
type BulletinScraper struct {
	running    bool
	ticker     *time.Ticker
	stopChan   chan struct{}
	log        *log.Logger
	lastUpdate time.Time
	bulletins  map[string][]*dataobjects.Bulletin

	BaseURL             string
	Terminals           []string
	HTTPClient          *http.Client
	Period              time.Duration
	NewBulletinCallback func(bulletin *dataobjects.Bulletin)
}

// ID returns the ID of this scraper
func (sc *BulletinScraper) ID() string {
	return "sc-wsf-bulletins"
}

// Init initializes the scraper
func (sc *BulletinScraper) Init(node sqalx.Node, log *log.Logger) error {
	sc.log = log
	sc.bulletins = make(map[string][]*dataobjects.Bulletin)
	if sc.HTTPClient == nil {
		sc.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if sc.BaseURL == "" {
		return errors.New("BulletinScraper: base URL missing")
	}
	return nil
}

// Begin starts the scraper
func (sc *BulletinScraper) Begin() {
	sc.stopChan = make(chan struct{}, 1)
	sc.ticker = time.NewTicker(sc.Period)
	sc.running = true
	sc.log.Println("Bulletin scraper starting")
	sc.update()
	go sc.mainLoop()
}

// End stops the scraper
func (sc *BulletinScraper) End() {
	sc.ticker.Stop()
	close(sc.stopChan)
	sc.running = false
}

// Running returns whether the scraper is running
func (sc *BulletinScraper) Running() bool {
	return sc.running
}

// LastUpdate returns the time of the last successful fetch
func (sc *BulletinScraper) LastUpdate() time.Time {
	return sc.lastUpdate
}

// Bulletins returns the latest bulletins scraped for the specified terminal
func (sc *BulletinScraper) Bulletins(terminal string) []*dataobjects.Bulletin {
	return sc.bulletins[terminal]
}

func (sc *BulletinScraper) mainLoop() {
	for {
		select {
		case <-sc.ticker.C:
			sc.update()
		case <-sc.stopChan:
			return
		}
	}
}

func (sc *BulletinScraper) update() {
	for _, terminal := range sc.Terminals {
		bulletins, err := sc.fetchTerminal(terminal)
		if err != nil {
			sc.log.Println(err)
			continue
		}
		sc.bulletins[terminal] = bulletins
		if sc.NewBulletinCallback != nil {
			for _, bulletin := range bulletins {
				sc.NewBulletinCallback(bulletin)
			}
		}
	}
	sc.lastUpdate = time.Now()
}

func (sc *BulletinScraper) fetchTerminal(terminal string) ([]*dataobjects.Bulletin, error) {
	response, err := sc.HTTPClient.Get(sc.BaseURL + "/" + terminal)
	if err != nil {
		return nil, fmt.Errorf("fetchTerminal %s: %s", terminal, err)
	}
	defer response.Body.Close()

	doc, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return nil, fmt.Errorf("fetchTerminal %s: %s", terminal, err)
	}

	bulletins := []*dataobjects.Bulletin{}
	doc.Find(".bulletin").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").First().Text())
		body := strings.TrimSpace(s.Find("p").Text())
		if title == "" && body == "" {
			return
		}
		posted := time.Now()
		if stamp, ok := s.Find("time").First().Attr("datetime"); ok {
			if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
				posted = parsed
			}
		}
		id, err := uuid.NewV4()
		if err != nil {
			sc.log.Println(err)
			return
		}
		bulletins = append(bulletins, &dataobjects.Bulletin{
			ID:       id.String(),
			Terminal: terminal,
			Title:    title,
			Body:     body,
			Posted:   posted,
		})
	})
	return bulletins, nil
}
