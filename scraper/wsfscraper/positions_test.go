package wsfscraper

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/salishsea/ferrytrack/dataobjects"
)

func TestParseFeedTime(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"/Date(1767139200000-0800)/", time.Unix(1767139200, 0).UTC(), false},
		{"/Date(1767139200500+0000)/", time.Unix(1767139200, 500*int64(time.Millisecond)).UTC(), false},
		{"/Date(1767139200000)/", time.Unix(1767139200, 0).UTC(), false},
		{"1767139200000", time.Unix(1767139200, 0).UTC(), false},
		{"not a date", time.Time{}, true},
		{"/Date(nonsense)/", time.Time{}, true},
	}
	for _, test := range tests {
		got, err := parseFeedTime(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("parseFeedTime(%q): expected error, got %v", test.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFeedTime(%q): %v", test.input, err)
			continue
		}
		if !got.Equal(test.want) {
			t.Errorf("parseFeedTime(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

func TestPositionScraperDecodesFeed(t *testing.T) {
	payload := `[
		{"VesselID": 1, "VesselAbbrev": "WAL", "Latitude": 47.6, "Longitude": -122.3,
		 "Heading": 270, "Speed": 16.5, "InService": true, "AtDock": false,
		 "TimeStamp": "/Date(1767139200000-0800)/"},
		{"VesselID": 2, "VesselAbbrev": "TAC", "Latitude": 47.5, "Longitude": -122.4,
		 "Heading": 0, "Speed": null, "InService": true, "AtDock": true,
		 "TimeStamp": "/Date(1767139260000-0800)/"},
		{"VesselID": 3, "VesselAbbrev": "KIT", "Latitude": 47.4, "Longitude": -122.5,
		 "Heading": null, "Speed": null, "InService": false, "AtDock": true,
		 "TimeStamp": "/Date(1767139260000-0800)/"}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	var got []*dataobjects.VesselPosition
	calls := 0
	sc := &PositionScraper{
		EndpointURL: server.URL,
		Period:      time.Minute,
		NewPositionsCallback: func(positions []*dataobjects.VesselPosition) {
			got = positions
			calls++
		},
	}
	err := sc.Init(nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}

	sc.update()
	if calls != 1 {
		t.Fatalf("expected 1 callback, got %d", calls)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(got))
	}
	if got[0].Vessel != "WAL" || !got[0].HasSOG || got[0].Speed != 16.5 {
		t.Errorf("unexpected first position: %+v", got[0])
	}
	if got[1].Vessel != "TAC" || got[1].HasSOG {
		t.Errorf("a null feed speed should leave HasSOG unset: %+v", got[1])
	}
	if !got[1].HasHeading || got[1].Heading != 0 {
		t.Errorf("a feed heading of 0 is due north, not missing: %+v", got[1])
	}
	if !got[1].AtDock || got[1].Time.IsZero() {
		t.Errorf("unexpected second position: %+v", got[1])
	}
	if got[2].Vessel != "KIT" || got[2].HasHeading {
		t.Errorf("a null feed heading should leave HasHeading unset: %+v", got[2])
	}
	if len(sc.Positions()) != 3 {
		t.Errorf("expected snapshot with 3 positions, got %d", len(sc.Positions()))
	}
	if sc.LastUpdate().IsZero() {
		t.Error("LastUpdate not set after a successful fetch")
	}

	// an identical payload must not trigger another callback
	sc.update()
	if calls != 1 {
		t.Errorf("identical payload reprocessed, callbacks = %d", calls)
	}
}

func TestPositionScraperSnapshotConcurrency(t *testing.T) {
	payloads := []string{
		`[{"VesselID": 1, "VesselAbbrev": "WAL", "Latitude": 47.6, "Longitude": -122.3,
		   "Heading": 270, "Speed": 16.5, "InService": true, "AtDock": false,
		   "TimeStamp": "/Date(1767139200000-0800)/"}]`,
		`[{"VesselID": 1, "VesselAbbrev": "WAL", "Latitude": 47.7, "Longitude": -122.2,
		   "Heading": 90, "Speed": 12.0, "InService": true, "AtDock": false,
		   "TimeStamp": "/Date(1767139260000-0800)/"}]`,
	}
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payloads[requests%len(payloads)]))
		requests++
	}))
	defer server.Close()

	sc := &PositionScraper{
		EndpointURL: server.URL,
		Period:      time.Minute,
	}
	err := sc.Init(nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			sc.update()
		}
	}()
	for i := 0; i < 50; i++ {
		sc.Positions()
		sc.LastUpdate()
	}
	wg.Wait()

	if len(sc.Positions()) != 1 {
		t.Errorf("expected snapshot with 1 position, got %d", len(sc.Positions()))
	}
}
