package compute

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/salishsea/ferrytrack/dataobjects"
)

func makePosition(vessel string, atDock, inService bool, at time.Time) *dataobjects.VesselPosition {
	return &dataobjects.VesselPosition{
		Vessel:    vessel,
		AtDock:    atDock,
		InService: inService,
		Time:      at,
	}
}

func makeOpenTrip(departing time.Time) *dataobjects.VesselTrip {
	return &dataobjects.VesselTrip{
		Key:                "WAL-20260314-0800",
		Vessel:             "WAL",
		DepartingTerminal:  "P52",
		ArrivingTerminal:   "BBI",
		ScheduledDeparture: departing,
		TripStart:          departing.Add(-10 * time.Minute),
	}
}

func testHandler(models ModelSource) *TripHandler {
	return NewTripHandler(models, NewPositionHandler(), log.New(io.Discard, "", 0))
}

func TestApplyPositionDeparture(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trip := makeOpenTrip(departing)
	trip.AtDockDepartCurr = &dataobjects.Prediction{
		MinTime:  departing,
		PredTime: departing.Add(2 * time.Minute),
		MaxTime:  departing.Add(6 * time.Minute),
	}
	observed := departing.Add(3 * time.Minute)

	completed, prevCompleted := applyPosition(trip, nil, makePosition("WAL", false, true, observed))

	if len(completed) != 1 || completed[0] != dataobjects.AtDockDepartCurr {
		t.Fatalf("completed = %v, want [AtDockDepartCurr]", completed)
	}
	if len(prevCompleted) != 0 {
		t.Errorf("prevCompleted = %v with no prior trip", prevCompleted)
	}
	if !trip.LeftDock.Equal(observed) {
		t.Errorf("LeftDock = %s, want %s", trip.LeftDock, observed)
	}
	p := trip.AtDockDepartCurr
	if !p.Actual.Equal(observed) {
		t.Errorf("Actual = %s, want %s", p.Actual, observed)
	}
	if p.DeltaTotal != time.Minute {
		t.Errorf("DeltaTotal = %s, want 1m", p.DeltaTotal)
	}
	if p.DeltaRange != 6*time.Minute {
		t.Errorf("DeltaRange = %s, want 6m", p.DeltaRange)
	}
}

func TestApplyPositionDepartureCompletesPriorTrip(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trip := makeOpenTrip(departing)

	prior := makeOpenTrip(departing.Add(-time.Hour))
	prior.Key = "WAL-20260314-0700"
	prior.LeftDock = departing.Add(-55 * time.Minute)
	prior.TripEnd = departing.Add(-20 * time.Minute)
	prior.AtSeaDepartNext = &dataobjects.Prediction{
		MinTime:  departing.Add(-2 * time.Minute),
		PredTime: departing.Add(time.Minute),
		MaxTime:  departing.Add(5 * time.Minute),
	}

	observed := departing.Add(2 * time.Minute)
	_, prevCompleted := applyPosition(trip, prior, makePosition("WAL", false, true, observed))

	if len(prevCompleted) != 1 || prevCompleted[0] != dataobjects.AtSeaDepartNext {
		t.Fatalf("prevCompleted = %v, want [AtSeaDepartNext]", prevCompleted)
	}
	if !prior.AtSeaDepartNext.Actual.Equal(observed) {
		t.Errorf("prior Actual = %s, want %s", prior.AtSeaDepartNext.Actual, observed)
	}
	// the prior trip's never-predicted depart-next slot is not fabricated
	if prior.AtDockDepartNext != nil {
		t.Error("absent slot on prior trip was materialized")
	}
}

func TestApplyPositionArrival(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trip := makeOpenTrip(departing)
	trip.LeftDock = departing.Add(2 * time.Minute)
	observed := departing.Add(35 * time.Minute)

	completed, _ := applyPosition(trip, nil, makePosition("WAL", true, true, observed))

	// the at-sea arrival slot is materialized even with no prediction
	if len(completed) != 1 || completed[0] != dataobjects.AtSeaArriveNext {
		t.Fatalf("completed = %v, want [AtSeaArriveNext]", completed)
	}
	if trip.AtSeaArriveNext == nil || !trip.AtSeaArriveNext.Actual.Equal(observed) {
		t.Error("AtSeaArriveNext not completed")
	}
	if !trip.TripEnd.Equal(observed) {
		t.Errorf("TripEnd = %s, want %s", trip.TripEnd, observed)
	}
}

func TestApplyPositionIdempotent(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trip := makeOpenTrip(departing)
	observed := departing.Add(3 * time.Minute)
	pos := makePosition("WAL", false, true, observed)

	applyPosition(trip, nil, pos)
	later := makePosition("WAL", false, true, observed.Add(time.Minute))
	completed, _ := applyPosition(trip, nil, later)

	if len(completed) != 0 {
		t.Errorf("replay completed %v again", completed)
	}
	if !trip.AtDockDepartCurr.Actual.Equal(observed) {
		t.Error("completed slot was overwritten on replay")
	}
	if !trip.LeftDock.Equal(observed) {
		t.Error("LeftDock was overwritten on replay")
	}
}

func TestPredictSlotsResolvesAndSkips(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	model := &dataobjects.ModelParameters{
		MinSeconds:  60,
		PredSeconds: 120,
		MaxSeconds:  300,
	}
	source := &fakeModelSource{
		chain: map[string]*dataobjects.ModelParameters{},
		pair: map[string]*dataobjects.ModelParameters{
			"P52-BBI|" + dataobjects.InServiceAtDockDepartB: model,
		},
	}
	h := testHandler(source)

	trip := makeOpenTrip(departing)
	h.predictSlots(trip, "KIN")

	if !trip.AtDockDepartCurr.Predicted() {
		t.Fatal("depart-curr slot not predicted despite a pair model")
	}
	if want := departing.Add(2 * time.Minute); !trip.AtDockDepartCurr.PredTime.Equal(want) {
		t.Errorf("PredTime = %s, want %s", trip.AtDockDepartCurr.PredTime, want)
	}
	// no model for the other at-dock slots: left unpredicted, not an error
	if trip.AtDockArriveNext != nil || trip.AtDockDepartNext != nil {
		t.Error("slots with no resolvable model were populated")
	}
	// at-sea slots are not applicable while still docked
	if trip.AtSeaArriveNext != nil || trip.AtSeaDepartNext != nil {
		t.Error("at-sea slots populated while at dock")
	}
}

func TestPredictSlotsNeverTouchesCompleted(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	actual := departing.Add(3 * time.Minute)
	source := &fakeModelSource{
		chain: map[string]*dataobjects.ModelParameters{},
		pair: map[string]*dataobjects.ModelParameters{
			"P52-BBI|" + dataobjects.InServiceAtDockDepartB: {PredSeconds: 120},
		},
	}
	h := testHandler(source)

	trip := makeOpenTrip(departing)
	trip.AtDockDepartCurr = &dataobjects.Prediction{Actual: actual}
	h.predictSlots(trip, "")

	if !trip.AtDockDepartCurr.Actual.Equal(actual) || trip.AtDockDepartCurr.Predicted() {
		t.Error("completed slot was re-estimated")
	}
}

func TestPredictSlotsLayoverModelSelection(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	source := &fakeModelSource{
		chain: map[string]*dataobjects.ModelParameters{},
		pair: map[string]*dataobjects.ModelParameters{
			"P52-BBI|" + dataobjects.LayoverAtDockDepartB:   {PredSeconds: 300},
			"P52-BBI|" + dataobjects.InServiceAtDockDepartB: {PredSeconds: 60},
		},
	}
	h := testHandler(source)

	trip := makeOpenTrip(departing)
	trip.FromLayover = true
	h.predictSlots(trip, "")

	if want := departing.Add(5 * time.Minute); !trip.AtDockDepartCurr.PredTime.Equal(want) {
		t.Errorf("layover trip used the wrong model family: PredTime = %s, want %s",
			trip.AtDockDepartCurr.PredTime, want)
	}
}

func TestAnchorForChainsThroughEstimates(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	h := testHandler(&fakeModelSource{})
	trip := makeOpenTrip(departing)

	if got := h.anchorFor(trip, dataobjects.AtDockDepartCurr); !got.Equal(departing) {
		t.Errorf("depart-curr anchor = %s", got)
	}
	// without an estimate, downstream slots anchor on the schedule
	if got := h.anchorFor(trip, dataobjects.AtDockArriveNext); !got.Equal(departing) {
		t.Errorf("arrive-next anchor without estimate = %s", got)
	}

	predDepart := departing.Add(2 * time.Minute)
	trip.AtDockDepartCurr = &dataobjects.Prediction{PredTime: predDepart}
	if got := h.anchorFor(trip, dataobjects.AtDockArriveNext); !got.Equal(predDepart) {
		t.Errorf("arrive-next anchor = %s, want the predicted departure", got)
	}

	trip.LeftDock = departing.Add(3 * time.Minute)
	if got := h.anchorFor(trip, dataobjects.AtSeaArriveNext); !got.Equal(trip.LeftDock) {
		t.Errorf("at-sea arrive anchor = %s, want LeftDock", got)
	}
}

func TestNextDeparture(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	departures := GroupByPhysicalDeparture([]*dataobjects.ScheduledTrip{
		makeScheduledTrip("1", "WAL", "P52", "BBI", base),
		makeScheduledTrip("2", "WAL", "BBI", "P52", base.Add(time.Hour)),
	})
	grace := 15 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want *PhysicalDeparture
	}{
		{"before first", base.Add(-time.Hour), departures[0]},
		{"within grace of first", base.Add(10 * time.Minute), departures[0]},
		{"first too old", base.Add(30 * time.Minute), departures[1]},
		{"all departed", base.Add(2 * time.Hour), nil},
	}
	for _, tt := range tests {
		if got := nextDeparture(departures, tt.now, grace); got != tt.want {
			t.Errorf("%s: nextDeparture = %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := nextDeparture(nil, base, grace); got != nil {
		t.Errorf("nextDeparture on empty schedule = %v", got)
	}
}

func TestNewTripFromDeparture(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	departure := GroupByPhysicalDeparture([]*dataobjects.ScheduledTrip{
		makeScheduledTrip("1", "WAL", "P52", "BBI", departing),
		makeScheduledTrip("2", "WAL", "P52", "BRE", departing),
	})[0]

	now := departing.Add(-5 * time.Minute)
	trip := newTripFromDeparture(departure, now, true)

	if trip.Key != "1" || trip.ArrivingTerminal != "BBI" {
		t.Errorf("primary destination not taken from the group's first trip: %+v", trip)
	}
	if trip.DepartingTerminal != "P52" || !trip.ScheduledDeparture.Equal(departing) {
		t.Errorf("departure identity not carried over: %+v", trip)
	}
	if !trip.FromLayover || !trip.TripStart.Equal(now) {
		t.Errorf("trip origin fields wrong: %+v", trip)
	}
}
