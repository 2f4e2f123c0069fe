package compute

import (
	"reflect"
	"testing"
	"time"

	"github.com/salishsea/ferrytrack/dataobjects"
)

func makeScheduledTrip(key, vessel, from, to string, departing time.Time) *dataobjects.ScheduledTrip {
	return &dataobjects.ScheduledTrip{
		Key:               key,
		Vessel:            vessel,
		DepartingTerminal: from,
		ArrivingTerminal:  to,
		DepartingTime:     departing,
	}
}

func TestGroupTripsByVessel(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trips := []*dataobjects.ScheduledTrip{
		makeScheduledTrip("1", "WAL", "P52", "BBI", base),
		makeScheduledTrip("2", "TAC", "P52", "BRE", base),
		makeScheduledTrip("3", "WAL", "BBI", "P52", base.Add(time.Hour)),
		makeScheduledTrip("4", "WAL", "P52", "BBI", base.Add(2*time.Hour)),
	}

	byVessel := GroupTripsByVessel(trips)

	if len(byVessel) != 2 {
		t.Fatalf("got %d vessels, want 2", len(byVessel))
	}
	wantWAL := []string{"1", "3", "4"}
	gotWAL := []string{}
	for _, trip := range byVessel["WAL"] {
		gotWAL = append(gotWAL, trip.Key)
	}
	if !reflect.DeepEqual(gotWAL, wantWAL) {
		t.Errorf("WAL trips = %v, want %v (input order must be preserved)", gotWAL, wantWAL)
	}
	if len(byVessel["TAC"]) != 1 || byVessel["TAC"][0].Key != "2" {
		t.Errorf("TAC trips = %v", byVessel["TAC"])
	}

	if got := GroupTripsByVessel(nil); len(got) != 0 {
		t.Errorf("grouping empty input yielded %d entries", len(got))
	}
}

func TestGroupByPhysicalDeparturePartition(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trips := []*dataobjects.ScheduledTrip{
		makeScheduledTrip("1", "WAL", "P52", "BBI", base),
		makeScheduledTrip("2", "WAL", "P52", "BRE", base),
		makeScheduledTrip("3", "WAL", "BBI", "P52", base.Add(time.Hour)),
		makeScheduledTrip("4", "WAL", "P52", "BBI", base.Add(2*time.Hour)),
		makeScheduledTrip("5", "WAL", "P52", "BRE", base.Add(2*time.Hour)),
		makeScheduledTrip("6", "WAL", "P52", "VAS", base.Add(2*time.Hour)),
	}

	departures := GroupByPhysicalDeparture(trips)

	if len(departures) != 3 {
		t.Fatalf("got %d departures, want 3", len(departures))
	}

	// every group's trips share exactly the group's (terminal, time) pair
	for _, departure := range departures {
		for _, trip := range departure.Trips {
			if trip.DepartingTerminal != departure.Terminal || !trip.DepartingTime.Equal(departure.DepartingTime) {
				t.Errorf("trip %s does not match its group (%s, %s)",
					trip.Key, departure.Terminal, departure.DepartingTime)
			}
		}
	}

	// concatenating all groups' trips in order reproduces the input exactly
	flattened := []*dataobjects.ScheduledTrip{}
	for _, departure := range departures {
		flattened = append(flattened, departure.Trips...)
	}
	if !reflect.DeepEqual(flattened, trips) {
		t.Error("concatenated groups do not reproduce the input list")
	}

	if got := len(departures[2].Trips); got != 3 {
		t.Errorf("third departure has %d trips, want 3", got)
	}
}

func TestGroupByPhysicalDepartureSmallInputs(t *testing.T) {
	if got := GroupByPhysicalDeparture(nil); len(got) != 0 {
		t.Errorf("grouping zero trips yielded %d groups", len(got))
	}

	single := []*dataobjects.ScheduledTrip{
		makeScheduledTrip("1", "WAL", "P52", "BBI", time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)),
	}
	departures := GroupByPhysicalDeparture(single)
	if len(departures) != 1 || len(departures[0].Trips) != 1 {
		t.Fatalf("grouping one trip yielded %d groups", len(departures))
	}
	if departures[0].Trips[0] != single[0] {
		t.Error("singleton group does not contain the input trip")
	}
}

// one sailing advertised under two destinations collapses into one physical
// departure
func TestGroupByPhysicalDepartureMultiDestination(t *testing.T) {
	departing := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	trips := []*dataobjects.ScheduledTrip{
		makeScheduledTrip("1", "WAL", "P52", "BBI", departing),
		makeScheduledTrip("2", "WAL", "P52", "BRE", departing),
	}

	departures := GroupByPhysicalDeparture(trips)

	if len(departures) != 1 {
		t.Fatalf("got %d departures, want 1", len(departures))
	}
	if len(departures[0].Trips) != 2 {
		t.Fatalf("departure has %d trips, want 2", len(departures[0].Trips))
	}
	if departures[0].Terminal != "P52" || !departures[0].DepartingTime.Equal(departing) {
		t.Errorf("departure identity = (%s, %s)", departures[0].Terminal, departures[0].DepartingTime)
	}
}
