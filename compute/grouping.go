package compute

import (
	"time"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// PhysicalDeparture represents one real-world sailing event: a vessel leaving
// a terminal at a given time, possibly serving several advertised
// destinations at once.
type PhysicalDeparture struct {
	Terminal      string
	DepartingTime time.Time
	Trips         []*dataobjects.ScheduledTrip
}

// GroupTripsByVessel partitions a flat trip collection by vessel
// abbreviation, preserving the relative input order within each vessel's
// list. The input order is whatever the caller supplied; sort by departing
// time before grouping physical departures if chronology matters.
func GroupTripsByVessel(trips []*dataobjects.ScheduledTrip) map[string][]*dataobjects.ScheduledTrip {
	byVessel := make(map[string][]*dataobjects.ScheduledTrip)
	for _, trip := range trips {
		byVessel[trip.Vessel] = append(byVessel[trip.Vessel], trip)
	}
	return byVessel
}

// GroupByPhysicalDeparture consolidates one vessel's chronologically ordered
// scheduled trips into physical departures. A trip joins the current open
// group iff its departing terminal and time exactly match the group's;
// otherwise it opens a new group. The input must be in chronological order
// per vessel or same-sailing trips will fragment into separate groups.
func GroupByPhysicalDeparture(trips []*dataobjects.ScheduledTrip) []*PhysicalDeparture {
	departures := []*PhysicalDeparture{}
	for _, trip := range trips {
		if len(departures) > 0 {
			current := departures[len(departures)-1]
			if current.Terminal == trip.DepartingTerminal && current.DepartingTime.Equal(trip.DepartingTime) {
				current.Trips = append(current.Trips, trip)
				continue
			}
		}
		departures = append(departures, &PhysicalDeparture{
			Terminal:      trip.DepartingTerminal,
			DepartingTime: trip.DepartingTime,
			Trips:         []*dataobjects.ScheduledTrip{trip},
		})
	}
	return departures
}
