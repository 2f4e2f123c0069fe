package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// ScheduledTrip composites resource
type ScheduledTrip struct {
	resource
}

type apiScheduledTrip struct {
	Key               string `msgpack:"key" json:"key"`
	Vessel            string `msgpack:"vessel" json:"vessel"`
	DepartingTerminal string `msgpack:"departingTerminal" json:"departingTerminal"`
	ArrivingTerminal  string `msgpack:"arrivingTerminal" json:"arrivingTerminal"`
	DepartingTime     int64  `msgpack:"departingTime" json:"departingTime"`
}

func buildAPIscheduledTrip(trip *dataobjects.ScheduledTrip) apiScheduledTrip {
	return apiScheduledTrip{
		Key:               trip.Key,
		Vessel:            trip.Vessel,
		DepartingTerminal: trip.DepartingTerminal,
		ArrivingTerminal:  trip.ArrivingTerminal,
		DepartingTime:     utils.MillisFromTime(trip.DepartingTime),
	}
}

// WithNode associates a sqalx Node with this resource
func (r *ScheduledTrip) WithNode(node sqalx.Node) *ScheduledTrip {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *ScheduledTrip) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("vessel") != "" {
		trips, err := dataobjects.GetScheduledTripsForVessel(tx, c.Param("vessel"))
		if err != nil {
			return err
		}
		apitrips := make([]apiScheduledTrip, len(trips))
		for i := range trips {
			apitrips[i] = buildAPIscheduledTrip(trips[i])
		}
		RenderData(c, apitrips)
	} else {
		trips, err := dataobjects.GetScheduledTrips(tx)
		if err != nil {
			return err
		}
		apitrips := make([]apiScheduledTrip, len(trips))
		for i := range trips {
			apitrips[i] = buildAPIscheduledTrip(trips[i])
		}
		RenderData(c, apitrips)
	}
	return nil
}
