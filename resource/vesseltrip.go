package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// VesselTrip composites resource
type VesselTrip struct {
	resource
}

type apiPrediction struct {
	MinTime    *int64 `msgpack:"minTime" json:"minTime"`
	PredTime   *int64 `msgpack:"predTime" json:"predTime"`
	MaxTime    *int64 `msgpack:"maxTime" json:"maxTime"`
	MAE        int64  `msgpack:"mae" json:"mae"`
	StdDev     int64  `msgpack:"stdDev" json:"stdDev"`
	Actual     *int64 `msgpack:"actual" json:"actual"`
	DeltaTotal int64  `msgpack:"deltaTotal" json:"deltaTotal"`
	DeltaRange int64  `msgpack:"deltaRange" json:"deltaRange"`
}

type apiVesselTrip struct {
	Key                string `msgpack:"key" json:"key"`
	Vessel             string `msgpack:"vessel" json:"vessel"`
	DepartingTerminal  string `msgpack:"departingTerminal" json:"departingTerminal"`
	ArrivingTerminal   string `msgpack:"arrivingTerminal" json:"arrivingTerminal"`
	ScheduledDeparture *int64 `msgpack:"scheduledDeparture" json:"scheduledDeparture"`
	TripStart          *int64 `msgpack:"tripStart" json:"tripStart"`
	LeftDock           *int64 `msgpack:"leftDock" json:"leftDock"`
	TripEnd            *int64 `msgpack:"tripEnd" json:"tripEnd"`
	FromLayover        bool   `msgpack:"fromLayover" json:"fromLayover"`

	// absent slots serialize as null
	Predictions map[string]*apiPrediction `msgpack:"predictions" json:"predictions"`
}

func buildAPIprediction(p *dataobjects.Prediction) *apiPrediction {
	if p == nil {
		return nil
	}
	return &apiPrediction{
		MinTime:    millisOrNil(p.MinTime),
		PredTime:   millisOrNil(p.PredTime),
		MaxTime:    millisOrNil(p.MaxTime),
		MAE:        int64(p.MAE.Seconds()),
		StdDev:     int64(p.StdDev.Seconds()),
		Actual:     millisOrNil(p.Actual),
		DeltaTotal: int64(p.DeltaTotal.Seconds()),
		DeltaRange: int64(p.DeltaRange.Seconds()),
	}
}

func buildAPIvesselTrip(trip *dataobjects.VesselTrip) apiVesselTrip {
	data := apiVesselTrip{
		Key:                trip.Key,
		Vessel:             trip.Vessel,
		DepartingTerminal:  trip.DepartingTerminal,
		ArrivingTerminal:   trip.ArrivingTerminal,
		ScheduledDeparture: millisOrNil(trip.ScheduledDeparture),
		TripStart:          millisOrNil(trip.TripStart),
		LeftDock:           millisOrNil(trip.LeftDock),
		TripEnd:            millisOrNil(trip.TripEnd),
		FromLayover:        trip.FromLayover,
		Predictions:        make(map[string]*apiPrediction),
	}
	for _, ptype := range dataobjects.PredictionTypes {
		data.Predictions[string(ptype)] = buildAPIprediction(trip.Slot(ptype))
	}
	return data
}

// WithNode associates a sqalx Node with this resource
func (r *VesselTrip) WithNode(node sqalx.Node) *VesselTrip {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *VesselTrip) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	switch {
	case c.Param("id") != "":
		trip, err := dataobjects.GetVesselTrip(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, buildAPIvesselTrip(trip))
	case c.Param("vessel") != "":
		trips, err := dataobjects.GetVesselTripsForVessel(tx, c.Param("vessel"))
		if err != nil {
			return err
		}
		apitrips := make([]apiVesselTrip, len(trips))
		for i := range trips {
			apitrips[i] = buildAPIvesselTrip(trips[i])
		}
		RenderData(c, apitrips)
	default:
		trips, err := dataobjects.GetVesselTrips(tx)
		if err != nil {
			return err
		}
		apitrips := make([]apiVesselTrip, len(trips))
		for i := range trips {
			apitrips[i] = buildAPIvesselTrip(trips[i])
		}
		RenderData(c, apitrips)
	}
	return nil
}
