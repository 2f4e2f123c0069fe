package compute

import (
	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// ExtractPredictionRecord derives the durable prediction record for one
// completed slot of a vessel trip. It returns false when the record cannot
// be extracted: the slot is absent, its real event was never observed, or
// the trip is missing its key or either terminal. Incomplete data is an
// expected steady-state condition, not an error.
//
// All time fields are rounded down to the whole second for storage
// precision consistency. The input trip is never mutated, and extracting
// the same completed slot twice yields identical records.
func ExtractPredictionRecord(trip *dataobjects.VesselTrip, ptype dataobjects.PredictionType) (*dataobjects.PredictionRecord, bool) {
	if trip == nil {
		return nil, false
	}
	p := trip.Slot(ptype)
	if !p.Complete() {
		return nil, false
	}
	if trip.Key == "" || trip.DepartingTerminal == "" || trip.ArrivingTerminal == "" {
		return nil, false
	}

	return &dataobjects.PredictionRecord{
		Key:                trip.Key,
		Vessel:             trip.Vessel,
		DepartingTerminal:  trip.DepartingTerminal,
		ArrivingTerminal:   trip.ArrivingTerminal,
		Type:               ptype,
		TripStart:          utils.FloorToSecond(trip.TripStart),
		ScheduledDeparture: utils.FloorToSecond(trip.ScheduledDeparture),
		LeftDock:           utils.FloorToSecond(trip.LeftDock),
		TripEnd:            utils.FloorToSecond(trip.TripEnd),
		MinTime:            utils.FloorToSecond(p.MinTime),
		PredTime:           utils.FloorToSecond(p.PredTime),
		MaxTime:            utils.FloorToSecond(p.MaxTime),
		MAE:                p.MAE,
		StdDev:             p.StdDev,
		Actual:             utils.FloorToSecond(p.Actual),
		DeltaTotal:         p.DeltaTotal,
		DeltaRange:         p.DeltaRange,
	}, true
}
