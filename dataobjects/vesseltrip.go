package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
)

// PredictionType identifies one of the five prediction slots in a vessel
// trip's lifecycle
type PredictionType string

const (
	// AtDockDepartCurr predicts when the vessel will leave its current dock
	AtDockDepartCurr PredictionType = "AT_DOCK_DEPART_CURR"
	// AtDockArriveNext predicts, while the vessel is still docked, when it will arrive at the next dock
	AtDockArriveNext PredictionType = "AT_DOCK_ARRIVE_NEXT"
	// AtDockDepartNext predicts, while the vessel is still docked, when it will depart the next dock
	AtDockDepartNext PredictionType = "AT_DOCK_DEPART_NEXT"
	// AtSeaArriveNext predicts, while the vessel is underway, when it will arrive at the next dock
	AtSeaArriveNext PredictionType = "AT_SEA_ARRIVE_NEXT"
	// AtSeaDepartNext predicts, while the vessel is underway, when it will depart the next dock
	AtSeaDepartNext PredictionType = "AT_SEA_DEPART_NEXT"
)

// PredictionTypes lists the five slots in lifecycle order
var PredictionTypes = []PredictionType{
	AtDockDepartCurr,
	AtDockArriveNext,
	AtDockDepartNext,
	AtSeaArriveNext,
	AtSeaDepartNext,
}

// Prediction holds the estimated and observed times for one slot of a vessel
// trip. A zero PredTime means the slot could not be predicted (no model
// resolved); a zero Actual means the real event has not been observed yet.
type Prediction struct {
	MinTime    time.Time
	PredTime   time.Time
	MaxTime    time.Time
	MAE        time.Duration
	StdDev     time.Duration
	Actual     time.Time
	DeltaTotal time.Duration
	DeltaRange time.Duration
}

// Complete returns whether the real event for this slot has been observed
func (p *Prediction) Complete() bool {
	return p != nil && !p.Actual.IsZero()
}

// Predicted returns whether this slot carries a resolved estimate
func (p *Prediction) Predicted() bool {
	return p != nil && !p.PredTime.IsZero()
}

// VesselTrip represents one live-tracked sailing of a vessel
type VesselTrip struct {
	Key                string
	Vessel             string
	DepartingTerminal  string
	ArrivingTerminal   string
	ScheduledDeparture time.Time
	TripStart          time.Time
	LeftDock           time.Time
	TripEnd            time.Time
	FromLayover        bool

	AtDockDepartCurr *Prediction
	AtDockArriveNext *Prediction
	AtDockDepartNext *Prediction
	AtSeaArriveNext  *Prediction
	AtSeaDepartNext  *Prediction
}

// Slot returns the prediction stored under the given type, or nil
func (trip *VesselTrip) Slot(ptype PredictionType) *Prediction {
	switch ptype {
	case AtDockDepartCurr:
		return trip.AtDockDepartCurr
	case AtDockArriveNext:
		return trip.AtDockArriveNext
	case AtDockDepartNext:
		return trip.AtDockDepartNext
	case AtSeaArriveNext:
		return trip.AtSeaArriveNext
	case AtSeaDepartNext:
		return trip.AtSeaDepartNext
	}
	return nil
}

// SetSlot stores the prediction under the given type
func (trip *VesselTrip) SetSlot(ptype PredictionType, p *Prediction) {
	switch ptype {
	case AtDockDepartCurr:
		trip.AtDockDepartCurr = p
	case AtDockArriveNext:
		trip.AtDockArriveNext = p
	case AtDockDepartNext:
		trip.AtDockDepartNext = p
	case AtSeaArriveNext:
		trip.AtSeaArriveNext = p
	case AtSeaDepartNext:
		trip.AtSeaDepartNext = p
	}
}

// CurrentSlot returns the slot the trip is currently waiting on. Exactly one
// slot is current at any time: the depart-current slot while the vessel is
// still at its dock, the at-sea arrival slot while it is underway, and the
// at-sea departure slot once it has arrived.
func (trip *VesselTrip) CurrentSlot() PredictionType {
	if trip.LeftDock.IsZero() {
		return AtDockDepartCurr
	}
	if trip.TripEnd.IsZero() {
		return AtSeaArriveNext
	}
	return AtSeaDepartNext
}

// GetVesselTrips returns a slice with all registered vessel trips
func GetVesselTrips(node sqalx.Node) ([]*VesselTrip, error) {
	s := sdb.Select().
		OrderBy("scheduled_departure ASC")
	return getVesselTripsWithSelect(node, s)
}

// GetVesselTripsForVessel returns the trips of the specified vessel in
// chronological order of scheduled departure
func GetVesselTripsForVessel(node sqalx.Node, vessel string) ([]*VesselTrip, error) {
	s := sdb.Select().
		Where(sq.Eq{"vessel": vessel}).
		OrderBy("scheduled_departure ASC")
	return getVesselTripsWithSelect(node, s)
}

// getVesselTripsWithSelect returns a slice with all trips that match the conditions in sbuilder
func getVesselTripsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*VesselTrip, error) {
	trips := []*VesselTrip{}

	tx, err := node.Beginx()
	if err != nil {
		return trips, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("vessel_trip.key", "vessel_trip.vessel",
		"vessel_trip.departing_terminal", "vessel_trip.arriving_terminal",
		"vessel_trip.scheduled_departure", "vessel_trip.trip_start",
		"vessel_trip.left_dock", "vessel_trip.trip_end", "vessel_trip.from_layover").
		From("vessel_trip").
		RunWith(tx).Query()
	if err != nil {
		return trips, fmt.Errorf("getVesselTripsWithSelect: %s", err)
	}

	for rows.Next() {
		var trip VesselTrip
		var leftDock, tripEnd pq.NullTime
		err := rows.Scan(
			&trip.Key,
			&trip.Vessel,
			&trip.DepartingTerminal,
			&trip.ArrivingTerminal,
			&trip.ScheduledDeparture,
			&trip.TripStart,
			&leftDock,
			&tripEnd,
			&trip.FromLayover)
		if err != nil {
			rows.Close()
			return trips, fmt.Errorf("getVesselTripsWithSelect: %s", err)
		}
		trip.LeftDock = leftDock.Time
		trip.TripEnd = tripEnd.Time
		trips = append(trips, &trip)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return trips, fmt.Errorf("getVesselTripsWithSelect: %s", err)
	}
	rows.Close()

	for i := range trips {
		err = trips[i].loadPredictions(tx)
		if err != nil {
			return trips, fmt.Errorf("getVesselTripsWithSelect: %s", err)
		}
	}
	return trips, nil
}

func (trip *VesselTrip) loadPredictions(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	rows, err := sdb.Select("type", "min_time", "pred_time", "max_time",
		"mae_ms", "std_dev_ms", "actual", "delta_total_ms", "delta_range_ms").
		From("vessel_trip_prediction").
		Where(sq.Eq{"trip_key": trip.Key}).
		RunWith(tx).Query()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ptype PredictionType
		var p Prediction
		var minTime, predTime, maxTime, actual pq.NullTime
		var mae, stdDev, deltaTotal, deltaRange int64
		err := rows.Scan(
			&ptype,
			&minTime,
			&predTime,
			&maxTime,
			&mae,
			&stdDev,
			&actual,
			&deltaTotal,
			&deltaRange)
		if err != nil {
			return err
		}
		p.MinTime = minTime.Time
		p.PredTime = predTime.Time
		p.MaxTime = maxTime.Time
		p.MAE = time.Duration(mae) * time.Millisecond
		p.StdDev = time.Duration(stdDev) * time.Millisecond
		p.Actual = actual.Time
		p.DeltaTotal = time.Duration(deltaTotal) * time.Millisecond
		p.DeltaRange = time.Duration(deltaRange) * time.Millisecond
		trip.SetSlot(ptype, &p)
	}
	return rows.Err()
}

// GetVesselTrip returns the VesselTrip with the given key
func GetVesselTrip(node sqalx.Node, key string) (*VesselTrip, error) {
	s := sdb.Select().
		Where(sq.Eq{"key": key})
	trips, err := getVesselTripsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, errors.New("VesselTrip not found")
	}
	return trips[0], nil
}

// GetOpenVesselTripForVessel returns the trip for the specified vessel that
// has not ended yet, if one exists
func GetOpenVesselTripForVessel(node sqalx.Node, vessel string) (*VesselTrip, error) {
	s := sdb.Select().
		Where(sq.Eq{"vessel": vessel}).
		Where("trip_end IS NULL").
		OrderBy("scheduled_departure DESC").
		Limit(1)
	trips, err := getVesselTripsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, errors.New("VesselTrip not found")
	}
	return trips[0], nil
}

// GetLastEndedVesselTripForVessel returns the most recently ended trip for
// the specified vessel, if one exists
func GetLastEndedVesselTripForVessel(node sqalx.Node, vessel string) (*VesselTrip, error) {
	s := sdb.Select().
		Where(sq.Eq{"vessel": vessel}).
		Where("trip_end IS NOT NULL").
		OrderBy("trip_end DESC").
		Limit(1)
	trips, err := getVesselTripsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, errors.New("VesselTrip not found")
	}
	return trips[0], nil
}

// CountOpenVesselTrips returns the number of trips that have not ended yet
func CountOpenVesselTrips(node sqalx.Node) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Commit() // read-only tx

	var count int
	err = sdb.Select("COUNT(*)").
		From("vessel_trip").
		Where("trip_end IS NULL").
		RunWith(tx).QueryRow().Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountOpenVesselTrips: %s", err)
	}
	return count, nil
}

// Update adds or updates the vessel trip and its prediction slots. A stored
// slot whose real event has already been observed is never overwritten with
// one that has not, so re-running a processing pass over the same input
// cannot undo a completed slot.
func (trip *VesselTrip) Update(node sqalx.Node) error {
	if trip.Key == "" {
		return errors.New("AddVesselTrip: trip key missing")
	}

	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	leftDock := pq.NullTime{Time: trip.LeftDock, Valid: !trip.LeftDock.IsZero()}
	tripEnd := pq.NullTime{Time: trip.TripEnd, Valid: !trip.TripEnd.IsZero()}

	_, err = sdb.Insert("vessel_trip").
		Columns("key", "vessel", "departing_terminal", "arriving_terminal",
			"scheduled_departure", "trip_start", "left_dock", "trip_end", "from_layover").
		Values(trip.Key, trip.Vessel, trip.DepartingTerminal, trip.ArrivingTerminal,
			trip.ScheduledDeparture, trip.TripStart, leftDock, tripEnd, trip.FromLayover).
		Suffix("ON CONFLICT (key) DO UPDATE SET arriving_terminal = ?, scheduled_departure = ?, trip_start = ?, left_dock = ?, trip_end = ?, from_layover = ?",
			trip.ArrivingTerminal, trip.ScheduledDeparture, trip.TripStart, leftDock, tripEnd, trip.FromLayover).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddVesselTrip: " + err.Error())
	}

	for _, ptype := range PredictionTypes {
		p := trip.Slot(ptype)
		if p == nil {
			continue
		}
		err = trip.updatePrediction(tx, ptype, p)
		if err != nil {
			return errors.New("AddVesselTrip: " + err.Error())
		}
	}
	return tx.Commit()
}

func (trip *VesselTrip) updatePrediction(node sqalx.Node, ptype PredictionType, p *Prediction) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	minTime := pq.NullTime{Time: p.MinTime, Valid: !p.MinTime.IsZero()}
	predTime := pq.NullTime{Time: p.PredTime, Valid: !p.PredTime.IsZero()}
	maxTime := pq.NullTime{Time: p.MaxTime, Valid: !p.MaxTime.IsZero()}
	actual := pq.NullTime{Time: p.Actual, Valid: !p.Actual.IsZero()}

	_, err = sdb.Insert("vessel_trip_prediction").
		Columns("trip_key", "type", "min_time", "pred_time", "max_time",
			"mae_ms", "std_dev_ms", "actual", "delta_total_ms", "delta_range_ms").
		Values(trip.Key, ptype, minTime, predTime, maxTime,
			p.MAE.Milliseconds(), p.StdDev.Milliseconds(), actual,
			p.DeltaTotal.Milliseconds(), p.DeltaRange.Milliseconds()).
		Suffix("ON CONFLICT (trip_key, type) DO UPDATE SET min_time = ?, pred_time = ?, max_time = ?, mae_ms = ?, std_dev_ms = ?, actual = ?, delta_total_ms = ?, delta_range_ms = ? WHERE vessel_trip_prediction.actual IS NULL",
			minTime, predTime, maxTime, p.MAE.Milliseconds(), p.StdDev.Milliseconds(),
			actual, p.DeltaTotal.Milliseconds(), p.DeltaRange.Milliseconds()).
		RunWith(tx).Exec()
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete deletes the vessel trip and its prediction slots
func (trip *VesselTrip) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("vessel_trip_prediction").
		Where(sq.Eq{"trip_key": trip.Key}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveVesselTrip: %s", err)
	}

	_, err = sdb.Delete("vessel_trip").
		Where(sq.Eq{"key": trip.Key}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveVesselTrip: %s", err)
	}
	return tx.Commit()
}
