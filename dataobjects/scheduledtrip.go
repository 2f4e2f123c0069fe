package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// ScheduledTrip represents one advertised sailing in the published schedule.
// Multiple ScheduledTrips may share the same vessel, departing terminal and
// departing time: one physical departure serving several advertised
// destinations.
type ScheduledTrip struct {
	Key               string
	Vessel            string
	DepartingTerminal string
	ArrivingTerminal  string
	DepartingTime     time.Time
}

// GetScheduledTrips returns a slice with all registered scheduled trips
func GetScheduledTrips(node sqalx.Node) ([]*ScheduledTrip, error) {
	s := sdb.Select().
		OrderBy("departing_time ASC")
	return getScheduledTripsWithSelect(node, s)
}

// GetScheduledTripsForVessel returns the scheduled trips for the specified
// vessel, in chronological order of departure
func GetScheduledTripsForVessel(node sqalx.Node, vessel string) ([]*ScheduledTrip, error) {
	s := sdb.Select().
		Where(sq.Eq{"vessel": vessel}).
		OrderBy("departing_time ASC")
	return getScheduledTripsWithSelect(node, s)
}

// getScheduledTripsWithSelect returns a slice with all scheduled trips that match the conditions in sbuilder
func getScheduledTripsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*ScheduledTrip, error) {
	trips := []*ScheduledTrip{}

	tx, err := node.Beginx()
	if err != nil {
		return trips, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("scheduled_trip.key", "scheduled_trip.vessel",
		"scheduled_trip.departing_terminal", "scheduled_trip.arriving_terminal",
		"scheduled_trip.departing_time").
		From("scheduled_trip").
		RunWith(tx).Query()
	if err != nil {
		return trips, fmt.Errorf("getScheduledTripsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var trip ScheduledTrip
		err := rows.Scan(
			&trip.Key,
			&trip.Vessel,
			&trip.DepartingTerminal,
			&trip.ArrivingTerminal,
			&trip.DepartingTime)
		if err != nil {
			return trips, fmt.Errorf("getScheduledTripsWithSelect: %s", err)
		}
		trips = append(trips, &trip)
	}
	if err := rows.Err(); err != nil {
		return trips, fmt.Errorf("getScheduledTripsWithSelect: %s", err)
	}
	return trips, nil
}

// GetScheduledTrip returns the ScheduledTrip with the given key
func GetScheduledTrip(node sqalx.Node, key string) (*ScheduledTrip, error) {
	s := sdb.Select().
		Where(sq.Eq{"key": key})
	trips, err := getScheduledTripsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, errors.New("ScheduledTrip not found")
	}
	return trips[0], nil
}

// Update adds or updates the scheduled trip
func (trip *ScheduledTrip) Update(node sqalx.Node) error {
	if trip.Key == "" {
		return errors.New("AddScheduledTrip: trip key missing")
	}

	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("scheduled_trip").
		Columns("key", "vessel", "departing_terminal", "arriving_terminal", "departing_time").
		Values(trip.Key, trip.Vessel, trip.DepartingTerminal, trip.ArrivingTerminal, trip.DepartingTime).
		Suffix("ON CONFLICT (key) DO UPDATE SET vessel = ?, departing_terminal = ?, arriving_terminal = ?, departing_time = ?",
			trip.Vessel, trip.DepartingTerminal, trip.ArrivingTerminal, trip.DepartingTime).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddScheduledTrip: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the scheduled trip
func (trip *ScheduledTrip) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("scheduled_trip").
		Where(sq.Eq{"key": trip.Key}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveScheduledTrip: %s", err)
	}
	return tx.Commit()
}

// DeleteScheduledTripsDepartingBefore deletes up to limit scheduled trips
// whose departing time falls before the cutoff, returning the number of trips
// deleted. Callers are expected to invoke this repeatedly until it returns
// less than limit; an interrupted sweep leaves the remainder for the next one.
func DeleteScheduledTripsDepartingBefore(node sqalx.Node, cutoff time.Time, limit uint64) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	subquery, args, err := sdb.Select("key").
		From("scheduled_trip").
		Where(sq.Lt{"departing_time": cutoff}).
		Limit(limit).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("DeleteScheduledTripsDepartingBefore: %s", err)
	}

	result, err := sdb.Delete("scheduled_trip").
		Where("key IN ("+subquery+")", args...).
		RunWith(tx).Exec()
	if err != nil {
		return 0, fmt.Errorf("DeleteScheduledTripsDepartingBefore: %s", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteScheduledTripsDepartingBefore: %s", err)
	}
	return int(deleted), tx.Commit()
}
