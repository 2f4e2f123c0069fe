package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	uuid "github.com/satori/go.uuid"
)

// PredictionRecord is the durable artifact extracted from one completed
// prediction slot. Records are append-only: once created they are never
// mutated, as they are the ground truth the model trainer refits from.
type PredictionRecord struct {
	ID                 string
	Key                string
	Vessel             string
	DepartingTerminal  string
	ArrivingTerminal   string
	Type               PredictionType
	TripStart          time.Time
	ScheduledDeparture time.Time
	LeftDock           time.Time
	TripEnd            time.Time
	MinTime            time.Time
	PredTime           time.Time
	MaxTime            time.Time
	MAE                time.Duration
	StdDev             time.Duration
	Actual             time.Time
	DeltaTotal         time.Duration
	DeltaRange         time.Duration
}

// GetPredictionRecords returns a slice with all registered prediction records
func GetPredictionRecords(node sqalx.Node) ([]*PredictionRecord, error) {
	s := sdb.Select().
		OrderBy("actual ASC")
	return getPredictionRecordsWithSelect(node, s)
}

// GetPredictionRecordsForVessel returns all prediction records for the
// specified vessel
func GetPredictionRecordsForVessel(node sqalx.Node, vessel string) ([]*PredictionRecord, error) {
	s := sdb.Select().
		Where(sq.Eq{"vessel": vessel}).
		OrderBy("actual ASC")
	return getPredictionRecordsWithSelect(node, s)
}

// getPredictionRecordsWithSelect returns a slice with all records that match the conditions in sbuilder
func getPredictionRecordsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*PredictionRecord, error) {
	records := []*PredictionRecord{}

	tx, err := node.Beginx()
	if err != nil {
		return records, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("prediction_record.id", "prediction_record.trip_key",
		"prediction_record.vessel", "prediction_record.departing_terminal",
		"prediction_record.arriving_terminal", "prediction_record.type",
		"prediction_record.trip_start", "prediction_record.scheduled_departure",
		"prediction_record.left_dock", "prediction_record.trip_end",
		"prediction_record.min_time", "prediction_record.pred_time", "prediction_record.max_time",
		"prediction_record.mae_ms", "prediction_record.std_dev_ms", "prediction_record.actual",
		"prediction_record.delta_total_ms", "prediction_record.delta_range_ms").
		From("prediction_record").
		RunWith(tx).Query()
	if err != nil {
		return records, fmt.Errorf("getPredictionRecordsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record PredictionRecord
		var tripStart, schedDep, leftDock, tripEnd pq.NullTime
		var mae, stdDev, deltaTotal, deltaRange int64
		err := rows.Scan(
			&record.ID,
			&record.Key,
			&record.Vessel,
			&record.DepartingTerminal,
			&record.ArrivingTerminal,
			&record.Type,
			&tripStart,
			&schedDep,
			&leftDock,
			&tripEnd,
			&record.MinTime,
			&record.PredTime,
			&record.MaxTime,
			&mae,
			&stdDev,
			&record.Actual,
			&deltaTotal,
			&deltaRange)
		if err != nil {
			return records, fmt.Errorf("getPredictionRecordsWithSelect: %s", err)
		}
		record.TripStart = tripStart.Time
		record.ScheduledDeparture = schedDep.Time
		record.LeftDock = leftDock.Time
		record.TripEnd = tripEnd.Time
		record.MAE = time.Duration(mae) * time.Millisecond
		record.StdDev = time.Duration(stdDev) * time.Millisecond
		record.DeltaTotal = time.Duration(deltaTotal) * time.Millisecond
		record.DeltaRange = time.Duration(deltaRange) * time.Millisecond
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return records, fmt.Errorf("getPredictionRecordsWithSelect: %s", err)
	}
	return records, nil
}

// CountPredictionRecords returns the total number of stored prediction records
func CountPredictionRecords(node sqalx.Node) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Commit() // read-only tx

	var count int
	err = sdb.Select("COUNT(*)").
		From("prediction_record").
		RunWith(tx).QueryRow().Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountPredictionRecords: %s", err)
	}
	return count, nil
}

// Update inserts the prediction record. Records are append-only; inserting a
// record for a (trip, slot) pair that already has one is a no-op, which keeps
// extraction idempotent across repeated processing passes.
func (record *PredictionRecord) Update(node sqalx.Node) error {
	if record.Key == "" {
		return errors.New("AddPredictionRecord: trip key missing")
	}

	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if record.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return errors.New("AddPredictionRecord: " + err.Error())
		}
		record.ID = id.String()
	}

	tripStart := pq.NullTime{Time: record.TripStart, Valid: !record.TripStart.IsZero()}
	schedDep := pq.NullTime{Time: record.ScheduledDeparture, Valid: !record.ScheduledDeparture.IsZero()}
	leftDock := pq.NullTime{Time: record.LeftDock, Valid: !record.LeftDock.IsZero()}
	tripEnd := pq.NullTime{Time: record.TripEnd, Valid: !record.TripEnd.IsZero()}

	_, err = sdb.Insert("prediction_record").
		Columns("id", "trip_key", "vessel", "departing_terminal", "arriving_terminal", "type",
			"trip_start", "scheduled_departure", "left_dock", "trip_end",
			"min_time", "pred_time", "max_time", "mae_ms", "std_dev_ms",
			"actual", "delta_total_ms", "delta_range_ms").
		Values(record.ID, record.Key, record.Vessel, record.DepartingTerminal,
			record.ArrivingTerminal, record.Type,
			tripStart, schedDep, leftDock, tripEnd,
			record.MinTime, record.PredTime, record.MaxTime,
			record.MAE.Milliseconds(), record.StdDev.Milliseconds(),
			record.Actual, record.DeltaTotal.Milliseconds(), record.DeltaRange.Milliseconds()).
		Suffix("ON CONFLICT (trip_key, type) DO NOTHING").
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddPredictionRecord: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the prediction record
func (record *PredictionRecord) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("prediction_record").
		Where(sq.Eq{"id": record.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemovePredictionRecord: %s", err)
	}
	return tx.Commit()
}
