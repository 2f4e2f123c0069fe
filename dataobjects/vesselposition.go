package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"
)

// VesselPosition represents one reading of the live vessel position feed
type VesselPosition struct {
	ID         string
	VesselID   int
	Vessel     string
	Latitude   float64
	Longitude  float64
	Heading    float64
	HasHeading bool
	Speed      float64
	HasSOG     bool
	InService  bool
	AtDock     bool
	Time       time.Time
}

// GetVesselPositions returns a slice with all registered vessel positions
func GetVesselPositions(node sqalx.Node) ([]*VesselPosition, error) {
	s := sdb.Select().
		OrderBy("time ASC")
	return getVesselPositionsWithSelect(node, s)
}

// getVesselPositionsWithSelect returns a slice with all positions that match the conditions in sbuilder
func getVesselPositionsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*VesselPosition, error) {
	positions := []*VesselPosition{}

	tx, err := node.Beginx()
	if err != nil {
		return positions, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("vessel_position.id", "vessel_position.vessel_id",
		"vessel_position.vessel", "vessel_position.latitude", "vessel_position.longitude",
		"vessel_position.heading", "vessel_position.speed", "vessel_position.in_service",
		"vessel_position.at_dock", "vessel_position.time").
		From("vessel_position").
		RunWith(tx).Query()
	if err != nil {
		return positions, fmt.Errorf("getVesselPositionsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var position VesselPosition
		var heading, speed sql.NullFloat64
		err := rows.Scan(
			&position.ID,
			&position.VesselID,
			&position.Vessel,
			&position.Latitude,
			&position.Longitude,
			&heading,
			&speed,
			&position.InService,
			&position.AtDock,
			&position.Time)
		if err != nil {
			return positions, fmt.Errorf("getVesselPositionsWithSelect: %s", err)
		}
		position.Heading = heading.Float64
		position.HasHeading = heading.Valid
		position.Speed = speed.Float64
		position.HasSOG = speed.Valid
		positions = append(positions, &position)
	}
	if err := rows.Err(); err != nil {
		return positions, fmt.Errorf("getVesselPositionsWithSelect: %s", err)
	}
	return positions, nil
}

// GetLatestVesselPosition returns the most recent position reading for the
// specified vessel
func GetLatestVesselPosition(node sqalx.Node, vessel string) (*VesselPosition, error) {
	s := sdb.Select().
		Where(sq.Eq{"vessel": vessel}).
		OrderBy("time DESC").
		Limit(1)
	positions, err := getVesselPositionsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, errors.New("VesselPosition not found")
	}
	return positions[0], nil
}

// GetLatestVesselPositions returns the most recent position reading for every
// vessel present in the position feed
func GetLatestVesselPositions(node sqalx.Node) ([]*VesselPosition, error) {
	s := sdb.Select().
		Where("vessel_position.time = (SELECT MAX(p.time) FROM vessel_position p WHERE p.vessel = vessel_position.vessel)").
		OrderBy("vessel ASC")
	return getVesselPositionsWithSelect(node, s)
}

// Update adds or updates the vessel position
func (position *VesselPosition) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if position.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return errors.New("AddVesselPosition: " + err.Error())
		}
		position.ID = id.String()
	}

	// heading 0 is a valid true heading (due north), so validity comes
	// from the feed and not from the value
	heading := sql.NullFloat64{Float64: position.Heading, Valid: position.HasHeading}
	speed := sql.NullFloat64{Float64: position.Speed, Valid: position.HasSOG}

	_, err = sdb.Insert("vessel_position").
		Columns("id", "vessel_id", "vessel", "latitude", "longitude", "heading", "speed", "in_service", "at_dock", "time").
		Values(position.ID, position.VesselID, position.Vessel, position.Latitude, position.Longitude,
			heading, speed, position.InService, position.AtDock, position.Time).
		Suffix("ON CONFLICT (id) DO UPDATE SET latitude = ?, longitude = ?, heading = ?, speed = ?, in_service = ?, at_dock = ?, time = ?",
			position.Latitude, position.Longitude, heading, speed, position.InService, position.AtDock, position.Time).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddVesselPosition: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the vessel position
func (position *VesselPosition) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("vessel_position").
		Where(sq.Eq{"id": position.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveVesselPosition: %s", err)
	}
	return tx.Commit()
}

// DeleteVesselPositionsBefore deletes up to limit position readings older
// than the cutoff, returning the number of readings deleted. Sweeps are
// bounded and resumable like DeleteScheduledTripsDepartingBefore.
func DeleteVesselPositionsBefore(node sqalx.Node, cutoff time.Time, limit uint64) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	subquery, args, err := sdb.Select("id").
		From("vessel_position").
		Where(sq.Lt{"time": cutoff}).
		Limit(limit).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("DeleteVesselPositionsBefore: %s", err)
	}

	result, err := sdb.Delete("vessel_position").
		Where("id IN ("+subquery+")", args...).
		RunWith(tx).Exec()
	if err != nil {
		return 0, fmt.Errorf("DeleteVesselPositionsBefore: %s", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteVesselPositionsBefore: %s", err)
	}
	return int(deleted), tx.Commit()
}
