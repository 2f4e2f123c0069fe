package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Vessel represents a ferry vessel in the tracked fleet
type Vessel struct {
	Abbrev    string
	Name      string
	InService bool
}

// GetVessels returns a slice with all registered vessels
func GetVessels(node sqalx.Node) ([]*Vessel, error) {
	s := sdb.Select().
		OrderBy("abbrev ASC")
	return getVesselsWithSelect(node, s)
}

// getVesselsWithSelect returns a slice with all vessels that match the conditions in sbuilder
func getVesselsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Vessel, error) {
	vessels := []*Vessel{}

	tx, err := node.Beginx()
	if err != nil {
		return vessels, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("vessel.abbrev", "vessel.name", "vessel.in_service").
		From("vessel").
		RunWith(tx).Query()
	if err != nil {
		return vessels, fmt.Errorf("getVesselsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vessel Vessel
		err := rows.Scan(
			&vessel.Abbrev,
			&vessel.Name,
			&vessel.InService)
		if err != nil {
			return vessels, fmt.Errorf("getVesselsWithSelect: %s", err)
		}
		vessels = append(vessels, &vessel)
	}
	if err := rows.Err(); err != nil {
		return vessels, fmt.Errorf("getVesselsWithSelect: %s", err)
	}
	return vessels, nil
}

// GetVessel returns the Vessel with the given abbreviation
func GetVessel(node sqalx.Node, abbrev string) (*Vessel, error) {
	if value, present := node.Load(getCacheKey("vessel", abbrev)); present {
		return value.(*Vessel), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"abbrev": abbrev})
	vessels, err := getVesselsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(vessels) == 0 {
		return nil, errors.New("Vessel not found")
	}
	node.Store(getCacheKey("vessel", abbrev), vessels[0])
	return vessels[0], nil
}

// Update adds or updates the vessel
func (vessel *Vessel) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("vessel").
		Columns("abbrev", "name", "in_service").
		Values(vessel.Abbrev, vessel.Name, vessel.InService).
		Suffix("ON CONFLICT (abbrev) DO UPDATE SET name = ?, in_service = ?",
			vessel.Name, vessel.InService).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddVessel: " + err.Error())
	}
	tx.Delete(getCacheKey("vessel", vessel.Abbrev))
	return tx.Commit()
}

// Delete deletes the vessel
func (vessel *Vessel) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("vessel").
		Where(sq.Eq{"abbrev": vessel.Abbrev}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveVessel: %s", err)
	}
	tx.Delete(getCacheKey("vessel", vessel.Abbrev))
	return tx.Commit()
}
