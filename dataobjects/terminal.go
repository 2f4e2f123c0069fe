package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Terminal represents a ferry terminal
type Terminal struct {
	Abbrev   string
	Name     string
	Location Point
}

// GetTerminals returns a slice with all registered terminals
func GetTerminals(node sqalx.Node) ([]*Terminal, error) {
	s := sdb.Select().
		OrderBy("abbrev ASC")
	return getTerminalsWithSelect(node, s)
}

// getTerminalsWithSelect returns a slice with all terminals that match the conditions in sbuilder
func getTerminalsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Terminal, error) {
	terminals := []*Terminal{}

	tx, err := node.Beginx()
	if err != nil {
		return terminals, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("terminal.abbrev", "terminal.name", "terminal.location").
		From("terminal").
		RunWith(tx).Query()
	if err != nil {
		return terminals, fmt.Errorf("getTerminalsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var terminal Terminal
		err := rows.Scan(
			&terminal.Abbrev,
			&terminal.Name,
			&terminal.Location)
		if err != nil {
			return terminals, fmt.Errorf("getTerminalsWithSelect: %s", err)
		}
		terminals = append(terminals, &terminal)
	}
	if err := rows.Err(); err != nil {
		return terminals, fmt.Errorf("getTerminalsWithSelect: %s", err)
	}
	return terminals, nil
}

// GetTerminal returns the Terminal with the given abbreviation
func GetTerminal(node sqalx.Node, abbrev string) (*Terminal, error) {
	if value, present := node.Load(getCacheKey("terminal", abbrev)); present {
		return value.(*Terminal), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"abbrev": abbrev})
	terminals, err := getTerminalsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(terminals) == 0 {
		return nil, errors.New("Terminal not found")
	}
	node.Store(getCacheKey("terminal", abbrev), terminals[0])
	return terminals[0], nil
}

// Update adds or updates the terminal
func (terminal *Terminal) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("terminal").
		Columns("abbrev", "name", "location").
		Values(terminal.Abbrev, terminal.Name, terminal.Location).
		Suffix("ON CONFLICT (abbrev) DO UPDATE SET name = ?, location = ?",
			terminal.Name, terminal.Location).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddTerminal: " + err.Error())
	}
	tx.Delete(getCacheKey("terminal", terminal.Abbrev))
	return tx.Commit()
}

// Delete deletes the terminal
func (terminal *Terminal) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("terminal").
		Where(sq.Eq{"abbrev": terminal.Abbrev}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveTerminal: %s", err)
	}
	tx.Delete(getCacheKey("terminal", terminal.Abbrev))
	return tx.Commit()
}
