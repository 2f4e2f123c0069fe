package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"
)

// Bulletin represents an operational notice posted for a terminal
type Bulletin struct {
	ID       string
	Terminal string
	Title    string
	Body     string
	Posted   time.Time
}

// GetBulletins returns a slice with all registered bulletins
func GetBulletins(node sqalx.Node) ([]*Bulletin, error) {
	s := sdb.Select().
		OrderBy("posted DESC")
	return getBulletinsWithSelect(node, s)
}

// GetBulletinsForTerminal returns the bulletins posted for the specified terminal
func GetBulletinsForTerminal(node sqalx.Node, terminal string) ([]*Bulletin, error) {
	s := sdb.Select().
		Where(sq.Eq{"terminal": terminal}).
		OrderBy("posted DESC")
	return getBulletinsWithSelect(node, s)
}

func getBulletinsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Bulletin, error) {
	bulletins := []*Bulletin{}

	tx, err := node.Beginx()
	if err != nil {
		return bulletins, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("bulletin.id", "bulletin.terminal", "bulletin.title",
		"bulletin.body", "bulletin.posted").
		From("bulletin").
		RunWith(tx).Query()
	if err != nil {
		return bulletins, fmt.Errorf("getBulletinsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bulletin Bulletin
		err := rows.Scan(
			&bulletin.ID,
			&bulletin.Terminal,
			&bulletin.Title,
			&bulletin.Body,
			&bulletin.Posted)
		if err != nil {
			return bulletins, fmt.Errorf("getBulletinsWithSelect: %s", err)
		}
		bulletins = append(bulletins, &bulletin)
	}
	if err := rows.Err(); err != nil {
		return bulletins, fmt.Errorf("getBulletinsWithSelect: %s", err)
	}
	return bulletins, nil
}

// Update adds or updates the bulletin
func (bulletin *Bulletin) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if bulletin.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return errors.New("AddBulletin: " + err.Error())
		}
		bulletin.ID = id.String()
	}

	_, err = sdb.Insert("bulletin").
		Columns("id", "terminal", "title", "body", "posted").
		Values(bulletin.ID, bulletin.Terminal, bulletin.Title, bulletin.Body, bulletin.Posted).
		Suffix("ON CONFLICT (id) DO UPDATE SET title = ?, body = ?, posted = ?",
			bulletin.Title, bulletin.Body, bulletin.Posted).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddBulletin: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the bulletin
func (bulletin *Bulletin) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("bulletin").
		Where(sq.Eq{"id": bulletin.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveBulletin: %s", err)
	}
	return tx.Commit()
}

// DeleteBulletinsPostedBefore deletes bulletins older than the cutoff,
// returning the number deleted
func DeleteBulletinsPostedBefore(node sqalx.Node, cutoff time.Time) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := sdb.Delete("bulletin").
		Where(sq.Lt{"posted": cutoff}).
		RunWith(tx).Exec()
	if err != nil {
		return 0, fmt.Errorf("DeleteBulletinsPostedBefore: %s", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteBulletinsPostedBefore: %s", err)
	}
	return int(deleted), tx.Commit()
}
