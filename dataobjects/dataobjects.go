package dataobjects

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var sdb sq.StatementBuilderType

func init() {
	sdb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Point represents bidimentional coordinates (such as GPS coordinates as used by Google Maps)
type Point [2]float64

// Value implements the driver.Value interface
func (p Point) Value() (driver.Value, error) {
	return fmt.Sprintf("(%f,%f)", p[0], p[1]), nil
}

// Scan implements the sql.Scanner interface
func (p *Point) Scan(val interface{}) error {
	b, ok := val.([]byte)
	if !ok {
		return errors.New("Scan: Invalid val type for scanning")
	}
	_, err := fmt.Sscanf(string(b), "(%f,%f)", &p[0], &p[1])
	return err
}

func getCacheKey(objtype string, other ...interface{}) string {
	elem := make([]string, len(other))
	for i, e := range other {
		elem[i] = fmt.Sprint(e)
	}
	return strings.Join(append([]string{"do", objtype}, elem...), "-")
}
