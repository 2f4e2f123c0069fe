package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// Terminal composites resource
type Terminal struct {
	resource
}

type apiTerminal struct {
	Abbrev   string            `msgpack:"abbrev" json:"abbrev"`
	Name     string            `msgpack:"name" json:"name"`
	Location dataobjects.Point `msgpack:"location" json:"location"`
}

// WithNode associates a sqalx Node with this resource
func (r *Terminal) WithNode(node sqalx.Node) *Terminal {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Terminal) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		terminal, err := dataobjects.GetTerminal(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, apiTerminal(*terminal))
	} else {
		terminals, err := dataobjects.GetTerminals(tx)
		if err != nil {
			return err
		}
		apiterminals := make([]apiTerminal, len(terminals))
		for i := range terminals {
			apiterminals[i] = apiTerminal(*terminals[i])
		}
		RenderData(c, apiterminals)
	}
	return nil
}
