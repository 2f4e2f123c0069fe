package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// Vessel composites resource
type Vessel struct {
	resource
}

type apiVessel struct {
	Abbrev    string `msgpack:"abbrev" json:"abbrev"`
	Name      string `msgpack:"name" json:"name"`
	InService bool   `msgpack:"inService" json:"inService"`
}

// WithNode associates a sqalx Node with this resource
func (r *Vessel) WithNode(node sqalx.Node) *Vessel {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Vessel) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		vessel, err := dataobjects.GetVessel(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, apiVessel(*vessel))
	} else {
		vessels, err := dataobjects.GetVessels(tx)
		if err != nil {
			return err
		}
		apivessels := make([]apiVessel, len(vessels))
		for i := range vessels {
			apivessels[i] = apiVessel(*vessels[i])
		}
		RenderData(c, apivessels)
	}
	return nil
}
