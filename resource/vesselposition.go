package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// VesselPosition composites resource
type VesselPosition struct {
	resource
}

type apiVesselPosition struct {
	Vessel    string   `msgpack:"vessel" json:"vessel"`
	Latitude  float64  `msgpack:"lat" json:"lat"`
	Longitude float64  `msgpack:"lon" json:"lon"`
	Heading   *float64 `msgpack:"heading" json:"heading"`
	Speed     *float64 `msgpack:"speed" json:"speed"`
	InService bool     `msgpack:"inService" json:"inService"`
	AtDock    bool     `msgpack:"atDock" json:"atDock"`
	Time      int64    `msgpack:"time" json:"time"`
}

func buildAPIvesselPosition(position *dataobjects.VesselPosition) apiVesselPosition {
	data := apiVesselPosition{
		Vessel:    position.Vessel,
		Latitude:  position.Latitude,
		Longitude: position.Longitude,
		InService: position.InService,
		AtDock:    position.AtDock,
		Time:      utils.MillisFromTime(position.Time),
	}
	if position.HasHeading {
		heading := position.Heading
		data.Heading = &heading
	}
	if position.HasSOG {
		speed := position.Speed
		data.Speed = &speed
	}
	return data
}

// WithNode associates a sqalx Node with this resource
func (r *VesselPosition) WithNode(node sqalx.Node) *VesselPosition {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *VesselPosition) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		position, err := dataobjects.GetLatestVesselPosition(tx, c.Param("id"))
		if err != nil {
			return err
		}
		RenderData(c, buildAPIvesselPosition(position))
	} else {
		positions, err := dataobjects.GetLatestVesselPositions(tx)
		if err != nil {
			return err
		}
		apipositions := make([]apiVesselPosition, len(positions))
		for i := range positions {
			apipositions[i] = buildAPIvesselPosition(positions[i])
		}
		RenderData(c, apipositions)
	}
	return nil
}
