package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// Bulletin composites resource
type Bulletin struct {
	resource
}

type apiBulletin struct {
	ID       string `msgpack:"id" json:"id"`
	Terminal string `msgpack:"terminal" json:"terminal"`
	Title    string `msgpack:"title" json:"title"`
	Body     string `msgpack:"body" json:"body"`
	Posted   int64  `msgpack:"posted" json:"posted"`
}

func buildAPIbulletin(bulletin *dataobjects.Bulletin) apiBulletin {
	return apiBulletin{
		ID:       bulletin.ID,
		Terminal: bulletin.Terminal,
		Title:    bulletin.Title,
		Body:     bulletin.Body,
		Posted:   utils.MillisFromTime(bulletin.Posted),
	}
}

// WithNode associates a sqalx Node with this resource
func (r *Bulletin) WithNode(node sqalx.Node) *Bulletin {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Bulletin) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	var bulletins []*dataobjects.Bulletin
	if c.Param("terminal") != "" {
		bulletins, err = dataobjects.GetBulletinsForTerminal(tx, c.Param("terminal"))
	} else {
		bulletins, err = dataobjects.GetBulletins(tx)
	}
	if err != nil {
		return err
	}
	apibulletins := make([]apiBulletin, len(bulletins))
	for i := range bulletins {
		apibulletins[i] = buildAPIbulletin(bulletins[i])
	}
	RenderData(c, apibulletins)
	return nil
}
