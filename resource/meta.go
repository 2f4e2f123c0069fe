package resource

import (
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/utils"
)

// Meta composites resource
type Meta struct {
	resource
	lastChange func() time.Time
}

// apiMeta contains information about this API endpoint
type apiMeta struct {
	// Whether this API is still supported
	Supported bool `msgpack:"supported" json:"supported"`

	// Whether this endpoint is up (it would be "down" for example in the event of server maintenance)
	Up bool `msgpack:"up" json:"up"`

	// When tracked fleet state last changed, in epoch milliseconds
	LastChange int64 `msgpack:"lastChange" json:"lastChange"`
}

// WithNode associates a sqalx Node with this resource
func (r *Meta) WithNode(node sqalx.Node) *Meta {
	r.node = node
	return r
}

// WithLastChange associates a last fleet state change getter with this resource
func (r *Meta) WithLastChange(getter func() time.Time) *Meta {
	r.lastChange = getter
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Meta) Get(c *yarf.Context) error {
	meta := apiMeta{
		Supported: true,
		Up:        true,
	}
	if r.lastChange != nil {
		meta.LastChange = utils.MillisFromTime(r.lastChange())
	}
	RenderData(c, meta)
	return nil
}
