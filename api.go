package main

import (
	"time"

	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/resource"
)

// telemetryMiddleware counts served API requests
type telemetryMiddleware struct {
	yarf.Middleware
}

// PreDispatch runs before every request is dispatched to its resource
func (m *telemetryMiddleware) PreDispatch(c *yarf.Context) error {
	apiTotalRequests++
	select {
	case APIrequestTelemetry <- nil:
	default:
	}
	return nil
}

// APIserver runs the public HTTP API
func APIserver() {
	y := yarf.New()
	y.Insert(new(telemetryMiddleware))

	v1 := yarf.RouteGroup("/v1")

	v1.Add("/meta", new(resource.Meta).WithNode(rootSqalxNode).
		WithLastChange(func() time.Time { return lastChange }))

	v1.Add("/vessels", new(resource.Vessel).WithNode(rootSqalxNode))
	v1.Add("/vessels/:id", new(resource.Vessel).WithNode(rootSqalxNode))
	v1.Add("/vessels/:vessel/trips", new(resource.VesselTrip).WithNode(rootSqalxNode))
	v1.Add("/vessels/:vessel/schedule", new(resource.ScheduledTrip).WithNode(rootSqalxNode))
	v1.Add("/vessels/:vessel/records", new(resource.PredictionRecord).WithNode(rootSqalxNode))

	v1.Add("/terminals", new(resource.Terminal).WithNode(rootSqalxNode))
	v1.Add("/terminals/:id", new(resource.Terminal).WithNode(rootSqalxNode))
	v1.Add("/terminals/:terminal/bulletins", new(resource.Bulletin).WithNode(rootSqalxNode))

	v1.Add("/positions", new(resource.VesselPosition).WithNode(rootSqalxNode))
	v1.Add("/positions/:id", new(resource.VesselPosition).WithNode(rootSqalxNode))

	v1.Add("/trips", new(resource.VesselTrip).WithNode(rootSqalxNode))
	v1.Add("/trips/:id", new(resource.VesselTrip).WithNode(rootSqalxNode))

	v1.Add("/schedule", new(resource.ScheduledTrip).WithNode(rootSqalxNode))

	v1.Add("/models", new(resource.ModelParameters).WithNode(rootSqalxNode))

	v1.Add("/records", new(resource.PredictionRecord).WithNode(rootSqalxNode))

	v1.Add("/bulletins", new(resource.Bulletin).WithNode(rootSqalxNode))

	y.AddGroup(v1)

	y.Logger = webLog
	y.Start(":12000")
}
