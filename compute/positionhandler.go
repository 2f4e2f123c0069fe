package compute

import (
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	cache "github.com/patrickmn/go-cache"
	altmath "github.com/pkg/math"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// minMovingSpeed is the smoothed speed, in knots, below which a docked
// vessel counts as stationary
const minMovingSpeed = 0.5

// PositionHandler keeps the recent live position state for each vessel:
// the latest readings, a smoothed speed, and how long the vessel has been
// sitting still. The trip pipeline consults it to decide whether a vessel
// has been idle at a terminal long enough to break its in-service chain.
type PositionHandler struct {
	state *cache.Cache
}

type vesselState struct {
	readings   []*dataobjects.VesselPosition
	speedAvg   *movingaverage.MovingAverage
	lastMoving time.Time
}

// NewPositionHandler returns a new, initialized PositionHandler
func NewPositionHandler() *PositionHandler {
	h := new(PositionHandler)
	h.state = cache.New(6*time.Hour, 10*time.Minute)
	return h
}

// RegisterPosition records a position reading for its vessel
func (h *PositionHandler) RegisterPosition(pos *dataobjects.VesselPosition) {
	state := h.stateFor(pos.Vessel)

	state.readings = append(state.readings, pos)
	// preserve last 100 readings
	state.readings = state.readings[altmath.Max(0, len(state.readings)-100):len(state.readings)]

	if pos.HasSOG {
		state.speedAvg.Add(pos.Speed)
	}
	if !pos.AtDock || state.speedAvg.Avg() > minMovingSpeed {
		state.lastMoving = pos.Time
	}
	if state.lastMoving.IsZero() {
		// first sighting; assume it just stopped moving
		state.lastMoving = pos.Time
	}

	h.state.Set(pos.Vessel, state, cache.DefaultExpiration)
}

// LastPosition returns the most recent registered reading for the vessel,
// or nil when the vessel has not been seen
func (h *PositionHandler) LastPosition(vessel string) *dataobjects.VesselPosition {
	state, ok := h.lookup(vessel)
	if !ok || len(state.readings) == 0 {
		return nil
	}
	return state.readings[len(state.readings)-1]
}

// Readings returns the retained readings for the vessel, oldest first
func (h *PositionHandler) Readings(vessel string) []*dataobjects.VesselPosition {
	state, ok := h.lookup(vessel)
	if !ok {
		return nil
	}
	return state.readings
}

// SmoothedSpeed returns the moving-average speed for the vessel, in knots
func (h *PositionHandler) SmoothedSpeed(vessel string) float64 {
	state, ok := h.lookup(vessel)
	if !ok {
		return 0
	}
	return state.speedAvg.Avg()
}

// StationarySince returns for how long the vessel has been sitting still as
// of the given instant. Zero when the vessel is moving or has not been seen.
func (h *PositionHandler) StationarySince(vessel string, now time.Time) time.Duration {
	state, ok := h.lookup(vessel)
	if !ok || state.lastMoving.IsZero() {
		return 0
	}
	d := now.Sub(state.lastMoving)
	if d < 0 {
		return 0
	}
	return d
}

func (h *PositionHandler) stateFor(vessel string) *vesselState {
	if state, ok := h.lookup(vessel); ok {
		return state
	}
	return &vesselState{
		speedAvg: movingaverage.New(20),
	}
}

func (h *PositionHandler) lookup(vessel string) (*vesselState, bool) {
	value, ok := h.state.Get(vessel)
	if !ok {
		return nil, false
	}
	return value.(*vesselState), true
}
