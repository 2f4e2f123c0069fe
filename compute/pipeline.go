package compute

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/salishsea/ferrytrack/dataobjects"
)

// TripHandler reconciles the published schedule with the live position feed,
// maintaining one classified VesselTrip per physical sailing and extracting
// durable prediction records as slots complete.
type TripHandler struct {
	// LayoverThreshold is how long a vessel must sit still at a terminal
	// before its in-service chain counts as broken and the next trip is
	// classified as layover-originated
	LayoverThreshold time.Duration

	// DepartureGrace is how far past its scheduled time a departure is
	// still considered the vessel's next sailing
	DepartureGrace time.Duration

	Models    ModelSource
	Estimate  EstimateFunc
	Positions *PositionHandler

	log *log.Logger
}

// NewTripHandler returns a new, initialized TripHandler
func NewTripHandler(models ModelSource, positions *PositionHandler, logger *log.Logger) *TripHandler {
	return &TripHandler{
		LayoverThreshold: 25 * time.Minute,
		DepartureGrace:   15 * time.Minute,
		Models:           models,
		Estimate:         Estimate,
		Positions:        positions,
		log:              logger,
	}
}

// ProcessAll runs one reconciliation pass over the given position feed
// snapshot. An empty snapshot fails the whole pass: proceeding on zero data
// would wrongly mark every vessel unknown. Per-vessel failures are logged
// and skipped so one vessel's bad data never blocks the rest of the fleet.
func (h *TripHandler) ProcessAll(node sqalx.Node, positions []*dataobjects.VesselPosition) error {
	if len(positions) == 0 {
		return errors.New("ProcessAll: position feed returned no vessels")
	}
	for _, pos := range positions {
		err := h.ProcessVessel(node, pos)
		if err != nil {
			h.log.Println("ProcessAll:", err)
		}
	}
	return nil
}

// ProcessVessel runs one reconciliation pass for a single vessel. Callers
// must not process the same vessel concurrently from two triggers.
func (h *TripHandler) ProcessVessel(node sqalx.Node, pos *dataobjects.VesselPosition) error {
	if pos == nil || pos.Vessel == "" || pos.Time.IsZero() {
		return errors.New("ProcessVessel: missing or malformed position signal")
	}
	h.Positions.RegisterPosition(pos)

	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	scheduled, err := dataobjects.GetScheduledTripsForVessel(tx, pos.Vessel)
	if err != nil {
		return fmt.Errorf("ProcessVessel: %s", err)
	}
	departures := GroupByPhysicalDeparture(scheduled)

	trip, err := dataobjects.GetOpenVesselTripForVessel(tx, pos.Vessel)
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("ProcessVessel: %s", err)
		}
		trip = nil
	}
	lastEnded, err := dataobjects.GetLastEndedVesselTripForVessel(tx, pos.Vessel)
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("ProcessVessel: %s", err)
		}
		lastEnded = nil
	}

	if trip == nil {
		if !pos.InService {
			return tx.Commit()
		}
		departure := nextDeparture(departures, pos.Time, h.DepartureGrace)
		if departure == nil {
			return tx.Commit()
		}
		fromLayover := lastEnded == nil ||
			h.Positions.StationarySince(pos.Vessel, pos.Time) >= h.LayoverThreshold
		trip = newTripFromDeparture(departure, pos.Time, fromLayover)
	}

	tripCompleted, prevCompleted := applyPosition(trip, lastEnded, pos)

	h.predictSlots(trip, previousTerminal(lastEnded))

	err = trip.Update(tx)
	if err != nil {
		return fmt.Errorf("ProcessVessel: %s", err)
	}
	if len(prevCompleted) > 0 {
		err = lastEnded.Update(tx)
		if err != nil {
			return fmt.Errorf("ProcessVessel: %s", err)
		}
	}

	err = h.extractCompleted(tx, trip, tripCompleted)
	if err != nil {
		return fmt.Errorf("ProcessVessel: %s", err)
	}
	err = h.extractCompleted(tx, lastEnded, prevCompleted)
	if err != nil {
		return fmt.Errorf("ProcessVessel: %s", err)
	}
	return tx.Commit()
}

func (h *TripHandler) extractCompleted(node sqalx.Node, trip *dataobjects.VesselTrip, completed []dataobjects.PredictionType) error {
	for _, ptype := range completed {
		record, ok := ExtractPredictionRecord(trip, ptype)
		if !ok {
			continue
		}
		err := record.Update(node)
		if err != nil {
			return err
		}
	}
	return nil
}

// applyPosition advances a trip's lifecycle according to one position
// reading, returning the slots completed on the trip itself and on the
// previously ended trip. It never overwrites a slot whose Actual is already
// set, so replaying the same reading is a no-op.
func applyPosition(trip, lastEnded *dataobjects.VesselTrip, pos *dataobjects.VesselPosition) ([]dataobjects.PredictionType, []dataobjects.PredictionType) {
	tripCompleted := []dataobjects.PredictionType{}
	prevCompleted := []dataobjects.PredictionType{}

	switch {
	case trip.LeftDock.IsZero() && !pos.AtDock && pos.InService:
		// the vessel has left its dock
		if completeSlot(trip, dataobjects.AtDockDepartCurr, pos.Time, true) {
			tripCompleted = append(tripCompleted, dataobjects.AtDockDepartCurr)
		}
		trip.LeftDock = pos.Time
		// this same departure is the "depart next dock" event of the
		// previous sailing
		if lastEnded != nil {
			if completeSlot(lastEnded, dataobjects.AtDockDepartNext, pos.Time, false) {
				prevCompleted = append(prevCompleted, dataobjects.AtDockDepartNext)
			}
			if completeSlot(lastEnded, dataobjects.AtSeaDepartNext, pos.Time, false) {
				prevCompleted = append(prevCompleted, dataobjects.AtSeaDepartNext)
			}
		}

	case !trip.LeftDock.IsZero() && trip.TripEnd.IsZero() && pos.AtDock:
		// the vessel has arrived at the next dock
		if completeSlot(trip, dataobjects.AtSeaArriveNext, pos.Time, true) {
			tripCompleted = append(tripCompleted, dataobjects.AtSeaArriveNext)
		}
		if completeSlot(trip, dataobjects.AtDockArriveNext, pos.Time, false) {
			tripCompleted = append(tripCompleted, dataobjects.AtDockArriveNext)
		}
		trip.TripEnd = pos.Time
	}

	return tripCompleted, prevCompleted
}

// completeSlot marks the real event for a slot as observed at the given
// time. When the slot carries an estimate, the prediction deltas are
// computed at the same moment. A slot that is already complete is left
// untouched. Slots that were never predicted are only materialized for the
// trip's own current stage (createIfNil).
func completeSlot(trip *dataobjects.VesselTrip, ptype dataobjects.PredictionType, at time.Time, createIfNil bool) bool {
	p := trip.Slot(ptype)
	if p == nil {
		if !createIfNil {
			return false
		}
		p = &dataobjects.Prediction{}
		trip.SetSlot(ptype, p)
	}
	if p.Complete() {
		return false
	}
	p.Actual = at
	if p.Predicted() {
		p.DeltaTotal = p.Actual.Sub(p.PredTime)
		p.DeltaRange = p.MaxTime.Sub(p.MinTime)
	}
	return true
}

// predictSlots resolves a model for each slot applicable to the trip's
// current stage and fills in its estimate. Slots whose event has already
// been observed are never touched; slots with no resolvable model are left
// unpredicted rather than failing the pass.
func (h *TripHandler) predictSlots(trip *dataobjects.VesselTrip, prevTerminal string) {
	chainKey := ChainKey(prevTerminal, trip.DepartingTerminal, trip.ArrivingTerminal)
	pairKey := PairKey(trip.DepartingTerminal, trip.ArrivingTerminal)

	for _, ptype := range applicableSlots(trip) {
		if trip.Slot(ptype).Complete() {
			continue
		}
		anchor := h.anchorFor(trip, ptype)
		if anchor.IsZero() {
			continue
		}
		modelType := ModelTypeFor(ptype, trip.FromLayover)
		model, err := ResolveModel(h.Models, chainKey, pairKey, modelType)
		if err != nil {
			h.log.Println("predictSlots:", err)
			continue
		}
		if model == nil {
			continue
		}
		p := h.Estimate(anchor, model)
		trip.SetSlot(ptype, &p)
	}
}

// applicableSlots returns the slots that can be estimated at the trip's
// current stage: the three at-dock slots before departure, the two at-sea
// slots while underway, none once the trip has ended
func applicableSlots(trip *dataobjects.VesselTrip) []dataobjects.PredictionType {
	switch {
	case trip.LeftDock.IsZero():
		return []dataobjects.PredictionType{
			dataobjects.AtDockDepartCurr,
			dataobjects.AtDockArriveNext,
			dataobjects.AtDockDepartNext,
		}
	case trip.TripEnd.IsZero():
		return []dataobjects.PredictionType{
			dataobjects.AtSeaArriveNext,
			dataobjects.AtSeaDepartNext,
		}
	}
	return nil
}

// anchorFor returns the known time each slot's estimate is measured from:
// the scheduled departure while docked, the observed dock departure while at
// sea, chaining through earlier predictions where those exist
func (h *TripHandler) anchorFor(trip *dataobjects.VesselTrip, ptype dataobjects.PredictionType) time.Time {
	switch ptype {
	case dataobjects.AtDockDepartCurr:
		return trip.ScheduledDeparture
	case dataobjects.AtDockArriveNext:
		if trip.AtDockDepartCurr.Predicted() {
			return trip.AtDockDepartCurr.PredTime
		}
		return trip.ScheduledDeparture
	case dataobjects.AtDockDepartNext:
		if trip.AtDockArriveNext.Predicted() {
			return trip.AtDockArriveNext.PredTime
		}
		return trip.ScheduledDeparture
	case dataobjects.AtSeaArriveNext:
		return trip.LeftDock
	case dataobjects.AtSeaDepartNext:
		if trip.AtSeaArriveNext.Predicted() {
			return trip.AtSeaArriveNext.PredTime
		}
		return trip.LeftDock
	}
	return time.Time{}
}

// nextDeparture returns the earliest physical departure that is not yet more
// than grace past its scheduled time
func nextDeparture(departures []*PhysicalDeparture, now time.Time, grace time.Duration) *PhysicalDeparture {
	for _, departure := range departures {
		if departure.DepartingTime.After(now.Add(-grace)) {
			return departure
		}
	}
	return nil
}

// newTripFromDeparture opens a VesselTrip for a physical departure. The
// group's first advertised trip supplies the key and the primary
// destination.
func newTripFromDeparture(departure *PhysicalDeparture, now time.Time, fromLayover bool) *dataobjects.VesselTrip {
	primary := departure.Trips[0]
	return &dataobjects.VesselTrip{
		Key:                primary.Key,
		Vessel:             primary.Vessel,
		DepartingTerminal:  departure.Terminal,
		ArrivingTerminal:   primary.ArrivingTerminal,
		ScheduledDeparture: departure.DepartingTime,
		TripStart:          now,
		FromLayover:        fromLayover,
	}
}

func previousTerminal(lastEnded *dataobjects.VesselTrip) string {
	if lastEnded == nil {
		return ""
	}
	return lastEnded.DepartingTerminal
}
