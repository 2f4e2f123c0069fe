package dataobjects

import (
	"testing"
	"time"
)

func TestVesselTripSlotAccessors(t *testing.T) {
	trip := &VesselTrip{Key: "t1"}
	for _, ptype := range PredictionTypes {
		if trip.Slot(ptype) != nil {
			t.Errorf("Slot(%s) on empty trip is not nil", ptype)
		}
	}
	for i, ptype := range PredictionTypes {
		p := &Prediction{PredTime: time.Unix(int64(i+1), 0)}
		trip.SetSlot(ptype, p)
		if trip.Slot(ptype) != p {
			t.Errorf("Slot(%s) did not return the prediction just set", ptype)
		}
	}
	if trip.Slot("NO_SUCH_SLOT") != nil {
		t.Error("Slot with unknown type is not nil")
	}
}

func TestVesselTripCurrentSlot(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		leftDock time.Time
		tripEnd  time.Time
		want     PredictionType
	}{
		{"still docked", time.Time{}, time.Time{}, AtDockDepartCurr},
		{"underway", base, time.Time{}, AtSeaArriveNext},
		{"arrived", base, base.Add(35 * time.Minute), AtSeaDepartNext},
	}
	for _, tt := range tests {
		trip := &VesselTrip{Key: "t1", LeftDock: tt.leftDock, TripEnd: tt.tripEnd}
		if got := trip.CurrentSlot(); got != tt.want {
			t.Errorf("%s: CurrentSlot() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestPredictionCompletePredicted(t *testing.T) {
	var nilPred *Prediction
	if nilPred.Complete() || nilPred.Predicted() {
		t.Error("nil prediction reported as complete or predicted")
	}
	p := &Prediction{}
	if p.Complete() || p.Predicted() {
		t.Error("zero prediction reported as complete or predicted")
	}
	p.PredTime = time.Unix(1000, 0)
	if !p.Predicted() || p.Complete() {
		t.Error("prediction with PredTime only should be predicted and not complete")
	}
	p.Actual = time.Unix(2000, 0)
	if !p.Complete() {
		t.Error("prediction with Actual set should be complete")
	}
}
