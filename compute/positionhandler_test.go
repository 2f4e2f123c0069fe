package compute

import (
	"testing"
	"time"

	"github.com/salishsea/ferrytrack/dataobjects"
)

func TestPositionHandlerStationaryTracking(t *testing.T) {
	h := NewPositionHandler()
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	if d := h.StationarySince("WAL", base); d != 0 {
		t.Errorf("unseen vessel StationarySince = %s, want 0", d)
	}

	// underway: the stationary clock keeps resetting
	h.RegisterPosition(&dataobjects.VesselPosition{
		Vessel: "WAL", AtDock: false, Speed: 0, HasSOG: true, Time: base,
	})
	if d := h.StationarySince("WAL", base); d != 0 {
		t.Errorf("moving vessel StationarySince = %s, want 0", d)
	}

	// docked and stopped: the clock runs from the last underway reading
	docked := base.Add(5 * time.Minute)
	for i := 0; i < 25; i++ {
		h.RegisterPosition(&dataobjects.VesselPosition{
			Vessel: "WAL", AtDock: true, Speed: 0, HasSOG: true,
			Time: docked.Add(time.Duration(i) * time.Minute),
		})
	}
	now := base.Add(70 * time.Minute)
	if d := h.StationarySince("WAL", now); d != 70*time.Minute {
		t.Errorf("docked vessel StationarySince = %s, want 70m", d)
	}

	if pos := h.LastPosition("WAL"); pos == nil || !pos.AtDock {
		t.Error("LastPosition did not return the latest docked reading")
	}
	if speed := h.SmoothedSpeed("WAL"); speed > minMovingSpeed {
		t.Errorf("SmoothedSpeed = %f after sustained zero readings", speed)
	}
}

func TestPositionHandlerCapsReadings(t *testing.T) {
	h := NewPositionHandler()
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		h.RegisterPosition(&dataobjects.VesselPosition{
			Vessel: "TAC", Time: base.Add(time.Duration(i) * time.Second),
		})
	}
	readings := h.Readings("TAC")
	if len(readings) != 100 {
		t.Fatalf("retained %d readings, want 100", len(readings))
	}
	if !readings[len(readings)-1].Time.Equal(base.Add(149 * time.Second)) {
		t.Error("newest reading was dropped instead of the oldest")
	}
}
