package compute

import (
	"errors"
	"testing"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// fakeModelSource serves canned models per bucket
type fakeModelSource struct {
	chain map[string]*dataobjects.ModelParameters
	pair  map[string]*dataobjects.ModelParameters
	err   error
}

func (s *fakeModelSource) ByChain(chainKey, modelType string) (*dataobjects.ModelParameters, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chain[chainKey+"|"+modelType], nil
}

func (s *fakeModelSource) ByPair(pairKey, modelType string) (*dataobjects.ModelParameters, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pair[pairKey+"|"+modelType], nil
}

func TestResolveModelOrderedFallback(t *testing.T) {
	chainModel := &dataobjects.ModelParameters{BucketType: dataobjects.ChainBucket, ChainKey: "KIN>P52>BBI"}
	pairModel := &dataobjects.ModelParameters{BucketType: dataobjects.PairBucket, PairKey: "P52-BBI"}

	tests := []struct {
		name   string
		source *fakeModelSource
		want   *dataobjects.ModelParameters
	}{
		{
			"chain hit wins over pair",
			&fakeModelSource{
				chain: map[string]*dataobjects.ModelParameters{"KIN>P52>BBI|" + dataobjects.InServiceAtSeaArriveC: chainModel},
				pair:  map[string]*dataobjects.ModelParameters{"P52-BBI|" + dataobjects.InServiceAtSeaArriveC: pairModel},
			},
			chainModel,
		},
		{
			"pair fallback on chain miss",
			&fakeModelSource{
				chain: map[string]*dataobjects.ModelParameters{},
				pair:  map[string]*dataobjects.ModelParameters{"P52-BBI|" + dataobjects.InServiceAtSeaArriveC: pairModel},
			},
			pairModel,
		},
		{
			"total miss yields nil",
			&fakeModelSource{
				chain: map[string]*dataobjects.ModelParameters{},
				pair:  map[string]*dataobjects.ModelParameters{},
			},
			nil,
		},
	}
	for _, tt := range tests {
		got, err := ResolveModel(tt.source, "KIN>P52>BBI", "P52-BBI", dataobjects.InServiceAtSeaArriveC)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: ResolveModel = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"missing model", errors.New("ModelParameters not found"), true},
		{"missing trip", errors.New("VesselTrip not found"), true},
		{"connection failure", errors.New("getModelParametersWithSelect: dial tcp 127.0.0.1:1: connect: connection refused"), false},
		{"scan failure", errors.New("getVesselTripsWithSelect: sql: Scan error"), false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("%s: isNotFound(%v) = %v, want %v", tt.name, tt.err, got, tt.want)
		}
	}
}

func TestResolveModelPropagatesErrors(t *testing.T) {
	source := &fakeModelSource{err: errors.New("store down")}
	_, err := ResolveModel(source, "c", "p", dataobjects.InServiceAtSeaArriveC)
	if err == nil {
		t.Error("store failure was swallowed")
	}
}

func TestModelTypeFor(t *testing.T) {
	tests := []struct {
		ptype       dataobjects.PredictionType
		fromLayover bool
		want        string
	}{
		{dataobjects.AtDockDepartCurr, false, dataobjects.InServiceAtDockDepartB},
		{dataobjects.AtDockArriveNext, false, dataobjects.InServiceAtDockArriveC},
		{dataobjects.AtDockDepartNext, false, dataobjects.InServiceAtDockDepartC},
		{dataobjects.AtSeaArriveNext, false, dataobjects.InServiceAtSeaArriveC},
		{dataobjects.AtSeaDepartNext, false, dataobjects.InServiceAtSeaDepartC},
		{dataobjects.AtDockDepartCurr, true, dataobjects.LayoverAtDockDepartB},
		{dataobjects.AtDockArriveNext, true, dataobjects.LayoverAtDockArriveC},
		{dataobjects.AtDockDepartNext, true, dataobjects.LayoverAtDockDepartC},
		{dataobjects.AtSeaArriveNext, true, dataobjects.LayoverAtSeaArriveC},
		{dataobjects.AtSeaDepartNext, true, dataobjects.LayoverAtSeaDepartC},
	}
	for _, tt := range tests {
		if got := ModelTypeFor(tt.ptype, tt.fromLayover); got != tt.want {
			t.Errorf("ModelTypeFor(%s, %v) = %q, want %q", tt.ptype, tt.fromLayover, got, tt.want)
		}
	}
	if got := ModelTypeFor("NO_SUCH_SLOT", false); got != "" {
		t.Errorf("ModelTypeFor on unknown slot = %q, want empty", got)
	}
}

func TestChainAndPairKeys(t *testing.T) {
	if got := ChainKey("KIN", "P52", "BBI"); got != "KIN>P52>BBI" {
		t.Errorf("ChainKey with history = %q", got)
	}
	if got := ChainKey("", "P52", "BBI"); got != "P52>BBI" {
		t.Errorf("ChainKey without history = %q", got)
	}
	if got := PairKey("P52", "BBI"); got != "P52-BBI" {
		t.Errorf("PairKey = %q", got)
	}
}
