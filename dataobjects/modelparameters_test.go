package dataobjects

import (
	"strings"
	"testing"
)

func TestModelParametersBucketKey(t *testing.T) {
	m := &ModelParameters{
		BucketType: ChainBucket,
		ChainKey:   "KIN>P52>BBI",
		PairKey:    "P52-BBI",
	}
	if got := m.BucketKey(); got != "KIN>P52>BBI" {
		t.Errorf("chain BucketKey() = %q", got)
	}
	m.BucketType = PairBucket
	if got := m.BucketKey(); got != "P52-BBI" {
		t.Errorf("pair BucketKey() = %q", got)
	}
}

// Every keyed lookup caches under these keys, so any code path that
// removes a record must clear exactly these.
func TestModelParametersCacheKeys(t *testing.T) {
	m := &ModelParameters{
		BucketType: ChainBucket,
		ChainKey:   "KIN>P52>BBI",
		PairKey:    "P52-BBI",
		ModelType:  InServiceAtSeaArriveC,
	}
	want := []string{
		getCacheKey("model-chain", "KIN>P52>BBI", InServiceAtSeaArriveC),
		getCacheKey("model-pair", "P52-BBI", InServiceAtSeaArriveC),
	}
	got := m.cacheKeys()
	if len(got) != len(want) {
		t.Fatalf("cacheKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cacheKeys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestModelTypesCanonical(t *testing.T) {
	if len(ModelTypes) != 10 {
		t.Fatalf("len(ModelTypes) = %d, want 10", len(ModelTypes))
	}
	seen := map[string]bool{}
	inService, layover := 0, 0
	for _, mt := range ModelTypes {
		if seen[mt] {
			t.Errorf("duplicate model type %q", mt)
		}
		seen[mt] = true
		switch {
		case strings.HasPrefix(mt, "in-service-"):
			inService++
		case strings.HasPrefix(mt, "layover-"):
			layover++
		default:
			t.Errorf("model type %q has no origin prefix", mt)
		}
	}
	if inService != 5 || layover != 5 {
		t.Errorf("model type split = %d in-service, %d layover", inService, layover)
	}
}
