package compute

import (
	"strings"

	"github.com/gbl08ma/sqalx"
	"github.com/salishsea/ferrytrack/dataobjects"
)

// ModelSource resolves fitted model parameters for a key and model type.
// A nil result with a nil error means no model is stored for the key.
type ModelSource interface {
	ByChain(chainKey, modelType string) (*dataobjects.ModelParameters, error)
	ByPair(pairKey, modelType string) (*dataobjects.ModelParameters, error)
}

// StoreModelSource is a ModelSource backed by the model parameter store
type StoreModelSource struct {
	Node sqalx.Node
}

// isNotFound reports whether err is one of the store's "no such record"
// sentinels, as opposed to a storage failure that must reach the caller
func isNotFound(err error) bool {
	return err != nil && strings.HasSuffix(err.Error(), "not found")
}

// ByChain implements ModelSource
func (s *StoreModelSource) ByChain(chainKey, modelType string) (*dataobjects.ModelParameters, error) {
	model, err := dataobjects.GetModelParametersByChain(s.Node, chainKey, modelType)
	if err != nil {
		if isNotFound(err) {
			// a missing model is an expected steady-state condition
			return nil, nil
		}
		return nil, err
	}
	return model, nil
}

// ByPair implements ModelSource
func (s *StoreModelSource) ByPair(pairKey, modelType string) (*dataobjects.ModelParameters, error) {
	model, err := dataobjects.GetModelParametersByPair(s.Node, pairKey, modelType)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return model, nil
}

// ResolveModel tries the chain-keyed model first and falls back to the
// generic pair-keyed model. Returns nil when neither bucket has a model:
// the slot is then simply left unpredicted.
func ResolveModel(source ModelSource, chainKey, pairKey, modelType string) (*dataobjects.ModelParameters, error) {
	lookups := []func() (*dataobjects.ModelParameters, error){
		func() (*dataobjects.ModelParameters, error) { return source.ByChain(chainKey, modelType) },
		func() (*dataobjects.ModelParameters, error) { return source.ByPair(pairKey, modelType) },
	}
	for _, lookup := range lookups {
		model, err := lookup()
		if err != nil {
			return nil, err
		}
		if model != nil {
			return model, nil
		}
	}
	return nil, nil
}

// ModelTypeFor returns the canonical model type for a prediction slot, split
// by whether the trip continues an in-service chain or starts from a layover
func ModelTypeFor(ptype dataobjects.PredictionType, fromLayover bool) string {
	var suffix string
	switch ptype {
	case dataobjects.AtDockDepartCurr:
		suffix = "at-dock-depart-b"
	case dataobjects.AtDockArriveNext:
		suffix = "at-dock-arrive-c"
	case dataobjects.AtDockDepartNext:
		suffix = "at-dock-depart-c"
	case dataobjects.AtSeaArriveNext:
		suffix = "at-sea-arrive-c"
	case dataobjects.AtSeaDepartNext:
		suffix = "at-sea-depart-c"
	default:
		return ""
	}
	if fromLayover {
		return "layover-" + suffix
	}
	return "in-service-" + suffix
}

// ChainKey builds the route-chain key for a trip given the terminal the
// vessel arrived from, if any. Chains are ordered terminal sequences, so
// "KIN>P52>BBI" and "BBI>P52>KIN" are distinct models.
func ChainKey(previousTerminal, departingTerminal, arrivingTerminal string) string {
	elems := []string{departingTerminal, arrivingTerminal}
	if previousTerminal != "" {
		elems = append([]string{previousTerminal}, elems...)
	}
	return strings.Join(elems, ">")
}

// PairKey builds the generic terminal-pair key for a trip
func PairKey(departingTerminal, arrivingTerminal string) string {
	return departingTerminal + "-" + arrivingTerminal
}
