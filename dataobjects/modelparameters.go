package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"
	"github.com/thoas/go-funk"
)

// BucketType discriminates which key field identifies a ModelParameters record
type BucketType string

const (
	// ChainBucket keys a model by a specific ordered vessel route-chain
	ChainBucket BucketType = "chain"
	// PairBucket keys a model by a generic terminal pair
	PairBucket BucketType = "pair"
)

// The ten canonical model types: one per prediction slot, split by whether
// the trip continues an in-service chain or starts from a layover
const (
	InServiceAtDockDepartB = "in-service-at-dock-depart-b"
	InServiceAtDockArriveC = "in-service-at-dock-arrive-c"
	InServiceAtDockDepartC = "in-service-at-dock-depart-c"
	InServiceAtSeaArriveC  = "in-service-at-sea-arrive-c"
	InServiceAtSeaDepartC  = "in-service-at-sea-depart-c"
	LayoverAtDockDepartB   = "layover-at-dock-depart-b"
	LayoverAtDockArriveC   = "layover-at-dock-arrive-c"
	LayoverAtDockDepartC   = "layover-at-dock-depart-c"
	LayoverAtSeaArriveC    = "layover-at-sea-arrive-c"
	LayoverAtSeaDepartC    = "layover-at-sea-depart-c"
)

// ModelTypes lists every canonical model type
var ModelTypes = []string{
	InServiceAtDockDepartB,
	InServiceAtDockArriveC,
	InServiceAtDockDepartC,
	InServiceAtSeaArriveC,
	InServiceAtSeaDepartC,
	LayoverAtDockDepartB,
	LayoverAtDockArriveC,
	LayoverAtDockDepartC,
	LayoverAtSeaArriveC,
	LayoverAtSeaDepartC,
}

// ModelParameters holds the fitted parameters of one arrival/departure
// prediction model, keyed by (bucket type, chain or pair key, model type).
// At most one record exists per key tuple; the Update operation enforces
// this by replacing any previous record for the tuple.
type ModelParameters struct {
	ID         string
	BucketType BucketType
	ChainKey   string
	PairKey    string
	ModelType  string

	// fitted offsets relative to the anchor time, and fit quality
	MinSeconds  float64
	PredSeconds float64
	MaxSeconds  float64
	MAESeconds  float64
	StdDev      float64
	Samples     int
	FittedAt    time.Time
}

// BucketKey returns the key selected by the record's bucket type
func (m *ModelParameters) BucketKey() string {
	if m.BucketType == ChainBucket {
		return m.ChainKey
	}
	return m.PairKey
}

// GetModelParameters returns a slice with all stored model parameter records.
// Meant for operational tooling; the prediction hot path uses the keyed
// lookups below.
func GetModelParameters(node sqalx.Node) ([]*ModelParameters, error) {
	s := sdb.Select().
		OrderBy("model_type ASC")
	return getModelParametersWithSelect(node, s)
}

// getModelParametersWithSelect returns a slice with all records that match the conditions in sbuilder
func getModelParametersWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*ModelParameters, error) {
	models := []*ModelParameters{}

	tx, err := node.Beginx()
	if err != nil {
		return models, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("model_parameters_v2.id", "model_parameters_v2.bucket_type",
		"model_parameters_v2.chain_key", "model_parameters_v2.pair_key",
		"model_parameters_v2.model_type", "model_parameters_v2.min_seconds",
		"model_parameters_v2.pred_seconds", "model_parameters_v2.max_seconds",
		"model_parameters_v2.mae_seconds", "model_parameters_v2.std_dev",
		"model_parameters_v2.samples", "model_parameters_v2.fitted_at").
		From("model_parameters_v2").
		RunWith(tx).Query()
	if err != nil {
		return models, fmt.Errorf("getModelParametersWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var model ModelParameters
		err := rows.Scan(
			&model.ID,
			&model.BucketType,
			&model.ChainKey,
			&model.PairKey,
			&model.ModelType,
			&model.MinSeconds,
			&model.PredSeconds,
			&model.MaxSeconds,
			&model.MAESeconds,
			&model.StdDev,
			&model.Samples,
			&model.FittedAt)
		if err != nil {
			return models, fmt.Errorf("getModelParametersWithSelect: %s", err)
		}
		models = append(models, &model)
	}
	if err := rows.Err(); err != nil {
		return models, fmt.Errorf("getModelParametersWithSelect: %s", err)
	}
	return models, nil
}

// GetModelParametersByChain returns the model stored for the given route
// chain and model type
func GetModelParametersByChain(node sqalx.Node, chainKey, modelType string) (*ModelParameters, error) {
	if value, present := node.Load(getCacheKey("model-chain", chainKey, modelType)); present {
		return value.(*ModelParameters), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"bucket_type": ChainBucket}).
		Where(sq.Eq{"chain_key": chainKey}).
		Where(sq.Eq{"model_type": modelType})
	models, err := getModelParametersWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.New("ModelParameters not found")
	}
	node.Store(getCacheKey("model-chain", chainKey, modelType), models[0])
	return models[0], nil
}

// GetModelParametersByPair returns the model stored for the given terminal
// pair and model type
func GetModelParametersByPair(node sqalx.Node, pairKey, modelType string) (*ModelParameters, error) {
	if value, present := node.Load(getCacheKey("model-pair", pairKey, modelType)); present {
		return value.(*ModelParameters), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"bucket_type": PairBucket}).
		Where(sq.Eq{"pair_key": pairKey}).
		Where(sq.Eq{"model_type": modelType})
	models, err := getModelParametersWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.New("ModelParameters not found")
	}
	node.Store(getCacheKey("model-pair", pairKey, modelType), models[0])
	return models[0], nil
}

// Update replaces whatever was stored for this record's
// (bucket type, key, model type) tuple with this record. Delete and insert
// run in one transaction, so a reader never observes the tuple absent
// mid-replace and two concurrent writers cannot leave duplicates behind.
func (model *ModelParameters) Update(node sqalx.Node) error {
	if model.BucketType != ChainBucket && model.BucketType != PairBucket {
		return errors.New("AddModelParameters: invalid bucket type")
	}
	if model.BucketKey() == "" {
		return errors.New("AddModelParameters: bucket key missing")
	}
	if !funk.ContainsString(ModelTypes, model.ModelType) {
		return errors.New("AddModelParameters: unknown model type " + model.ModelType)
	}

	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if model.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return errors.New("AddModelParameters: " + err.Error())
		}
		model.ID = id.String()
	}

	keyColumn := "pair_key"
	if model.BucketType == ChainBucket {
		keyColumn = "chain_key"
	}

	_, err = sdb.Delete("model_parameters_v2").
		Where(sq.Eq{"bucket_type": model.BucketType}).
		Where(sq.Eq{keyColumn: model.BucketKey()}).
		Where(sq.Eq{"model_type": model.ModelType}).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddModelParameters: " + err.Error())
	}

	_, err = sdb.Insert("model_parameters_v2").
		Columns("id", "bucket_type", "chain_key", "pair_key", "model_type",
			"min_seconds", "pred_seconds", "max_seconds", "mae_seconds",
			"std_dev", "samples", "fitted_at").
		Values(model.ID, model.BucketType, model.ChainKey, model.PairKey, model.ModelType,
			model.MinSeconds, model.PredSeconds, model.MaxSeconds, model.MAESeconds,
			model.StdDev, model.Samples, model.FittedAt).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddModelParameters: " + err.Error())
	}

	model.uncache(tx)
	return tx.Commit()
}

// cacheKeys returns the node cache keys under which keyed lookups may
// have stored this record
func (model *ModelParameters) cacheKeys() []string {
	return []string{
		getCacheKey("model-chain", model.ChainKey, model.ModelType),
		getCacheKey("model-pair", model.PairKey, model.ModelType),
	}
}

func (model *ModelParameters) uncache(node sqalx.Node) {
	for _, key := range model.cacheKeys() {
		node.Delete(key)
	}
}

// Delete deletes the model parameter record. Deleting a record that no
// longer exists is not an error.
func (model *ModelParameters) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("model_parameters_v2").
		Where(sq.Eq{"id": model.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveModelParameters: %s", err)
	}
	model.uncache(tx)
	return tx.Commit()
}

// DeleteAllModelParameters removes every stored model, returning how many
// were deleted. Used for full model resets during retraining cycles.
func DeleteAllModelParameters(node sqalx.Node) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// the keyed lookups cache per-key entries, so every record must drop
	// its keys or resets would keep serving deleted models
	models, err := getModelParametersWithSelect(tx, sdb.Select())
	if err != nil {
		return 0, fmt.Errorf("DeleteAllModelParameters: %s", err)
	}

	result, err := sdb.Delete("model_parameters_v2").
		RunWith(tx).Exec()
	if err != nil {
		return 0, fmt.Errorf("DeleteAllModelParameters: %s", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteAllModelParameters: %s", err)
	}
	for _, model := range models {
		model.uncache(tx)
	}
	return int(deleted), tx.Commit()
}
