package resource

import (
	"net/http"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// ModelParameters composites resource
type ModelParameters struct {
	resource
}

type apiModelParameters struct {
	ID         string `msgpack:"id" json:"id"`
	BucketType string `msgpack:"bucketType" json:"bucketType"`
	ChainKey   string `msgpack:"chainKey" json:"chainKey"`
	PairKey    string `msgpack:"pairKey" json:"pairKey"`
	ModelType  string `msgpack:"modelType" json:"modelType"`

	MinSeconds  float64 `msgpack:"minSeconds" json:"minSeconds"`
	PredSeconds float64 `msgpack:"predSeconds" json:"predSeconds"`
	MaxSeconds  float64 `msgpack:"maxSeconds" json:"maxSeconds"`
	MAESeconds  float64 `msgpack:"maeSeconds" json:"maeSeconds"`
	StdDev      float64 `msgpack:"stdDev" json:"stdDev"`
	Samples     int     `msgpack:"samples" json:"samples"`
	FittedAt    int64   `msgpack:"fittedAt" json:"fittedAt"`
}

func buildAPImodelParameters(model *dataobjects.ModelParameters) apiModelParameters {
	return apiModelParameters{
		ID:          model.ID,
		BucketType:  string(model.BucketType),
		ChainKey:    model.ChainKey,
		PairKey:     model.PairKey,
		ModelType:   model.ModelType,
		MinSeconds:  model.MinSeconds,
		PredSeconds: model.PredSeconds,
		MaxSeconds:  model.MaxSeconds,
		MAESeconds:  model.MAESeconds,
		StdDev:      model.StdDev,
		Samples:     model.Samples,
		FittedAt:    utils.MillisFromTime(model.FittedAt),
	}
}

// WithNode associates a sqalx Node with this resource
func (r *ModelParameters) WithNode(node sqalx.Node) *ModelParameters {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *ModelParameters) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	models, err := dataobjects.GetModelParameters(tx)
	if err != nil {
		return err
	}
	apimodels := make([]apiModelParameters, len(models))
	for i := range models {
		apimodels[i] = buildAPImodelParameters(models[i])
	}
	RenderData(c, apimodels)
	return nil
}

// Post replaces the stored parameters for each submitted key tuple. This is
// how the offline trainer publishes a new fit.
func (r *ModelParameters) Post(c *yarf.Context) error {
	var submitted []apiModelParameters
	err := r.DecodeRequest(c, &submitted)
	if err != nil {
		return err
	}

	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, data := range submitted {
		model := &dataobjects.ModelParameters{
			ID:          data.ID,
			BucketType:  dataobjects.BucketType(data.BucketType),
			ChainKey:    data.ChainKey,
			PairKey:     data.PairKey,
			ModelType:   data.ModelType,
			MinSeconds:  data.MinSeconds,
			PredSeconds: data.PredSeconds,
			MaxSeconds:  data.MaxSeconds,
			MAESeconds:  data.MAESeconds,
			StdDev:      data.StdDev,
			Samples:     data.Samples,
			FittedAt:    utils.TimeFromMillis(data.FittedAt),
		}
		err = model.Update(tx)
		if err != nil {
			return &yarf.CustomError{
				HTTPCode:  http.StatusBadRequest,
				ErrorMsg:  "Failed to store model parameters",
				ErrorBody: err.Error(),
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	RenderData(c, struct {
		Stored int `msgpack:"stored" json:"stored"`
	}{len(submitted)})
	return nil
}

// Delete wipes every stored model, forcing the pipeline back to the
// no-model path until the trainer publishes a new fit
func (r *ModelParameters) Delete(c *yarf.Context) error {
	deleted, err := dataobjects.DeleteAllModelParameters(r.node)
	if err != nil {
		return err
	}
	RenderData(c, struct {
		Deleted int `msgpack:"deleted" json:"deleted"`
	}{deleted})
	return nil
}
