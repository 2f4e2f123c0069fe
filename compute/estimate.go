package compute

import (
	"time"

	"github.com/salishsea/ferrytrack/dataobjects"
)

// EstimateFunc turns an anchor time and fitted model parameters into the
// bounds and fit-quality statistics of a prediction. The default is
// Estimate; tests and alternative estimators can substitute their own.
type EstimateFunc func(anchor time.Time, model *dataobjects.ModelParameters) dataobjects.Prediction

// Estimate applies a model's fitted offsets to the anchor time, producing
// the minimum, predicted and maximum event times plus the model's fit
// statistics. The Actual and delta fields are left unset; they are filled
// when the real event is observed.
func Estimate(anchor time.Time, model *dataobjects.ModelParameters) dataobjects.Prediction {
	return dataobjects.Prediction{
		MinTime:  anchor.Add(secondsToDuration(model.MinSeconds)),
		PredTime: anchor.Add(secondsToDuration(model.PredSeconds)),
		MaxTime:  anchor.Add(secondsToDuration(model.MaxSeconds)),
		MAE:      secondsToDuration(model.MAESeconds),
		StdDev:   secondsToDuration(model.StdDev),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
