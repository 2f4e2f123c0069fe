package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/salishsea/ferrytrack/dataobjects"
	"github.com/salishsea/ferrytrack/utils"
)

// PredictionRecord composites resource
type PredictionRecord struct {
	resource
}

type apiPredictionRecord struct {
	ID                 string `msgpack:"id" json:"id"`
	Key                string `msgpack:"tripKey" json:"tripKey"`
	Vessel             string `msgpack:"vessel" json:"vessel"`
	DepartingTerminal  string `msgpack:"departingTerminal" json:"departingTerminal"`
	ArrivingTerminal   string `msgpack:"arrivingTerminal" json:"arrivingTerminal"`
	Type               string `msgpack:"type" json:"type"`
	TripStart          *int64 `msgpack:"tripStart" json:"tripStart"`
	ScheduledDeparture *int64 `msgpack:"scheduledDeparture" json:"scheduledDeparture"`
	LeftDock           *int64 `msgpack:"leftDock" json:"leftDock"`
	TripEnd            *int64 `msgpack:"tripEnd" json:"tripEnd"`
	MinTime            *int64 `msgpack:"minTime" json:"minTime"`
	PredTime           *int64 `msgpack:"predTime" json:"predTime"`
	MaxTime            *int64 `msgpack:"maxTime" json:"maxTime"`
	MAE                int64  `msgpack:"mae" json:"mae"`
	StdDev             int64  `msgpack:"stdDev" json:"stdDev"`
	Actual             int64  `msgpack:"actual" json:"actual"`
	DeltaTotal         int64  `msgpack:"deltaTotal" json:"deltaTotal"`
	DeltaRange         int64  `msgpack:"deltaRange" json:"deltaRange"`
}

func buildAPIpredictionRecord(record *dataobjects.PredictionRecord) apiPredictionRecord {
	return apiPredictionRecord{
		ID:                 record.ID,
		Key:                record.Key,
		Vessel:             record.Vessel,
		DepartingTerminal:  record.DepartingTerminal,
		ArrivingTerminal:   record.ArrivingTerminal,
		Type:               string(record.Type),
		TripStart:          millisOrNil(record.TripStart),
		ScheduledDeparture: millisOrNil(record.ScheduledDeparture),
		LeftDock:           millisOrNil(record.LeftDock),
		TripEnd:            millisOrNil(record.TripEnd),
		MinTime:            millisOrNil(record.MinTime),
		PredTime:           millisOrNil(record.PredTime),
		MaxTime:            millisOrNil(record.MaxTime),
		MAE:                int64(record.MAE.Seconds()),
		StdDev:             int64(record.StdDev.Seconds()),
		Actual:             utils.MillisFromTime(record.Actual),
		DeltaTotal:         int64(record.DeltaTotal.Seconds()),
		DeltaRange:         int64(record.DeltaRange.Seconds()),
	}
}

// WithNode associates a sqalx Node with this resource
func (r *PredictionRecord) WithNode(node sqalx.Node) *PredictionRecord {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *PredictionRecord) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	var records []*dataobjects.PredictionRecord
	if c.Param("vessel") != "" {
		records, err = dataobjects.GetPredictionRecordsForVessel(tx, c.Param("vessel"))
	} else {
		records, err = dataobjects.GetPredictionRecords(tx)
	}
	if err != nil {
		return err
	}
	apirecords := make([]apiPredictionRecord, len(records))
	for i := range records {
		apirecords[i] = buildAPIpredictionRecord(records[i])
	}
	RenderData(c, apirecords)
	return nil
}
