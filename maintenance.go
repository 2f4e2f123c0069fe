package main

import (
	"time"

	"github.com/SaidinWoT/timespan"
	"github.com/hako/durafmt"

	"github.com/salishsea/ferrytrack/dataobjects"
)

const (
	positionRetention = 7 * 24 * time.Hour
	// schedule entries are useless once their departure is a day in the past
	scheduleRetention = 24 * time.Hour
	bulletinRetention = 90 * 24 * time.Hour

	maintenanceBatchSize = 5000
)

// MaintenanceRunner is meant to be called as a goroutine that periodically
// prunes old feed data. Sweeps only run inside the nightly quiet window and
// delete in bounded batches so a large backlog never holds a long transaction.
func MaintenanceRunner() {
	for {
		now := time.Now()
		if maintenanceWindow(now).ContainsTime(now) {
			runMaintenance(now)
		}
		time.Sleep(30 * time.Minute)
	}
}

func maintenanceWindow(now time.Time) timespan.Span {
	start := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, now.Location())
	return timespan.New(start, 3*time.Hour)
}

func runMaintenance(now time.Time) {
	started := time.Now()
	total := 0

	total += sweep("vessel positions", func() (int, error) {
		return dataobjects.DeleteVesselPositionsBefore(rootSqalxNode,
			now.Add(-positionRetention), maintenanceBatchSize)
	})
	total += sweep("scheduled trips", func() (int, error) {
		return dataobjects.DeleteScheduledTripsDepartingBefore(rootSqalxNode,
			now.Add(-scheduleRetention), maintenanceBatchSize)
	})

	deleted, err := dataobjects.DeleteBulletinsPostedBefore(rootSqalxNode, now.Add(-bulletinRetention))
	if err != nil {
		mainLog.Println(err)
	}
	total += deleted

	if total > 0 {
		mainLog.Println("Maintenance pass deleted", total, "rows in",
			durafmt.Parse(time.Since(started).Round(time.Millisecond)).String())
	}
}

// sweep repeatedly runs one bounded delete batch until the batch comes back
// short, yielding between batches. If a pass is interrupted, the next one
// picks up where it left off.
func sweep(what string, batch func() (int, error)) int {
	deleted := 0
	for {
		n, err := batch()
		if err != nil {
			mainLog.Println("Maintenance sweep of", what, "interrupted:", err)
			return deleted
		}
		deleted += n
		if n < maintenanceBatchSize {
			return deleted
		}
		time.Sleep(1 * time.Second)
	}
}
