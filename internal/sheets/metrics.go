package sheets

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"roster/internal/roster"
)

var (
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_sync_total",
		Help: "Completed sync operations by direction and outcome.",
	}, []string{"op", "outcome"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_sync_duration_seconds",
		Help:    "Wall time of sync operations by direction.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	syncTotal.WithLabelValues(op, outcome).Inc()
	syncDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// sortRecords orders attendance rows by date then student id so pushes are
// deterministic and the sheet stays readable.
func sortRecords(recs []roster.AttendanceRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date < recs[j].Date
		}
		return recs[i].StudentID < recs[j].StudentID
	})
}
