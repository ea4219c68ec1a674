package roster

import "sort"

// StudentStats is a per-student attendance summary over marked records only.
type StudentStats struct {
	Total          int `json:"total"`
	Present        int `json:"present"`
	Absent         int `json:"absent"`
	AttendanceRate int `json:"attendanceRate"`
}

// DateStats is one day's bucket in a rollup.
type DateStats struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Rate    int    `json:"rate"`
}

// ClassStats summarizes a class over a date range.
type ClassStats struct {
	Total        int         `json:"total"`
	Present      int         `json:"present"`
	Absent       int         `json:"absent"`
	AverageRate  int         `json:"averageRate"`
	StudentCount int         `json:"studentCount"` // current active students
	ClassCount   int         `json:"classCount"`   // distinct dates with >=1 record
	ByDate       []DateStats `json:"byDate"`
}

// StudentRank is one row of a ranked view.
type StudentRank struct {
	Student
	StudentStats
}

// Aggregator computes read-only derived views over the store. It holds no
// state of its own and never mutates.
type Aggregator struct {
	store *Store
}

// NewAggregator wraps a store for read-side statistics.
func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store}
}

// StudentStats summarizes one student's marked records, optionally limited
// to from <= date <= to (empty bounds are open).
func (a *Aggregator) StudentStats(studentID, from, to string) StudentStats {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return studentStatsLocked(a.store.attendance, studentID, from, to)
}

// ClassStats summarizes a class over an optional date range, with per-date
// buckets sorted ascending by date.
func (a *Aggregator) ClassStats(classID, from, to string) ClassStats {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	members := make(map[string]bool)
	var stats ClassStats
	for _, st := range a.store.students {
		if st.ClassID == classID {
			members[st.ID] = true
			if st.Status == StudentActive {
				stats.StudentCount++
			}
		}
	}

	byDate := make(map[string]*DateStats)
	for _, rec := range a.store.attendance {
		if !members[rec.StudentID] {
			continue
		}
		if from != "" && rec.Date < from {
			continue
		}
		if to != "" && rec.Date > to {
			continue
		}
		bucket := byDate[rec.Date]
		if bucket == nil {
			bucket = &DateStats{Date: rec.Date}
			byDate[rec.Date] = bucket
		}
		bucket.Total++
		stats.Total++
		switch rec.Status {
		case StatusPresent:
			bucket.Present++
			stats.Present++
		case StatusAbsent:
			bucket.Absent++
			stats.Absent++
		}
	}

	stats.ClassCount = len(byDate)
	stats.AverageRate = roundRate(stats.Present, stats.Total)
	for _, bucket := range byDate {
		bucket.Rate = roundRate(bucket.Present, bucket.Total)
		stats.ByDate = append(stats.ByDate, *bucket)
	}
	// ISO dates sort chronologically as strings.
	sort.Slice(stats.ByDate, func(i, j int) bool { return stats.ByDate[i].Date < stats.ByDate[j].Date })
	return stats
}

// DailyRollup groups all marks in [from, to] by date, irrespective of class
// unless classID filters, sorted ascending by date.
func (a *Aggregator) DailyRollup(from, to, classID string) []DateStats {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	byDate := make(map[string]*DateStats)
	for _, rec := range a.store.attendance {
		if rec.Date < from || rec.Date > to {
			continue
		}
		if classID != "" && rec.ClassID != classID {
			continue
		}
		bucket := byDate[rec.Date]
		if bucket == nil {
			bucket = &DateStats{Date: rec.Date}
			byDate[rec.Date] = bucket
		}
		bucket.Total++
		switch rec.Status {
		case StatusPresent:
			bucket.Present++
		case StatusAbsent:
			bucket.Absent++
		}
	}

	out := make([]DateStats, 0, len(byDate))
	for _, bucket := range byDate {
		bucket.Rate = roundRate(bucket.Present, bucket.Total)
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MostAbsent ranks students by absolute absence count, descending. Students
// with zero marked records in the range are excluded. Ties keep the
// underlying student list order.
func (a *Aggregator) MostAbsent(limit int, from, to string) []StudentRank {
	ranked := a.ranked(from, to, 1)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Absent > ranked[j].Absent })
	return clip(ranked, limit)
}

// LowestAttendance ranks students by attendance rate, ascending, considering
// only students with at least minMarked records (3 when <= 0). Ties keep the
// underlying student list order.
func (a *Aggregator) LowestAttendance(limit, minMarked int) []StudentRank {
	if minMarked <= 0 {
		minMarked = 3
	}
	ranked := a.ranked("", "", minMarked)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AttendanceRate < ranked[j].AttendanceRate })
	return clip(ranked, limit)
}

func (a *Aggregator) ranked(from, to string, minMarked int) []StudentRank {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	var ranked []StudentRank
	for _, st := range a.store.students {
		stats := studentStatsLocked(a.store.attendance, st.ID, from, to)
		if stats.Total < minMarked {
			continue
		}
		ranked = append(ranked, StudentRank{Student: st, StudentStats: stats})
	}
	return ranked
}

func studentStatsLocked(attendance map[string]AttendanceRecord, studentID, from, to string) StudentStats {
	var stats StudentStats
	for _, rec := range attendance {
		if rec.StudentID != studentID {
			continue
		}
		if from != "" && rec.Date < from {
			continue
		}
		if to != "" && rec.Date > to {
			continue
		}
		stats.Total++
		switch rec.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		}
	}
	stats.AttendanceRate = roundRate(stats.Present, stats.Total)
	return stats
}

func clip(ranked []StudentRank, limit int) []StudentRank {
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
