package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStudentStatsRange(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-13", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-20", StatusPresent))

	agg := NewAggregator(s)
	require.Equal(t, StudentStats{Total: 3, Present: 2, Absent: 1, AttendanceRate: 67}, agg.StudentStats(amy.ID, "", ""))
	require.Equal(t, StudentStats{Total: 2, Present: 1, Absent: 1, AttendanceRate: 50}, agg.StudentStats(amy.ID, "2024-01-06", "2024-01-13"))
	require.Equal(t, StudentStats{Total: 1, Present: 1, AttendanceRate: 100}, agg.StudentStats(amy.ID, "2024-01-20", ""))
	require.Equal(t, StudentStats{}, agg.StudentStats("ghost", "", ""))
}

func TestClassStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	ben := mustAddStudent(t, s, "Ben", class.ID)
	_, err := s.AddStudent(ctx, StudentInput{Name: "Cleo", ClassID: class.ID, Status: StudentInactive})
	require.NoError(t, err)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-13", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-06", StatusPresent))

	stats := NewAggregator(s).ClassStats(class.ID, "", "")
	require.Equal(t, 2, stats.StudentCount) // active only
	require.Equal(t, 2, stats.ClassCount)   // distinct dates
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Present)
	require.Equal(t, 1, stats.Absent)
	require.Equal(t, 67, stats.AverageRate)

	require.Len(t, stats.ByDate, 2)
	require.Equal(t, "2024-01-06", stats.ByDate[0].Date)
	require.Equal(t, DateStats{Date: "2024-01-06", Total: 2, Present: 2, Rate: 100}, stats.ByDate[0])
	require.Equal(t, DateStats{Date: "2024-01-13", Total: 1, Absent: 1, Rate: 0}, stats.ByDate[1])
}

func TestDailyRollupFilters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	youth := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	kids := mustAddClass(t, s, "Kids", 6, "17:30", "19:00")
	amy := mustAddStudent(t, s, "Amy", youth.ID)
	ben := mustAddStudent(t, s, "Ben", kids.ID)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-06", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-02-03", StatusPresent))

	agg := NewAggregator(s)

	all := agg.DailyRollup("2024-01-01", "2024-12-31", "")
	require.Len(t, all, 2)
	require.Equal(t, DateStats{Date: "2024-01-06", Total: 2, Present: 1, Absent: 1, Rate: 50}, all[0])

	january := agg.DailyRollup("2024-01-01", "2024-01-31", "")
	require.Len(t, january, 1)

	youthOnly := agg.DailyRollup("2024-01-01", "2024-12-31", youth.ID)
	require.Len(t, youthOnly, 2)
	require.Equal(t, 1, youthOnly[0].Total)
}

func TestMostAbsentExcludesUnmarked(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	ben := mustAddStudent(t, s, "Ben", class.ID)
	mustAddStudent(t, s, "Cleo", class.ID) // no records at all

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-13", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-06", StatusAbsent))

	ranked := NewAggregator(s).MostAbsent(10, "", "")
	require.Len(t, ranked, 2)
	require.Equal(t, "Amy", ranked[0].Name)
	require.Equal(t, 2, ranked[0].Absent)
	require.Equal(t, "Ben", ranked[1].Name)

	require.Len(t, NewAggregator(s).MostAbsent(1, "", ""), 1)
}

func TestLowestAttendanceMinMarked(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	ben := mustAddStudent(t, s, "Ben", class.ID)

	// Amy: 3 records, 1 present. Ben: only 2 records, below the default
	// threshold.
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-13", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-20", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-06", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-13", StatusAbsent))

	agg := NewAggregator(s)

	ranked := agg.LowestAttendance(10, 0)
	require.Len(t, ranked, 1)
	require.Equal(t, "Amy", ranked[0].Name)
	require.Equal(t, 33, ranked[0].AttendanceRate)

	ranked = agg.LowestAttendance(10, 1)
	require.Len(t, ranked, 2)
	require.Equal(t, "Ben", ranked[0].Name) // 0% sorts first
}
