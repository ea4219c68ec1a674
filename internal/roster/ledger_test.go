package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkAttendanceIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.Len(t, s.ListAttendance(), 1)
	require.Equal(t, StatusPresent, s.Attendance(amy.ID, "2024-01-06"))

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusAbsent))
	require.Len(t, s.ListAttendance(), 1)
	require.Equal(t, StatusAbsent, s.Attendance(amy.ID, "2024-01-06"))
}

func TestMarkAttendanceValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)

	require.ErrorIs(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", "late"), ErrValidation)
	require.ErrorIs(t, s.MarkAttendance(ctx, amy.ID, "06/01/2024", StatusPresent), ErrValidation)
	require.ErrorIs(t, s.MarkAttendance(ctx, "ghost", "2024-01-06", StatusPresent), ErrNotFound)
	require.Empty(t, s.ListAttendance())
}

func TestAttendanceUnmarkedSentinel(t *testing.T) {
	s, _ := newTestStore(t)
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	require.Equal(t, StatusUnmarked, s.Attendance(amy.ID, "2024-01-06"))
}

func TestAttendanceStatsEmptyClass(t *testing.T) {
	s, _ := newTestStore(t)
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	require.Equal(t, DayStats{}, s.AttendanceStats(class.ID, "2024-01-06"))
}

func TestAttendanceStatsCounts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	ben := mustAddStudent(t, s, "Ben", class.ID)
	mustAddStudent(t, s, "Cleo", class.ID) // never marked
	_, err := s.AddStudent(ctx, StudentInput{Name: "Dana", ClassID: class.ID, Status: StudentInactive})
	require.NoError(t, err)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-06", StatusPresent))

	stats := s.AttendanceStats(class.ID, "2024-01-06")
	require.Equal(t, DayStats{Total: 3, Present: 2, Absent: 0, Rate: 67}, stats)
}

func TestMarkBatchBestEffort(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	ben := mustAddStudent(t, s, "Ben", class.ID)

	res := s.MarkBatch(ctx, "2024-01-06", []BatchMark{
		{StudentID: amy.ID, Status: StatusPresent},
		{StudentID: "ghost", Status: StatusPresent},
		{StudentID: ben.ID, Status: StatusAbsent},
	})
	require.Equal(t, 2, res.Success)
	require.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)

	// The failing item did not roll back the others.
	require.Equal(t, StatusPresent, s.Attendance(amy.ID, "2024-01-06"))
	require.Equal(t, StatusAbsent, s.Attendance(ben.ID, "2024-01-06"))
}

func TestCopyLastAttendance(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	ben := mustAddStudent(t, s, "Ben", class.ID)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2023-12-30", StatusAbsent))
	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))
	require.NoError(t, s.MarkAttendance(ctx, ben.ID, "2024-01-06", StatusAbsent))

	res, err := s.CopyLastAttendance(ctx, class.ID, "2024-01-13")
	require.NoError(t, err)
	require.Equal(t, "2024-01-06", res.SourceDate)
	require.Equal(t, "2024-01-13", res.TargetDate)
	require.Equal(t, 2, res.Success)
	require.Zero(t, res.Failed)
	require.Equal(t, StatusPresent, s.Attendance(amy.ID, "2024-01-13"))
	require.Equal(t, StatusAbsent, s.Attendance(ben.ID, "2024-01-13"))
}

func TestCopyLastAttendanceNothingBefore(t *testing.T) {
	s, _ := newTestStore(t)
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")

	_, err := s.CopyLastAttendance(context.Background(), class.ID, "2024-01-06")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.CopyLastAttendance(context.Background(), class.ID, "someday")
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteAttendanceRange(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	amy := mustAddStudent(t, s, "Amy", class.ID)
	for _, date := range []string{"2024-01-06", "2024-01-13", "2024-01-20"} {
		require.NoError(t, s.MarkAttendance(ctx, amy.ID, date, StatusPresent))
	}

	deleted, err := s.DeleteAttendanceRange(ctx, "2024-01-06", "2024-01-13")
	require.NoError(t, err)
	require.Equal(t, 2, deleted)
	require.Len(t, s.ListAttendance(), 1)
	require.Equal(t, "2024-01-20", s.ListAttendance()[0].Date)

	deleted, err = s.DeleteAttendanceRange(ctx, "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestYouthAmyEndToEnd(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	sat := 6
	youth, err := s.AddClass(ctx, ClassInput{Name: "Youth", StartTime: "16:00", EndTime: "17:30", DayOfWeek: &sat})
	require.NoError(t, err)

	amy, err := s.AddStudent(ctx, StudentInput{Name: "Amy", ClassID: youth.ID})
	require.NoError(t, err)

	require.NoError(t, s.MarkAttendance(ctx, amy.ID, "2024-01-06", StatusPresent))

	stats := NewAggregator(s).StudentStats(amy.ID, "", "")
	require.Equal(t, StudentStats{Total: 1, Present: 1, Absent: 0, AttendanceRate: 100}, stats)
}
