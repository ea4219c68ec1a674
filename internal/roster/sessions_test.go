package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddSessionDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")

	require.NoError(t, s.AddSession(ctx, class.ID, "2024-01-06"))
	require.ErrorIs(t, s.AddSession(ctx, class.ID, "2024-01-06"), ErrConflict)
	require.ErrorIs(t, s.AddSession(ctx, class.ID, "not-a-date"), ErrValidation)
	require.ErrorIs(t, s.AddSession(ctx, "ghost", "2024-01-06"), ErrNotFound)
}

func TestSessionDatesNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	require.NoError(t, s.AddSession(ctx, class.ID, "2024-01-06"))
	require.NoError(t, s.AddSession(ctx, class.ID, "2024-01-20"))
	require.NoError(t, s.AddSession(ctx, class.ID, "2024-01-13"))

	require.Equal(t, []string{"2024-01-20", "2024-01-13", "2024-01-06"}, s.SessionDates(class.ID))
}

func TestDeleteSession(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")
	require.NoError(t, s.AddSession(ctx, class.ID, "2024-01-06"))

	require.NoError(t, s.DeleteSession(ctx, class.ID, "2024-01-06"))
	require.Empty(t, s.SessionDates(class.ID))
	require.ErrorIs(t, s.DeleteSession(ctx, class.ID, "2024-01-06"), ErrNotFound)
}

func TestGenerateSessionsWeekly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30") // Saturdays

	// One date pre-scheduled; generation must skip it.
	require.NoError(t, s.AddSession(ctx, class.ID, "2024-01-13"))

	added, err := s.GenerateSessions(ctx, class.ID, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Equal(t, []string{"2024-01-06", "2024-01-20", "2024-01-27"}, added)
	require.Len(t, s.SessionDates(class.ID), 4)

	// Re-running adds nothing.
	added, err = s.GenerateSessions(ctx, class.ID, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Empty(t, added)
}

func TestGenerateSessionsValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	class := mustAddClass(t, s, "Youth", 6, "16:00", "17:30")

	_, err := s.GenerateSessions(ctx, class.ID, "bad", "2024-01-31")
	require.ErrorIs(t, err, ErrValidation)
	_, err = s.GenerateSessions(ctx, class.ID, "2024-02-01", "2024-01-01")
	require.ErrorIs(t, err, ErrValidation)
	_, err = s.GenerateSessions(ctx, "ghost", "2024-01-01", "2024-01-31")
	require.ErrorIs(t, err, ErrNotFound)
}
