package roster

import (
	"context"
	"sort"
	"time"
)

// AddSession records a dated occurrence of a class. Duplicate (class, date)
// pairs are rejected.
func (s *Store) AddSession(ctx context.Context, classID, date string) error {
	if !ValidDate(date) {
		return &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findClassLocked(classID) < 0 {
		return &NotFoundError{Entity: "class", ID: classID}
	}
	for _, sess := range s.sessions {
		if sess.ClassID == classID && sess.Date == date {
			return &ConflictError{Rule: "duplicate-session", Message: "session already scheduled for this date"}
		}
	}

	snap := s.snapshotLocked()
	snap.Sessions = append(snap.Sessions, Session{ClassID: classID, Date: date, CreatedAt: s.now()})
	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	s.applyLocked(snap)
	s.notify()
	return nil
}

// DeleteSession removes a dated occurrence.
func (s *Store) DeleteSession(ctx context.Context, classID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ClassID == classID && sess.Date == date {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Entity: "session", ID: classID + "/" + date}
	}

	snap := s.snapshotLocked()
	snap.Sessions = append(snap.Sessions[:idx], snap.Sessions[idx+1:]...)
	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	s.applyLocked(snap)
	s.notify()
	return nil
}

// SessionDates returns the scheduled dates for a class, newest first.
func (s *Store) SessionDates(classID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var dates []string
	for _, sess := range s.sessions {
		if sess.ClassID == classID {
			dates = append(dates, sess.Date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// GenerateSessions expands the class's weekly recurrence over [from, to],
// skipping dates already scheduled, and returns the dates it added.
func (s *Store) GenerateSessions(ctx context.Context, classID, from, to string) ([]string, error) {
	if !ValidDate(from) {
		return nil, &ValidationError{Field: "from", Message: "must be YYYY-MM-DD"}
	}
	if !ValidDate(to) {
		return nil, &ValidationError{Field: "to", Message: "must be YYYY-MM-DD"}
	}
	if from > to {
		return nil, &ValidationError{Field: "to", Message: "must not be earlier than from"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findClassLocked(classID)
	if idx < 0 {
		return nil, &NotFoundError{Entity: "class", ID: classID}
	}
	class := s.classes[idx]

	existing := make(map[string]bool)
	for _, sess := range s.sessions {
		if sess.ClassID == classID {
			existing[sess.Date] = true
		}
	}

	start, _ := time.Parse("2006-01-02", from)
	end, _ := time.Parse("2006-01-02", to)
	for int(start.Weekday()) != class.DayOfWeek {
		start = start.AddDate(0, 0, 1)
	}

	snap := s.snapshotLocked()
	now := s.now()
	var added []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 7) {
		date := d.Format("2006-01-02")
		if existing[date] {
			continue
		}
		snap.Sessions = append(snap.Sessions, Session{ClassID: classID, Date: date, CreatedAt: now})
		added = append(added, date)
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := s.persister.Save(ctx, snap); err != nil {
		return nil, err
	}
	s.applyLocked(snap)
	s.notify()
	return added, nil
}
