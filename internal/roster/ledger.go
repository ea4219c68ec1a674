package roster

import (
	"context"
	"fmt"
	"sort"
)

// DayStats is the attendance summary of one class on one date. Total counts
// current active students in the class; rate is 0 when total is 0.
type DayStats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Rate    int `json:"rate"`
}

// BatchResult tallies a best-effort batch of marks. Items apply
// independently; a failure does not roll back earlier items.
type BatchResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// BatchMark is one (student, status) pair in a batch.
type BatchMark struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
}

// CopyResult reports where CopyLastAttendance copied from and what happened.
type CopyResult struct {
	BatchResult
	SourceDate string `json:"sourceDate"`
	TargetDate string `json:"targetDate"`
}

// MarkAttendance records a present/absent mark for one student on one date.
// Calling it again for the same (student, date) replaces the prior status;
// no history is kept. The record's classId is denormalized from the
// student's current class at write time.
func (s *Store) MarkAttendance(ctx context.Context, studentID, date, status string) error {
	if status != StatusPresent && status != StatusAbsent {
		return &ValidationError{Field: "status", Message: "must be present or absent"}
	}
	if !ValidDate(date) {
		return &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findStudentLocked(studentID)
	if idx < 0 {
		return &NotFoundError{Entity: "student", ID: studentID}
	}

	snap := s.snapshotLocked()
	snap.Attendance[AttendanceKey(studentID, date)] = AttendanceRecord{
		StudentID: studentID,
		ClassID:   s.students[idx].ClassID,
		Date:      date,
		Status:    status,
		CreatedAt: s.now(),
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	s.applyLocked(snap)
	s.notify()
	return nil
}

// Attendance returns the mark for (student, date), or StatusUnmarked when no
// record exists.
func (s *Store) Attendance(studentID, date string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.attendance[AttendanceKey(studentID, date)]; ok {
		return rec.Status
	}
	return StatusUnmarked
}

// ListAttendance returns a copy of all attendance records sorted by date
// then student id.
func (s *Store) ListAttendance() []AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AttendanceRecord, 0, len(s.attendance))
	for _, rec := range s.attendance {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

// AttendanceStats summarizes one class on one date over its current active
// students.
func (s *Store) AttendanceStats(classID, date string) DayStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats DayStats
	for _, st := range s.students {
		if st.ClassID != classID || st.Status != StudentActive {
			continue
		}
		stats.Total++
		switch s.attendanceLocked(st.ID, date) {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		}
	}
	if stats.Total > 0 {
		stats.Rate = roundRate(stats.Present, stats.Total)
	}
	return stats
}

// MarkBatch applies marks for one date best-effort: each item stands alone
// and a failed item never rolls back the others. Not transactional.
func (s *Store) MarkBatch(ctx context.Context, date string, marks []BatchMark) BatchResult {
	var res BatchResult
	for _, m := range marks {
		if err := s.MarkAttendance(ctx, m.StudentID, date, m.Status); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("student %s: %v", m.StudentID, err))
			continue
		}
		res.Success++
	}
	return res
}

// CopyLastAttendance finds the most recent date strictly before targetDate
// with any record for the class and duplicates every mark from that date
// onto targetDate.
func (s *Store) CopyLastAttendance(ctx context.Context, classID, targetDate string) (CopyResult, error) {
	if !ValidDate(targetDate) {
		return CopyResult{}, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	s.mu.RLock()
	sourceDate := ""
	for _, rec := range s.attendance {
		if rec.ClassID != classID || rec.Date >= targetDate {
			continue
		}
		if rec.Date > sourceDate {
			sourceDate = rec.Date
		}
	}
	var marks []BatchMark
	for _, rec := range s.attendance {
		if rec.ClassID == classID && rec.Date == sourceDate {
			marks = append(marks, BatchMark{StudentID: rec.StudentID, Status: rec.Status})
		}
	}
	s.mu.RUnlock()

	if sourceDate == "" {
		return CopyResult{}, &NotFoundError{Entity: "attendance", ID: "nothing to copy before " + targetDate}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].StudentID < marks[j].StudentID })

	res := CopyResult{
		BatchResult: s.MarkBatch(ctx, targetDate, marks),
		SourceDate:  sourceDate,
		TargetDate:  targetDate,
	}
	return res, nil
}

// DeleteAttendanceRange removes every record with from <= date <= to and
// returns how many were deleted.
func (s *Store) DeleteAttendanceRange(ctx context.Context, from, to string) (int, error) {
	if !ValidDate(from) || !ValidDate(to) {
		return 0, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	deleted := 0
	for key, rec := range snap.Attendance {
		if rec.Date >= from && rec.Date <= to {
			delete(snap.Attendance, key)
			deleted++
		}
	}
	if deleted == 0 {
		return 0, nil
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		return 0, err
	}
	s.applyLocked(snap)
	s.notify()
	return deleted, nil
}

func (s *Store) attendanceLocked(studentID, date string) string {
	if rec, ok := s.attendance[AttendanceKey(studentID, date)]; ok {
		return rec.Status
	}
	return StatusUnmarked
}

// roundRate is round(present/total*100) without floating point surprises.
func roundRate(present, total int) int {
	if total == 0 {
		return 0
	}
	return (present*100 + total/2) / total
}
