package roster

import (
	"fmt"
	"strings"
	"time"
)

// Student lifecycle status.
const (
	StudentActive   = "active"
	StudentInactive = "inactive"
)

// Attendance marks. StatusUnmarked is the defined sentinel for "no record"
// so callers never have to distinguish empty string from missing.
const (
	StatusPresent  = "present"
	StatusAbsent   = "absent"
	StatusUnmarked = "unmarked"
)

// Student is a roster member. Students reference their Class by id.
type Student struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Nickname              string    `json:"nickname,omitempty"`
	ClassID               string    `json:"classId"`
	Phone                 string    `json:"phone,omitempty"`
	Email                 string    `json:"email,omitempty"`
	Birthday              string    `json:"birthday,omitempty"`
	EmergencyContactName  string    `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string    `json:"emergencyContactPhone,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// Class is a weekly recurring class slot.
type Class struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StartTime   string    `json:"startTime"` // HH:MM, 24h
	EndTime     string    `json:"endTime"`   // HH:MM, 24h
	DayOfWeek   int       `json:"dayOfWeek"` // 0=Sunday .. 6=Saturday
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AttendanceRecord is one present/absent mark. At most one record exists per
// (studentId, date); rewrites replace the prior status.
type AttendanceRecord struct {
	StudentID string    `json:"studentId"`
	ClassID   string    `json:"classId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is a concrete dated occurrence of a class.
type Session struct {
	ClassID   string    `json:"classId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is a full copy of the four persisted collections. Consumers get
// snapshots, never references into the store.
type Snapshot struct {
	Students   []Student                   `json:"students"`
	Classes    []Class                     `json:"classes"`
	Attendance map[string]AttendanceRecord `json:"attendance"`
	Sessions   []Session                   `json:"sessions"`
}

// AttendanceKey builds the "date_studentId" map key the attendance
// collection uses.
func AttendanceKey(studentID, date string) string {
	return date + "_" + studentID
}

// SplitAttendanceKey is the inverse of AttendanceKey.
func SplitAttendanceKey(key string) (studentID, date string, ok bool) {
	i := strings.Index(key, "_")
	if i < 0 {
		return "", "", false
	}
	return key[i+1:], key[:i], true
}

// ValidDate reports whether s is a well-formed ISO calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// StudentInput carries caller-supplied fields for add/update operations.
// Empty strings in an update mean "leave unchanged" for the sensitive
// contact fields (see Store.UpdateStudent).
type StudentInput struct {
	Name                  string `json:"name"`
	Nickname              string `json:"nickname"`
	ClassID               string `json:"classId"`
	Phone                 string `json:"phone"`
	Email                 string `json:"email"`
	Birthday              string `json:"birthday"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
	Notes                 string `json:"notes"`
	Status                string `json:"status"`
}

// ClassInput carries caller-supplied fields for add/update operations.
type ClassInput struct {
	Name        string `json:"name"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	DayOfWeek   *int   `json:"dayOfWeek"`
	Description string `json:"description"`
}

func (in ClassInput) String() string {
	day := "-"
	if in.DayOfWeek != nil {
		day = fmt.Sprintf("%d", *in.DayOfWeek)
	}
	return fmt.Sprintf("%s %s-%s day=%s", in.Name, in.StartTime, in.EndTime, day)
}
