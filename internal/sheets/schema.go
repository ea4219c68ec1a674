// Package sheets implements the remote sync adapter: a JSON-over-HTTP client
// for the spreadsheet endpoint, an alias-tolerant row schema, and
// whole-snapshot push/pull with observable status.
package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"roster/internal/roster"
)

// Row is one remote table row keyed by column header. Values may arrive as
// strings or numbers depending on how the sheet cell was typed.
type Row map[string]any

// Canonical column names. Several historical deployments used other
// spellings (Chinese headers, camelCase variants); the alias tables below
// accept all of them on read, while writes always emit the canonical form.
var (
	studentAliases = map[string][]string{
		"id":                {"id", "ID"},
		"name":              {"name", "姓名"},
		"nickname":          {"nickname", "別名"},
		"class":             {"class", "className", "班別"},
		"phone":             {"phone", "電話", "聯絡電話"},
		"email":             {"email", "Email", "電子郵件"},
		"birthday":          {"birthday", "birthDate", "出生日期"},
		"emergency_contact": {"emergency_contact", "emergencyContact", "emergencyContactName", "緊急聯絡人"},
		"emergency_phone":   {"emergency_phone", "emergencyPhone", "emergencyContactPhone", "緊急聯絡電話"},
		"status":            {"status", "狀態"},
		"remarks":           {"remarks", "notes", "備註"},
		"createdAt":         {"createdAt", "創建日期", "建立日期"},
	}

	classAliases = map[string][]string{
		"id":          {"id", "ID"},
		"name":        {"name", "className", "班別", "班組名稱"},
		"startTime":   {"startTime", "start", "開始時間"},
		"endTime":     {"endTime", "end", "結束時間"},
		"dayOfWeek":   {"dayOfWeek", "day", "星期"},
		"description": {"description", "描述"},
	}

	attendanceAliases = map[string][]string{
		"date":        {"date", "日期"},
		"class":       {"class", "className", "班別"},
		"studentId":   {"studentId", "student_id", "學員ID"},
		"studentName": {"studentName", "name", "姓名"},
		"status":      {"status", "狀態"},
	}
)

// Remote status labels. English labels are canonical; the Chinese labels of
// older sheets are accepted on read.
var (
	studentStatusIn = map[string]string{
		"active": roster.StudentActive, "在讀": roster.StudentActive, "": roster.StudentActive,
		"inactive": roster.StudentInactive, "已離開": roster.StudentInactive, "停課": roster.StudentInactive,
	}
	attendanceStatusIn = map[string]string{
		"present": roster.StatusPresent, "出席": roster.StatusPresent,
		"absent": roster.StatusAbsent, "缺席": roster.StatusAbsent,
	}
)

// field resolves a logical field from a row through its ordered alias list.
func field(row Row, aliases map[string][]string, name string) string {
	for _, alias := range aliases[name] {
		if v, ok := row[alias]; ok {
			s := stringify(v)
			if s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// decodeClassRow maps one schedule-sheet row to a Class.
func decodeClassRow(row Row) (roster.Class, error) {
	day, err := strconv.Atoi(field(row, classAliases, "dayOfWeek"))
	if err != nil || day < 0 || day > 6 {
		return roster.Class{}, fmt.Errorf("row %q: bad dayOfWeek", field(row, classAliases, "name"))
	}
	c := roster.Class{
		ID:          field(row, classAliases, "id"),
		Name:        field(row, classAliases, "name"),
		StartTime:   field(row, classAliases, "startTime"),
		EndTime:     field(row, classAliases, "endTime"),
		DayOfWeek:   day,
		Description: field(row, classAliases, "description"),
	}
	if c.ID == "" || c.Name == "" {
		return roster.Class{}, fmt.Errorf("class row missing id or name")
	}
	return c, nil
}

// encodeClassRow emits a canonical schedule-sheet row.
func encodeClassRow(c roster.Class) Row {
	return Row{
		"id":          c.ID,
		"name":        c.Name,
		"startTime":   c.StartTime,
		"endTime":     c.EndTime,
		"dayOfWeek":   c.DayOfWeek,
		"description": c.Description,
	}
}

// decodeStudentRow maps one students-sheet row to a Student plus the class
// name it references (resolved to an id by the caller).
func decodeStudentRow(row Row) (roster.Student, string, error) {
	st := roster.Student{
		ID:                    field(row, studentAliases, "id"),
		Name:                  field(row, studentAliases, "name"),
		Nickname:              field(row, studentAliases, "nickname"),
		Phone:                 field(row, studentAliases, "phone"),
		Email:                 field(row, studentAliases, "email"),
		Birthday:              field(row, studentAliases, "birthday"),
		EmergencyContactName:  field(row, studentAliases, "emergency_contact"),
		EmergencyContactPhone: field(row, studentAliases, "emergency_phone"),
		Notes:                 field(row, studentAliases, "remarks"),
	}
	if st.ID == "" || st.Name == "" {
		return roster.Student{}, "", fmt.Errorf("student row missing id or name")
	}
	status, ok := studentStatusIn[field(row, studentAliases, "status")]
	if !ok {
		status = roster.StudentActive
	}
	st.Status = status
	if ts := field(row, studentAliases, "createdAt"); ts != "" {
		st.CreatedAt = parseTimestamp(ts)
	}
	st.UpdatedAt = st.CreatedAt
	return st, field(row, studentAliases, "class"), nil
}

// encodeStudentRow emits a canonical students-sheet row. className is the
// resolved class name for the student's classId (empty when dangling).
func encodeStudentRow(st roster.Student, className string) Row {
	return Row{
		"id":                st.ID,
		"name":              st.Name,
		"nickname":          st.Nickname,
		"class":             className,
		"phone":             st.Phone,
		"email":             st.Email,
		"birthday":          st.Birthday,
		"emergency_contact": st.EmergencyContactName,
		"emergency_phone":   st.EmergencyContactPhone,
		"status":            st.Status,
		"remarks":           st.Notes,
		"createdAt":         formatTimestamp(st.CreatedAt),
	}
}

// decodeAttendanceRow maps one attendance-sheet row to a record.
func decodeAttendanceRow(row Row) (roster.AttendanceRecord, string, error) {
	date := field(row, attendanceAliases, "date")
	studentID := field(row, attendanceAliases, "studentId")
	if !roster.ValidDate(date) || studentID == "" {
		return roster.AttendanceRecord{}, "", fmt.Errorf("attendance row missing date or studentId")
	}
	status, ok := attendanceStatusIn[field(row, attendanceAliases, "status")]
	if !ok {
		return roster.AttendanceRecord{}, "", fmt.Errorf("attendance row %s/%s: unknown status", date, studentID)
	}
	rec := roster.AttendanceRecord{
		StudentID: studentID,
		Date:      date,
		Status:    status,
	}
	return rec, field(row, attendanceAliases, "class"), nil
}

// encodeAttendanceRow emits a canonical attendance-sheet row.
func encodeAttendanceRow(rec roster.AttendanceRecord, className, studentName string) Row {
	return Row{
		"date":        rec.Date,
		"class":       className,
		"studentId":   rec.StudentID,
		"studentName": studentName,
		"status":      rec.Status,
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
