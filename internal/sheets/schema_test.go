package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/roster"
)

func TestDecodeStudentRowCanonical(t *testing.T) {
	st, className, err := decodeStudentRow(Row{
		"id":                "s1",
		"name":              "Amy",
		"nickname":          "A",
		"class":             "Youth",
		"phone":             "555-0101",
		"email":             "amy@example.com",
		"birthday":          "2010-04-01",
		"emergency_contact": "May",
		"emergency_phone":   "555-0102",
		"status":            "active",
		"remarks":           "new",
		"createdAt":         "2024-01-01T12:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Youth", className)
	assert.Equal(t, "s1", st.ID)
	assert.Equal(t, "Amy", st.Name)
	assert.Equal(t, "May", st.EmergencyContactName)
	assert.Equal(t, roster.StudentActive, st.Status)
	assert.Equal(t, 2024, st.CreatedAt.Year())
}

func TestDecodeStudentRowChineseHeaders(t *testing.T) {
	st, className, err := decodeStudentRow(Row{
		"id":     "s1",
		"姓名":     "小明",
		"班別":     "兒童班",
		"電話":     "555-0101",
		"緊急聯絡人":  "媽媽",
		"緊急聯絡電話": "555-0102",
		"狀態":     "在讀",
		"備註":     "備註文字",
	})
	require.NoError(t, err)
	assert.Equal(t, "兒童班", className)
	assert.Equal(t, "小明", st.Name)
	assert.Equal(t, "媽媽", st.EmergencyContactName)
	assert.Equal(t, "555-0102", st.EmergencyContactPhone)
	assert.Equal(t, roster.StudentActive, st.Status)
	assert.Equal(t, "備註文字", st.Notes)
}

func TestDecodeStudentRowDefaultsAndErrors(t *testing.T) {
	// Unknown status falls back to active.
	st, _, err := decodeStudentRow(Row{"id": "s1", "name": "Amy", "status": "???"})
	require.NoError(t, err)
	assert.Equal(t, roster.StudentActive, st.Status)

	st, _, err = decodeStudentRow(Row{"id": "s1", "name": "Amy", "狀態": "已離開"})
	require.NoError(t, err)
	assert.Equal(t, roster.StudentInactive, st.Status)

	_, _, err = decodeStudentRow(Row{"name": "Amy"})
	assert.Error(t, err)
	_, _, err = decodeStudentRow(Row{"id": "s1"})
	assert.Error(t, err)
}

func TestDecodeClassRow(t *testing.T) {
	c, err := decodeClassRow(Row{
		"id": "c1", "班別": "Youth", "開始時間": "16:00", "結束時間": "17:30",
		// Sheet cells often arrive as numbers.
		"dayOfWeek": float64(6),
	})
	require.NoError(t, err)
	assert.Equal(t, roster.Class{ID: "c1", Name: "Youth", StartTime: "16:00", EndTime: "17:30", DayOfWeek: 6}, c)

	_, err = decodeClassRow(Row{"id": "c1", "name": "Youth", "dayOfWeek": "7"})
	assert.Error(t, err)
	_, err = decodeClassRow(Row{"name": "Youth", "dayOfWeek": "6"})
	assert.Error(t, err)
}

func TestDecodeAttendanceRow(t *testing.T) {
	rec, className, err := decodeAttendanceRow(Row{
		"日期": "2024-01-06", "班別": "Youth", "studentId": "s1", "狀態": "出席",
	})
	require.NoError(t, err)
	assert.Equal(t, "Youth", className)
	assert.Equal(t, roster.StatusPresent, rec.Status)
	assert.Equal(t, "2024-01-06", rec.Date)

	rec, _, err = decodeAttendanceRow(Row{"date": "2024-01-06", "studentId": "s1", "status": "absent"})
	require.NoError(t, err)
	assert.Equal(t, roster.StatusAbsent, rec.Status)

	_, _, err = decodeAttendanceRow(Row{"date": "2024-01-06", "studentId": "s1", "status": "maybe"})
	assert.Error(t, err)
	_, _, err = decodeAttendanceRow(Row{"date": "Jan 6", "studentId": "s1", "status": "present"})
	assert.Error(t, err)
}

func TestEncodeDecodeStudentRow(t *testing.T) {
	st := roster.Student{
		ID: "s1", Name: "Amy", ClassID: "c1", Phone: "555-0101",
		Status: roster.StudentActive,
	}
	row := encodeStudentRow(st, "Youth")
	got, className, err := decodeStudentRow(row)
	require.NoError(t, err)
	assert.Equal(t, "Youth", className)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, st.Name, got.Name)
	assert.Equal(t, st.Phone, got.Phone)
	assert.Equal(t, st.Status, got.Status)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "6", stringify(float64(6)))
	assert.Equal(t, "6.5", stringify(6.5))
	assert.Equal(t, "x", stringify(" x "))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "", stringify(nil))
}
