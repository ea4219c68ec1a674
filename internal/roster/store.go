package roster

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Persister saves and loads full snapshots of the four collections.
// Implementations live in internal/persist.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
}

// Store is the authoritative owner of students, classes, sessions and
// attendance records. Every mutation validates fully, persists the whole
// snapshot synchronously, and only then becomes visible. Reads hand out
// copies, never references into the store.
type Store struct {
	mu         sync.RWMutex
	students   []Student
	classes    []Class
	attendance map[string]AttendanceRecord
	sessions   []Session

	persister Persister
	onMutate  func()

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty store backed by the given persister.
func NewStore(p Persister) *Store {
	return &Store{
		attendance: make(map[string]AttendanceRecord),
		persister:  p,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Load replaces in-memory state with the persisted snapshot, if one exists.
func (s *Store) Load(ctx context.Context) error {
	snap, ok, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(snap)
	return nil
}

// OnMutate registers a hook invoked after every committed mutation, outside
// the store lock. Used to enqueue fire-and-forget remote pushes.
func (s *Store) OnMutate(fn func()) {
	s.mu.Lock()
	s.onMutate = fn
	s.mu.Unlock()
}

// Export returns a deep copy of all four collections.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Import replaces all four collections wholesale and persists. Used by the
// remote pull path and by backup restore.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Attendance == nil {
		snap.Attendance = make(map[string]AttendanceRecord)
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	s.applyLocked(snap)
	s.notify()
	return nil
}

// ── Students ────────────────────────────────────────────────────────────────

// AddStudent validates, assigns an id and timestamps, appends and persists.
func (s *Store) AddStudent(ctx context.Context, in StudentInput) (Student, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Student{}, &ValidationError{Field: "name", Message: "required"}
	}
	if in.ClassID == "" {
		return Student{}, &ValidationError{Field: "classId", Message: "required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findClassLocked(in.ClassID) < 0 {
		return Student{}, &NotFoundError{Entity: "class", ID: in.ClassID}
	}
	for _, st := range s.students {
		if st.Status == StudentActive && st.Name == name && st.ClassID == in.ClassID {
			return Student{}, &ConflictError{Rule: "duplicate-student", Message: "an active student with this name already exists in the class"}
		}
	}

	now := s.now()
	status := in.Status
	if status == "" {
		status = StudentActive
	}
	if status != StudentActive && status != StudentInactive {
		return Student{}, &ValidationError{Field: "status", Message: "must be active or inactive"}
	}
	student := Student{
		ID:                    s.newID(),
		Name:                  name,
		Nickname:              strings.TrimSpace(in.Nickname),
		ClassID:               in.ClassID,
		Phone:                 strings.TrimSpace(in.Phone),
		Email:                 strings.TrimSpace(in.Email),
		Birthday:              strings.TrimSpace(in.Birthday),
		EmergencyContactName:  strings.TrimSpace(in.EmergencyContactName),
		EmergencyContactPhone: strings.TrimSpace(in.EmergencyContactPhone),
		Notes:                 in.Notes,
		Status:                status,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	snap := s.snapshotLocked()
	snap.Students = append(snap.Students, student)
	if err := s.persister.Save(ctx, snap); err != nil {
		return Student{}, err
	}
	s.applyLocked(snap)
	s.notify()
	return student, nil
}

// UpdateStudent merges a partial patch. Empty strings leave fields unchanged;
// for the sensitive contact fields (phone, email, emergency contact) this is
// a deliberate policy: a blank edit never erases a previously-set value.
func (s *Store) UpdateStudent(ctx context.Context, id string, patch StudentInput) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findStudentLocked(id)
	if idx < 0 {
		return Student{}, &NotFoundError{Entity: "student", ID: id}
	}
	updated := s.students[idx]

	if patch.Name != "" {
		name := strings.TrimSpace(patch.Name)
		if name == "" {
			return Student{}, &ValidationError{Field: "name", Message: "cannot be blank"}
		}
		updated.Name = name
	}
	if patch.ClassID != "" {
		if s.findClassLocked(patch.ClassID) < 0 {
			return Student{}, &NotFoundError{Entity: "class", ID: patch.ClassID}
		}
		updated.ClassID = patch.ClassID
	}
	if patch.Status != "" {
		if patch.Status != StudentActive && patch.Status != StudentInactive {
			return Student{}, &ValidationError{Field: "status", Message: "must be active or inactive"}
		}
		updated.Status = patch.Status
	}
	if patch.Nickname != "" {
		updated.Nickname = strings.TrimSpace(patch.Nickname)
	}
	if patch.Birthday != "" {
		updated.Birthday = strings.TrimSpace(patch.Birthday)
	}
	if patch.Notes != "" {
		updated.Notes = patch.Notes
	}
	// Blank-does-not-erase fields.
	if v := strings.TrimSpace(patch.Phone); v != "" {
		updated.Phone = v
	}
	if v := strings.TrimSpace(patch.Email); v != "" {
		updated.Email = v
	}
	if v := strings.TrimSpace(patch.EmergencyContactName); v != "" {
		updated.EmergencyContactName = v
	}
	if v := strings.TrimSpace(patch.EmergencyContactPhone); v != "" {
		updated.EmergencyContactPhone = v
	}

	if updated.Status == StudentActive {
		for _, st := range s.students {
			if st.ID != id && st.Status == StudentActive && st.Name == updated.Name && st.ClassID == updated.ClassID {
				return Student{}, &ConflictError{Rule: "duplicate-student", Message: "an active student with this name already exists in the class"}
			}
		}
	}

	updated.UpdatedAt = s.now()

	snap := s.snapshotLocked()
	snap.Students[idx] = updated
	if err := s.persister.Save(ctx, snap); err != nil {
		return Student{}, err
	}
	s.applyLocked(snap)
	s.notify()
	return updated, nil
}

// GetStudent returns a copy of the student with the given id.
func (s *Store) GetStudent(id string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.findStudentLocked(id)
	if idx < 0 {
		return Student{}, &NotFoundError{Entity: "student", ID: id}
	}
	return s.students[idx], nil
}

// ListStudents returns students filtered by class and status. Empty classID
// means all classes; empty status means all statuses. Order is insertion
// order, which callers rely on for deterministic ranking tie-breaks.
func (s *Store) ListStudents(classID, status string) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, 0, len(s.students))
	for _, st := range s.students {
		if classID != "" && st.ClassID != classID {
			continue
		}
		if status != "" && st.Status != status {
			continue
		}
		out = append(out, st)
	}
	return out
}

// DeletePlan summarizes the impact of a pending hard delete. The caller is
// expected to obtain user consent before invoking the matching Confirm
// operation; the store itself never blocks on interaction.
type DeletePlan struct {
	Entity            string `json:"entity"`
	ID                string `json:"id"`
	Students          int    `json:"students"`
	AttendanceRecords int    `json:"attendanceRecords"`
	Sessions          int    `json:"sessions"`
}

// PlanDeleteStudent reports how many attendance records a hard delete of the
// student would cascade to.
func (s *Store) PlanDeleteStudent(id string) (DeletePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.findStudentLocked(id) < 0 {
		return DeletePlan{}, &NotFoundError{Entity: "student", ID: id}
	}
	plan := DeletePlan{Entity: "student", ID: id}
	for _, rec := range s.attendance {
		if rec.StudentID == id {
			plan.AttendanceRecords++
		}
	}
	return plan, nil
}

// ConfirmDeleteStudent removes the student and cascades to all attendance
// records keyed to it. Irreversible.
func (s *Store) ConfirmDeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findStudentLocked(id)
	if idx < 0 {
		return &NotFoundError{Entity: "student", ID: id}
	}

	snap := s.snapshotLocked()
	snap.Students = append(snap.Students[:idx], snap.Students[idx+1:]...)
	for key, rec := range snap.Attendance {
		if rec.StudentID == id {
			delete(snap.Attendance, key)
		}
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	s.applyLocked(snap)
	s.notify()
	return nil
}

// ── Classes ─────────────────────────────────────────────────────────────────

// AddClass validates time format, ordering, name uniqueness and schedule
// overlap, then appends and persists.
func (s *Store) AddClass(ctx context.Context, in ClassInput) (Class, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Class{}, &ValidationError{Field: "name", Message: "required"}
	}
	if !ValidTime(in.StartTime) {
		return Class{}, &ValidationError{Field: "startTime", Message: "must be HH:MM (24h)"}
	}
	if !ValidTime(in.EndTime) {
		return Class{}, &ValidationError{Field: "endTime", Message: "must be HH:MM (24h)"}
	}
	if in.StartTime >= in.EndTime {
		return Class{}, &ValidationError{Field: "endTime", Message: "must be later than startTime"}
	}
	if in.DayOfWeek == nil {
		return Class{}, &ValidationError{Field: "dayOfWeek", Message: "required"}
	}
	day := *in.DayOfWeek
	if day < 0 || day > 6 {
		return Class{}, &ValidationError{Field: "dayOfWeek", Message: "must be 0-6 (Sunday=0)"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.classes {
		if c.Name == name {
			return Class{}, &ConflictError{Rule: "duplicate-class-name", Message: "a class with this name already exists"}
		}
	}
	if Overlaps(s.classes, day, in.StartTime, in.EndTime, "") {
		return Class{}, &ConflictError{Rule: "schedule-overlap", Message: "time window overlaps another class on the same day"}
	}

	now := s.now()
	class := Class{
		ID:          s.newID(),
		Name:        name,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		DayOfWeek:   day,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	snap := s.snapshotLocked()
	snap.Classes = append(snap.Classes, class)
	if err := s.persister.Save(ctx, snap); err != nil {
		return Class{}, err
	}
	s.applyLocked(snap)
	s.notify()
	return class, nil
}

// UpdateClass merges a partial patch under the same rules as AddClass.
func (s *Store) UpdateClass(ctx context.Context, id string, patch ClassInput) (Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findClassLocked(id)
	if idx < 0 {
		return Class{}, &NotFoundError{Entity: "class", ID: id}
	}
	updated := s.classes[idx]

	if patch.Name != "" {
		name := strings.TrimSpace(patch.Name)
		if name == "" {
			return Class{}, &ValidationError{Field: "name", Message: "cannot be blank"}
		}
		updated.Name = name
	}
	if patch.StartTime != "" {
		if !ValidTime(patch.StartTime) {
			return Class{}, &ValidationError{Field: "startTime", Message: "must be HH:MM (24h)"}
		}
		updated.StartTime = patch.StartTime
	}
	if patch.EndTime != "" {
		if !ValidTime(patch.EndTime) {
			return Class{}, &ValidationError{Field: "endTime", Message: "must be HH:MM (24h)"}
		}
		updated.EndTime = patch.EndTime
	}
	if patch.DayOfWeek != nil {
		if *patch.DayOfWeek < 0 || *patch.DayOfWeek > 6 {
			return Class{}, &ValidationError{Field: "dayOfWeek", Message: "must be 0-6 (Sunday=0)"}
		}
		updated.DayOfWeek = *patch.DayOfWeek
	}
	if patch.Description != "" {
		updated.Description = patch.Description
	}

	if updated.StartTime >= updated.EndTime {
		return Class{}, &ValidationError{Field: "endTime", Message: "must be later than startTime"}
	}
	for _, c := range s.classes {
		if c.ID != id && c.Name == updated.Name {
			return Class{}, &ConflictError{Rule: "duplicate-class-name", Message: "a class with this name already exists"}
		}
	}
	if Overlaps(s.classes, updated.DayOfWeek, updated.StartTime, updated.EndTime, id) {
		return Class{}, &ConflictError{Rule: "schedule-overlap", Message: "time window overlaps another class on the same day"}
	}

	updated.UpdatedAt = s.now()

	snap := s.snapshotLocked()
	snap.Classes[idx] = updated
	if err := s.persister.Save(ctx, snap); err != nil {
		return Class{}, err
	}
	s.applyLocked(snap)
	s.notify()
	return updated, nil
}

// GetClass returns a copy of the class with the given id.
func (s *Store) GetClass(id string) (Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.findClassLocked(id)
	if idx < 0 {
		return Class{}, &NotFoundError{Entity: "class", ID: id}
	}
	return s.classes[idx], nil
}

// GetClassByName resolves a class by its unique name.
func (s *Store) GetClassByName(name string) (Class, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.classes {
		if c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

// ListClasses returns all classes sorted by day of week then start time.
func (s *Store) ListClasses() []Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Class, len(s.classes))
	copy(out, s.classes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// PlanDeleteClass reports how many students, attendance records and sessions
// a hard delete of the class would affect.
func (s *Store) PlanDeleteClass(id string) (DeletePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.findClassLocked(id) < 0 {
		return DeletePlan{}, &NotFoundError{Entity: "class", ID: id}
	}
	plan := DeletePlan{Entity: "class", ID: id}
	members := make(map[string]bool)
	for _, st := range s.students {
		if st.ClassID == id {
			plan.Students++
			members[st.ID] = true
		}
	}
	for _, rec := range s.attendance {
		if rec.ClassID == id || members[rec.StudentID] {
			plan.AttendanceRecords++
		}
	}
	for _, sess := range s.sessions {
		if sess.ClassID == id {
			plan.Sessions++
		}
	}
	return plan, nil
}

// ConfirmDeleteClass removes the class, its sessions, and all attendance
// records of its students. Students keep their (now dangling) classId;
// callers that want a reassignment must update them first. Irreversible.
func (s *Store) ConfirmDeleteClass(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findClassLocked(id)
	if idx < 0 {
		return &NotFoundError{Entity: "class", ID: id}
	}

	members := make(map[string]bool)
	for _, st := range s.students {
		if st.ClassID == id {
			members[st.ID] = true
		}
	}

	snap := s.snapshotLocked()
	snap.Classes = append(snap.Classes[:idx], snap.Classes[idx+1:]...)
	for key, rec := range snap.Attendance {
		if rec.ClassID == id || members[rec.StudentID] {
			delete(snap.Attendance, key)
		}
	}
	kept := snap.Sessions[:0]
	for _, sess := range snap.Sessions {
		if sess.ClassID != id {
			kept = append(kept, sess)
		}
	}
	snap.Sessions = kept

	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	s.applyLocked(snap)
	s.notify()
	return nil
}

// ── internals ───────────────────────────────────────────────────────────────

func (s *Store) findStudentLocked(id string) int {
	for i, st := range s.students {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findClassLocked(id string) int {
	for i, c := range s.classes {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked deep-copies current state. Mutations operate on the copy
// and swap it in only after a successful persist, so a failed save leaves
// the store at its last valid state.
func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Students:   make([]Student, len(s.students)),
		Classes:    make([]Class, len(s.classes)),
		Attendance: make(map[string]AttendanceRecord, len(s.attendance)),
		Sessions:   make([]Session, len(s.sessions)),
	}
	copy(snap.Students, s.students)
	copy(snap.Classes, s.classes)
	copy(snap.Sessions, s.sessions)
	for k, v := range s.attendance {
		snap.Attendance[k] = v
	}
	return snap
}

func (s *Store) applyLocked(snap Snapshot) {
	s.students = snap.Students
	s.classes = snap.Classes
	s.sessions = snap.Sessions
	if snap.Attendance != nil {
		s.attendance = snap.Attendance
	} else {
		s.attendance = make(map[string]AttendanceRecord)
	}
}

func (s *Store) notify() {
	if s.onMutate != nil {
		fn := s.onMutate
		go fn()
	}
}
