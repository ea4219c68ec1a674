package sheets

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roster/internal/queue"
	"roster/internal/roster"
)

// SyncState is the observable state of one push or pull.
type SyncState string

const (
	StatePending SyncState = "pending"
	StateSuccess SyncState = "success"
	StateFailed  SyncState = "failed"
)

// SyncEvent is delivered to subscribers on every state transition, so hosts
// can surface sync status instead of losing failures to a log line.
type SyncEvent struct {
	Op    string // "push" or "pull"
	State SyncState
	Err   error
	At    time.Time
}

// Adapter transfers whole snapshots between the local store and the remote
// sheet. Push replaces the remote contents wholesale; Pull replaces the
// local collections wholesale. There is no merge and no conflict detection:
// whichever direction ran last wins entirely. That is a documented property
// of the system, not an oversight.
type Adapter struct {
	client *Client
	store  *roster.Store
	log    zerolog.Logger

	// refresh, when set, runs before each push so a worker process reading
	// from shared storage pushes current state, not its startup snapshot.
	refresh func(context.Context) error

	mu        sync.Mutex
	listeners []func(SyncEvent)
}

// NewAdapter wires a client to a store.
func NewAdapter(client *Client, store *roster.Store, log zerolog.Logger) *Adapter {
	return &Adapter{client: client, store: store, log: log}
}

// OnBeforePush sets a hook run at the start of every push, before the
// snapshot is taken.
func (a *Adapter) OnBeforePush(fn func(context.Context) error) {
	a.refresh = fn
}

// Subscribe registers a listener for sync state transitions. Listeners are
// called synchronously in registration order.
func (a *Adapter) Subscribe(fn func(SyncEvent)) {
	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()
}

// Push serializes the current snapshot and replaces the remote tables
// (clear-then-write). The snapshot is taken once at call time; local
// mutations racing a push at worst leave the remote copy one step behind,
// never corrupt it. On failure local state is untouched and no retry is
// attempted.
func (a *Adapter) Push(ctx context.Context) error {
	a.emit(SyncEvent{Op: "push", State: StatePending, At: time.Now()})
	start := time.Now()

	if a.refresh != nil {
		if err := a.refresh(ctx); err != nil {
			serr := &roster.SyncError{Op: "push", Err: err}
			a.emit(SyncEvent{Op: "push", State: StateFailed, Err: serr, At: time.Now()})
			return serr
		}
	}

	snap := a.store.Export()
	classNames := make(map[string]string, len(snap.Classes))
	classRows := make([]Row, 0, len(snap.Classes))
	for _, c := range snap.Classes {
		classNames[c.ID] = c.Name
		classRows = append(classRows, encodeClassRow(c))
	}
	studentNames := make(map[string]string, len(snap.Students))
	studentRows := make([]Row, 0, len(snap.Students))
	for _, st := range snap.Students {
		studentNames[st.ID] = st.Name
		studentRows = append(studentRows, encodeStudentRow(st, classNames[st.ClassID]))
	}
	attendanceRows := make([]Row, 0, len(snap.Attendance))
	for _, rec := range toSortedRecords(snap.Attendance) {
		attendanceRows = append(attendanceRows, encodeAttendanceRow(rec, classNames[rec.ClassID], studentNames[rec.StudentID]))
	}

	err := a.pushAll(ctx, classRows, studentRows, attendanceRows)
	observe("push", start, err)
	if err != nil {
		serr := &roster.SyncError{Op: "push", Err: err}
		a.log.Warn().Err(err).Msg("push failed; local state unaffected")
		a.emit(SyncEvent{Op: "push", State: StateFailed, Err: serr, At: time.Now()})
		return serr
	}

	a.log.Info().
		Int("students", len(studentRows)).
		Int("classes", len(classRows)).
		Int("attendance", len(attendanceRows)).
		Msg("pushed snapshot")
	a.emit(SyncEvent{Op: "push", State: StateSuccess, At: time.Now()})
	return nil
}

func (a *Adapter) pushAll(ctx context.Context, classRows, studentRows, attendanceRows []Row) error {
	if err := a.client.SyncSchedule(ctx, classRows); err != nil {
		return err
	}
	if err := a.client.SyncStudents(ctx, studentRows); err != nil {
		return err
	}
	return a.client.SyncAttendance(ctx, attendanceRows)
}

// Pull reads the entire remote contents and overwrites the local student,
// class and attendance collections wholesale. Locally scheduled session
// dates are not part of the remote contract and are preserved.
func (a *Adapter) Pull(ctx context.Context) error {
	a.emit(SyncEvent{Op: "pull", State: StatePending, At: time.Now()})
	start := time.Now()

	snap, err := a.fetchAll(ctx)
	observe("pull", start, err)
	if err != nil {
		serr := &roster.SyncError{Op: "pull", Err: err}
		a.log.Warn().Err(err).Msg("pull failed; local state unaffected")
		a.emit(SyncEvent{Op: "pull", State: StateFailed, Err: serr, At: time.Now()})
		return serr
	}

	snap.Sessions = a.store.Export().Sessions
	if err := a.store.Import(ctx, snap); err != nil {
		serr := &roster.SyncError{Op: "pull", Err: err}
		a.emit(SyncEvent{Op: "pull", State: StateFailed, Err: serr, At: time.Now()})
		return serr
	}

	a.log.Info().
		Int("students", len(snap.Students)).
		Int("classes", len(snap.Classes)).
		Int("attendance", len(snap.Attendance)).
		Msg("pulled snapshot")
	a.emit(SyncEvent{Op: "pull", State: StateSuccess, At: time.Now()})
	return nil
}

func (a *Adapter) fetchAll(ctx context.Context) (roster.Snapshot, error) {
	snap := roster.Snapshot{Attendance: make(map[string]roster.AttendanceRecord)}

	scheduleRows, err := a.client.GetSchedule(ctx)
	if err != nil {
		return roster.Snapshot{}, err
	}
	classIDs := make(map[string]string) // name -> id
	for _, row := range scheduleRows {
		c, err := decodeClassRow(row)
		if err != nil {
			a.log.Warn().Err(err).Msg("skipping bad class row")
			continue
		}
		snap.Classes = append(snap.Classes, c)
		classIDs[c.Name] = c.ID
	}

	studentRows, err := a.client.GetStudents(ctx)
	if err != nil {
		return roster.Snapshot{}, err
	}
	for _, row := range studentRows {
		st, className, err := decodeStudentRow(row)
		if err != nil {
			a.log.Warn().Err(err).Msg("skipping bad student row")
			continue
		}
		// Older sheets stored the class id in the class column.
		if id, ok := classIDs[className]; ok {
			st.ClassID = id
		} else {
			st.ClassID = className
		}
		snap.Students = append(snap.Students, st)
	}

	attendanceRows, err := a.client.GetAttendance(ctx, "", "")
	if err != nil {
		return roster.Snapshot{}, err
	}
	studentClasses := make(map[string]string, len(snap.Students))
	for _, st := range snap.Students {
		studentClasses[st.ID] = st.ClassID
	}
	for _, row := range attendanceRows {
		rec, className, err := decodeAttendanceRow(row)
		if err != nil {
			a.log.Warn().Err(err).Msg("skipping bad attendance row")
			continue
		}
		if id, ok := classIDs[className]; ok {
			rec.ClassID = id
		} else if id, ok := studentClasses[rec.StudentID]; ok {
			rec.ClassID = id
		}
		snap.Attendance[roster.AttendanceKey(rec.StudentID, rec.Date)] = rec
	}
	return snap, nil
}

// AppendStudent pushes a single new student row without clearing the remote
// table, mirroring the incremental add path of the original deployment.
func (a *Adapter) AppendStudent(ctx context.Context, st roster.Student) error {
	className := ""
	if c, err := a.store.GetClass(st.ClassID); err == nil {
		className = c.Name
	}
	if err := a.client.AppendStudent(ctx, encodeStudentRow(st, className)); err != nil {
		return &roster.SyncError{Op: "appendStudent", Err: err}
	}
	return nil
}

// Run consumes sync jobs until ctx is done. Push jobs are coalesced: after
// the first one arrives the loop waits out the debounce window, drains
// everything queued meanwhile, and performs a single push. Pull jobs run
// immediately.
func (a *Adapter) Run(ctx context.Context, jobs <-chan queue.Job, debounce time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if job.Op == queue.OpPull {
				if err := a.Pull(ctx); err != nil {
					a.log.Warn().Err(err).Msg("pull failed")
				}
				continue
			}
			if debounce > 0 {
				timer := time.NewTimer(debounce)
			drain:
				for {
					select {
					case <-ctx.Done():
						timer.Stop()
						return
					case <-jobs:
					case <-timer.C:
						break drain
					}
				}
			}
			if err := a.Push(ctx); err != nil {
				a.log.Warn().Err(err).Msg("push failed")
			}
		}
	}
}

func (a *Adapter) emit(evt SyncEvent) {
	a.mu.Lock()
	listeners := make([]func(SyncEvent), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(evt)
	}
}

func toSortedRecords(attendance map[string]roster.AttendanceRecord) []roster.AttendanceRecord {
	out := make([]roster.AttendanceRecord, 0, len(attendance))
	for _, rec := range attendance {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}
