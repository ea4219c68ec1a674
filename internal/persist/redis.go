package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roster/internal/roster"
)

// Collection keys in Redis. One JSON value per collection.
const (
	keyStudents   = "roster:students"
	keyClasses    = "roster:classes"
	keyAttendance = "roster:attendance"
	keySessions   = "roster:sessions"
)

// RedisStore persists the snapshot as four JSON values.
type RedisStore struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &RedisStore{Client: client}
}

// Healthy verifies redis connectivity.
func (r *RedisStore) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Save writes all four collections in one MSET.
func (r *RedisStore) Save(ctx context.Context, snap roster.Snapshot) error {
	students, err := json.Marshal(snap.Students)
	if err != nil {
		return fmt.Errorf("encode students: %w", err)
	}
	classes, err := json.Marshal(snap.Classes)
	if err != nil {
		return fmt.Errorf("encode classes: %w", err)
	}
	attendance, err := json.Marshal(snap.Attendance)
	if err != nil {
		return fmt.Errorf("encode attendance: %w", err)
	}
	sessions, err := json.Marshal(snap.Sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return r.Client.MSet(ctx,
		keyStudents, students,
		keyClasses, classes,
		keyAttendance, attendance,
		keySessions, sessions,
	).Err()
}

// Load reads all four collections. ok is false when nothing was saved yet.
func (r *RedisStore) Load(ctx context.Context) (roster.Snapshot, bool, error) {
	vals, err := r.Client.MGet(ctx, keyStudents, keyClasses, keyAttendance, keySessions).Result()
	if err != nil {
		return roster.Snapshot{}, false, fmt.Errorf("mget snapshot: %w", err)
	}
	allNil := true
	for _, v := range vals {
		if v != nil {
			allNil = false
			break
		}
	}
	if allNil {
		return roster.Snapshot{}, false, nil
	}

	var snap roster.Snapshot
	decode := func(v interface{}, target interface{}, name string) error {
		if v == nil {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("unexpected %s value type %T", name, v)
		}
		if err := json.Unmarshal([]byte(s), target); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	}
	if err := decode(vals[0], &snap.Students, "students"); err != nil {
		return roster.Snapshot{}, false, err
	}
	if err := decode(vals[1], &snap.Classes, "classes"); err != nil {
		return roster.Snapshot{}, false, err
	}
	if err := decode(vals[2], &snap.Attendance, "attendance"); err != nil {
		return roster.Snapshot{}, false, err
	}
	if err := decode(vals[3], &snap.Sessions, "sessions"); err != nil {
		return roster.Snapshot{}, false, err
	}
	return snap, true, nil
}
