// Package memory is the in-process storage driver. It backs the service in
// tests and in STORAGE_DRIVER=memory deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/google/uuid"
)

type DB struct {
	mu          sync.RWMutex
	shifts      map[string]shift.Shift
	assignments map[string]storedAssignment
	defaults    map[string]string // companyID -> default shift id
	employees   map[string]employee.Employee
	seq         int64

	locks *keyedMutex
}

// storedAssignment keeps insertion order so rows created within the same
// clock tick still sort deterministically.
type storedAssignment struct {
	shift.Assignment
	seq int64
}

func NewDB() *DB {
	return &DB{
		shifts:      make(map[string]shift.Shift),
		assignments: make(map[string]storedAssignment),
		defaults:    make(map[string]string),
		employees:   make(map[string]employee.Employee),
		locks:       newKeyedMutex(),
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// decorate fills the display fields a SQL join would provide. Caller holds
// at least the read lock.
func (db *DB) decorate(a shift.Assignment) shift.Assignment {
	if s, ok := db.shifts[a.ShiftID]; ok {
		a.ShiftCode = s.Code
		a.ShiftName = s.Name
	}
	if e, ok := db.employees[a.EmployeeID]; ok {
		a.EmployeeName = e.FullName
		a.EmployeeCode = e.EmployeeCode
		a.DepartmentID = e.DepartmentID
	}
	return a
}

// sortHistory orders newest effective_from first, then newest created.
func sortHistory(rows []storedAssignment) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
			return a.EffectiveFrom.After(b.EffectiveFrom)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.seq > b.seq
	})
}

// journal records the prior value of every assignment row written through a
// unit of work's context. A nil entry marks a row the unit created.
type journal struct {
	prior map[string]*storedAssignment
}

type journalKey struct{}

func withJournal(ctx context.Context, j *journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// track notes id before a write made with ctx. Only the first write of a row
// is kept. Caller holds the write lock.
func (db *DB) track(ctx context.Context, id string) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	if _, seen := j.prior[id]; seen {
		return
	}
	if a, exists := db.assignments[id]; exists {
		j.prior[id] = &a
		return
	}
	j.prior[id] = nil
}

func (db *DB) unwrap(rows []storedAssignment) []shift.Assignment {
	out := make([]shift.Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, db.decorate(r.Assignment))
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}

// keyedMutex hands out one context-aware lock per key and forgets keys
// nobody is waiting on.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
