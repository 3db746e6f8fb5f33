package service

import (
	"context"
	"fmt"
	appointmentserrors "salonbook/internal/appointments/errors"
	professionalserrors "salonbook/internal/professionals/errors"
	salonserrors "salonbook/internal/salons/errors"
	mongotx "salonbook/pkg/db/mongo"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/kafka"
	"salonbook/pkg/model"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memAppointments is an in-memory AppointmentRepository. It does not
// enforce the partial unique index unless uniqueStart is set.
type memAppointments struct {
	mu           sync.Mutex
	items        map[string]*model.Appointment
	uniqueStart  bool
	transactions int

	findErr error
	// beforeCreate and onFindBlocking run once, outside the lock, on the
	// next call.
	beforeCreate       func()
	onFindBlocking     func()
	beforeUpdateStatus func()
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: map[string]*model.Appointment{}}
}

func (m *memAppointments) Create(ctx context.Context, a *model.Appointment) error {
	if hook := m.take(&m.beforeCreate); hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uniqueStart {
		for _, other := range m.items {
			if other.ProfessionalID == a.ProfessionalID && other.StartTime.Equal(a.StartTime) && other.Status.Blocks() {
				return fmt.Errorf("%w: %s", appointmentserrors.ErrSlotTaken, a.StartTime)
			}
		}
	}
	a.ID = primitive.NewObjectID().Hex()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAppointments) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.items[id]
	if !ok {
		return nil, appointmentserrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) FindBlocking(ctx context.Context, professionalID string, from, to time.Time) ([]*model.Appointment, error) {
	if hook := m.take(&m.onFindBlocking); hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []*model.Appointment{}
	for _, a := range m.items {
		if a.ProfessionalID == professionalID && a.Status.Blocks() && a.Overlaps(from, to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memAppointments) take(slot *func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook := *slot
	*slot = nil
	return hook
}

// insert stores a as is, bypassing hooks and the unique check.
func (m *memAppointments) insert(a *model.Appointment) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID().Hex()
	cp := *a
	m.items[a.ID] = &cp
	return a.ID
}

func (m *memAppointments) Search(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*model.Appointment{}
	for _, a := range m.items {
		if filter.SalonID != "" && a.SalonID != filter.SalonID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAppointments) Count(ctx context.Context, filter model.AppointmentFilter) (int64, error) {
	found, _ := m.Search(ctx, filter, 0, 0)
	return int64(len(found)), nil
}

func (m *memAppointments) UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus, at time.Time) error {
	if m.beforeUpdateStatus != nil {
		m.beforeUpdateStatus()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.items[id]
	if !ok || a.Status != from {
		return appointmentserrors.ErrStatusChanged
	}
	a.Status = to
	a.UpdatedAt = at
	if to == model.StatusCancelled {
		a.CancelledAt = &at
	}
	return nil
}

func (m *memAppointments) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.mu.Lock()
	m.transactions++
	m.mu.Unlock()
	return fn(mongo.NewSessionContext(ctx, nil))
}

func (m *memAppointments) setStatus(id string, status model.AppointmentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].Status = status
}

func (m *memAppointments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// memLocks mirrors the Slot_locks collection: the id is unique and an
// expired lock may be taken over.
type memLocks struct {
	mu    sync.Mutex
	locks map[string]model.SlotLock
	now   func() time.Time
}

func newMemLocks(now func() time.Time) *memLocks {
	return &memLocks{locks: map[string]model.SlotLock{}, now: now}
}

func (m *memLocks) Acquire(ctx context.Context, lock *model.SlotLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock.CreatedAt = m.now()
	if held, ok := m.locks[lock.ID]; ok && held.ExpiresAt.After(lock.CreatedAt) {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrSlotLocked, lock.ID)
	}
	m.locks[lock.ID] = *lock
	return nil
}

func (m *memLocks) Release(ctx context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.locks[id]; ok && held.Owner == owner {
		delete(m.locks, id)
	}
	return nil
}

func (m *memLocks) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

type memProfessionals map[string]*model.Professional

func (m memProfessionals) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	p, ok := m[id]
	if !ok {
		return nil, professionalserrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memSalons map[string]*model.Salon

func (m memSalons) FindByID(ctx context.Context, id string) (*model.Salon, error) {
	s, ok := m[id]
	if !ok {
		return nil, salonserrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) events(t *testing.T) []kafka.Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]kafka.Event, 0, len(p.messages))
	for _, msg := range p.messages {
		e, err := kafka.DecodeEvent(msg)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, code, appErr.Code, "error: %v", err)
}
