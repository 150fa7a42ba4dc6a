package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	reservationserrors "campusbook/internal/reservations/errors"
	"campusbook/internal/reservations/events"
	"campusbook/internal/reservations/repository"
	"campusbook/internal/reservations/validator"
	resourceserrors "campusbook/internal/resources/errors"
	"campusbook/pkg/config"
	mongotx "campusbook/pkg/db/mongo"
	"campusbook/pkg/logger"
	"campusbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// In-memory collaborators
// ────────────────────────────────────────────────

type fakeReservationRepository struct {
	mu    sync.Mutex
	items map[string]model.Reservation

	// txFailures makes the next n transactions fail with txErr before fn runs.
	txFailures int
	txErr      error
	txCalls    int

	// afterFind runs once, after the next FindByID has read its snapshot.
	afterFind func(id string)
}

var _ repository.ReservationRepository = (*fakeReservationRepository)(nil)

func newFakeRepo() *fakeReservationRepository {
	return &fakeReservationRepository{items: map[string]model.Reservation{}}
}

func (f *fakeReservationRepository) seed(r model.Reservation) *model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = primitive.NewObjectID().Hex()
	}
	f.items[r.ID] = r
	return &r
}

func (f *fakeReservationRepository) get(id string) model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

func (f *fakeReservationRepository) all() []*model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Reservation, 0, len(f.items))
	for _, r := range f.items {
		r := r
		out = append(out, &r)
	}
	sortReservations(out)
	return out
}

func (f *fakeReservationRepository) Insert(ctx context.Context, r *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID().Hex()
	f.items[r.ID] = *r
	return nil
}

func (f *fakeReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	r, err := f.findByID(id)

	f.mu.Lock()
	hook := f.afterFind
	f.afterFind = nil
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return r, err
}

func (f *fakeReservationRepository) findByID(id string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	r, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}
	return &r, nil
}

func (f *fakeReservationRepository) ListActive(ctx context.Context, resourceID, excludeID string, window *model.Interval) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Reservation{}
	for id, r := range f.items {
		if r.ResourceID != resourceID || !r.Status.Active() || id == excludeID {
			continue
		}
		if window != nil && !r.Overlaps(window.Start, window.End) {
			continue
		}
		r := r
		out = append(out, &r)
	}
	sortReservations(out)
	return out, nil
}

func (f *fakeReservationRepository) Find(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	matched := f.filter(filter)
	if int(offset) >= len(matched) {
		return []*model.Reservation{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	return int64(len(f.filter(filter))), nil
}

func (f *fakeReservationRepository) CountActive(ctx context.Context, resourceID string) (int64, error) {
	active, _ := f.ListActive(ctx, resourceID, "", nil)
	return int64(len(active)), nil
}

func (f *fakeReservationRepository) UpdateStatus(ctx context.Context, id string, change repository.StatusChange) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}
	if r.Status != change.From {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrStatusChanged, id)
	}
	r.Status = change.To
	r.RejectionReason = change.RejectionReason
	if change.DecidedBy != "" {
		r.DecidedBy = change.DecidedBy
	}
	at := change.At
	r.UpdatedAt = &at
	f.items[id] = r
	return &r, nil
}

func (f *fakeReservationRepository) UpdateFields(ctx context.Context, id string, patch repository.FieldPatch, at time.Time) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok || !r.Status.Active() {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrStatusChanged, id)
	}
	if patch.StartTime != nil {
		r.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		r.EndTime = *patch.EndTime
	}
	if patch.Purpose != nil {
		r.Purpose = *patch.Purpose
	}
	if patch.Attendees != nil {
		r.Attendees = *patch.Attendees
	}
	r.UpdatedAt = &at
	f.items[id] = r
	return &r, nil
}

func (f *fakeReservationRepository) ListEnded(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Reservation{}
	for _, r := range f.items {
		if r.Status == model.ReservationStatusApproved && !r.EndTime.After(now) {
			r := r
			out = append(out, &r)
		}
	}
	sortReservations(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	f.mu.Lock()
	f.txCalls++
	if f.txFailures > 0 {
		f.txFailures--
		err := f.txErr
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	return fn(mongo.NewSessionContext(ctx, nil))
}

func (f *fakeReservationRepository) filter(filter model.ReservationFilter) []*model.Reservation {
	out := []*model.Reservation{}
	for _, r := range f.all() {
		if filter.ResourceID != "" && r.ResourceID != filter.ResourceID {
			continue
		}
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.To != nil && !r.StartTime.Before(*filter.To) {
			continue
		}
		if filter.From != nil && !r.EndTime.After(*filter.From) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortReservations(rs []*model.Reservation) {
	slices.SortFunc(rs, func(a, b *model.Reservation) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

type fakeLocker struct {
	mu      sync.Mutex
	holders map[string]string
	// alwaysHeld simulates a lock that is never released.
	alwaysHeld bool
	acquires   int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{holders: map[string]string{}}
}

func (l *fakeLocker) TryAcquire(ctx context.Context, resourceID, owner string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.alwaysHeld {
		return reservationserrors.ErrLockHeld
	}
	if _, held := l.holders[resourceID]; held {
		return reservationserrors.ErrLockHeld
	}
	l.holders[resourceID] = owner
	l.acquires++
	return nil
}

func (l *fakeLocker) Release(ctx context.Context, resourceID, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders[resourceID] != owner {
		return reservationserrors.ErrLockNotOwned
	}
	delete(l.holders, resourceID)
	return nil
}

func (l *fakeLocker) held(resourceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.holders[resourceID]
	return ok
}

type fakeRegistry struct {
	mu        sync.Mutex
	resources map[string]*model.Resource
}

func newFakeRegistry(resources ...*model.Resource) *fakeRegistry {
	r := &fakeRegistry{resources: map[string]*model.Resource{}}
	for _, res := range resources {
		r.resources[res.ID] = res
	}
	return r
}

func (r *fakeRegistry) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", resourceserrors.ErrNotFound, id)
	}
	copied := *res
	return &copied, nil
}

func (r *fakeRegistry) setStatus(id string, status model.ResourceStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[id].Status = status
}

type recordedEvent struct {
	Type    events.Type
	ID      string
	ActorID string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType events.Type, r *model.Reservation, actorID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, ID: r.ID, ActorID: actorID})
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

const (
	labScopeID = "65f0000000000000000000a1"
	roomID     = "65f0000000000000000000b2"
)

var (
	requester = model.Actor{ID: "stu-1", Role: model.RoleStudent}
	other     = model.Actor{ID: "stu-2", Role: model.RoleStudent}
	staff     = model.Actor{ID: "staff-1", Role: model.RoleStaff}
	testDay   = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
)

func at(clock string) time.Time {
	c := mustClock(clock)
	return time.Date(2025, 3, 14, c/60, c%60, 0, 0, time.UTC)
}

func mustClock(s string) int {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		panic(err)
	}
	return h*60 + m
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                 logger.Discard(),
		OperatingDayStart:   "09:00",
		OperatingDayEnd:     "17:00",
		ReservationTimezone: "UTC",
		ReadTimeout:         time.Second,
		WriteTimeout:        time.Second,
		LockTTL:             5 * time.Second,
		LockWaitTimeout:     2 * time.Second,
		WriteRetryAttempts:  3,
	}
}

type harness struct {
	svc       ReservationService
	repo      *fakeReservationRepository
	locker    *fakeLocker
	registry  *fakeRegistry
	publisher *recordingPublisher
	cfg       *config.Config
}

func newHarness() *harness {
	cfg := testConfig()
	h := &harness{
		repo:   newFakeRepo(),
		locker: newFakeLocker(),
		registry: newFakeRegistry(
			&model.Resource{ID: labScopeID, Kind: model.ResourceKindEquipment, Name: "Oscilloscope", Status: model.ResourceStatusAvailable},
			&model.Resource{ID: roomID, Kind: model.ResourceKindRoom, Name: "Seminar Room", Capacity: 20, Status: model.ResourceStatusAvailable},
		),
		publisher: &recordingPublisher{},
		cfg:       cfg,
	}
	h.svc = NewReservationService(h.repo, h.registry, h.locker, validator.NewReservationValidator(cfg.Log), h.publisher, cfg)
	return h
}

func (h *harness) book(actor model.Actor, resourceID, start, end string) (*model.Reservation, error) {
	return h.svc.Create(context.Background(), actor, &model.NewReservation{
		ResourceID: resourceID,
		StartTime:  at(start),
		EndTime:    at(end),
		Purpose:    "Lab work",
	})
}
