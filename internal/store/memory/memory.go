package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"hubtrack/internal/core"
	"hubtrack/internal/store"
)

var _ store.Store = (*Store)(nil)

type paymentKey struct {
	businessID  int64
	month, year int
}

// Store keeps every entity in maps guarded by a single lock. Secondary
// unique indexes are checked and written under the same write lock as the
// primary map, so concurrent duplicate inserts cannot both succeed.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	entrepreneurs map[int64]core.Entrepreneur
	emails        map[string]int64

	businesses    map[int64]core.Business
	registrations map[string]int64

	payments    map[int64]core.PaymentRecord
	paymentKeys map[paymentKey]int64
	changes     []core.PaymentStatusChange

	assignments map[int64]core.CohortAssignment
}

func New() *Store {
	return &Store{
		entrepreneurs: make(map[int64]core.Entrepreneur),
		emails:        make(map[string]int64),
		businesses:    make(map[int64]core.Business),
		registrations: make(map[string]int64),
		payments:      make(map[int64]core.PaymentRecord),
		paymentKeys:   make(map[paymentKey]int64),
		assignments:   make(map[int64]core.CohortAssignment),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertEntrepreneur(ctx context.Context, e core.Entrepreneur) (core.Entrepreneur, error) {
	if err := ctx.Err(); err != nil {
		return core.Entrepreneur{}, err
	}
	email := core.NormalizeEmail(e.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return core.Entrepreneur{}, core.ErrDuplicateKey
	}
	e.ID = s.id()
	s.entrepreneurs[e.ID] = e
	s.emails[email] = e.ID
	return e, nil
}

func (s *Store) GetEntrepreneur(ctx context.Context, id int64) (core.Entrepreneur, error) {
	if err := ctx.Err(); err != nil {
		return core.Entrepreneur{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entrepreneurs[id]
	if !ok {
		return core.Entrepreneur{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListEntrepreneurs(ctx context.Context) ([]core.Entrepreneur, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.entrepreneurs, func(e core.Entrepreneur) int64 { return e.ID }), nil
}

func (s *Store) SetEntrepreneurStatus(ctx context.Context, id int64, status core.AccountStatus) (core.Entrepreneur, error) {
	if err := ctx.Err(); err != nil {
		return core.Entrepreneur{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entrepreneurs[id]
	if !ok {
		return core.Entrepreneur{}, core.ErrNotFound
	}
	e.Status = status
	s.entrepreneurs[id] = e
	return e, nil
}

func (s *Store) InsertBusiness(ctx context.Context, b core.Business) (core.Business, error) {
	if err := ctx.Err(); err != nil {
		return core.Business{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entrepreneurs[b.EntrepreneurID]; !ok {
		return core.Business{}, core.ErrNotFound
	}
	if _, ok := s.registrations[b.RegistrationNumber]; ok {
		return core.Business{}, core.ErrDuplicateKey
	}
	b.ID = s.id()
	s.businesses[b.ID] = b
	s.registrations[b.RegistrationNumber] = b.ID
	return b, nil
}

func (s *Store) GetBusiness(ctx context.Context, id int64) (core.Business, error) {
	if err := ctx.Err(); err != nil {
		return core.Business{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return core.Business{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBusinessesByEntrepreneur(ctx context.Context, entrepreneurID int64) ([]core.Business, error) {
	all, err := s.ListBusinesses(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if b.EntrepreneurID == entrepreneurID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) ListBusinesses(ctx context.Context) ([]core.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.businesses, func(b core.Business) int64 { return b.ID }), nil
}

func (s *Store) InsertPayment(ctx context.Context, p core.PaymentRecord) (core.PaymentRecord, core.PaymentStatusChange, error) {
	if err := ctx.Err(); err != nil {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, err
	}
	key := paymentKey{p.BusinessID, p.Month, p.Year}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[p.BusinessID]; !ok {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, core.ErrNotFound
	}
	if _, ok := s.paymentKeys[key]; ok {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, core.ErrDuplicateKey
	}
	p.ID = s.id()
	s.payments[p.ID] = p
	s.paymentKeys[key] = p.ID
	change := s.appendChange(core.PaymentStatusChange{
		PaymentID: p.ID,
		To:        p.Status,
		Actor:     p.UpdatedBy,
		At:        p.CreatedAt,
	})
	return p, change, nil
}

func (s *Store) appendChange(c core.PaymentStatusChange) core.PaymentStatusChange {
	c.ID = s.id()
	s.changes = append(s.changes, c)
	return c
}

func (s *Store) GetPayment(ctx context.Context, id int64) (core.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.PaymentRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return core.PaymentRecord{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPaymentsByBusiness(ctx context.Context, businessID int64) ([]core.PaymentRecord, error) {
	return s.listPayments(ctx, func(p core.PaymentRecord) bool { return p.BusinessID == businessID })
}

func (s *Store) ListPaymentsByEntrepreneur(ctx context.Context, entrepreneurID int64) ([]core.PaymentRecord, error) {
	return s.listPayments(ctx, func(p core.PaymentRecord) bool { return p.EntrepreneurID == entrepreneurID })
}

func (s *Store) listPayments(ctx context.Context, keep func(core.PaymentRecord) bool) ([]core.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PaymentRecord, 0)
	for _, p := range s.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	core.SortPayments(out)
	return out, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, to core.PaymentStatus, actor core.Role, at time.Time) (core.PaymentRecord, core.PaymentStatusChange, error) {
	if err := ctx.Err(); err != nil {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, core.ErrNotFound
	}
	next, change := p.Apply(to, actor, at)
	s.payments[id] = next
	return next, s.appendChange(change), nil
}

func (s *Store) PaymentHistory(ctx context.Context, paymentID int64) ([]core.PaymentStatusChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.payments[paymentID]; !ok {
		return nil, core.ErrNotFound
	}
	var out []core.PaymentStatusChange
	for _, c := range s.changes {
		if c.PaymentID == paymentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListUnsyncedChanges(ctx context.Context, limit int) ([]core.PaymentStatusChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.PaymentStatusChange
	for _, c := range s.changes {
		if limit > 0 && len(out) == limit {
			break
		}
		if !c.Synced {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) MarkChangeSynced(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.changes {
		if s.changes[i].ID == id {
			s.changes[i].Synced = true
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) InsertAssignment(ctx context.Context, a core.CohortAssignment) (core.CohortAssignment, error) {
	if err := ctx.Err(); err != nil {
		return core.CohortAssignment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entrepreneurs[a.EntrepreneurID]; !ok {
		return core.CohortAssignment{}, core.ErrNotFound
	}
	a.ID = s.id()
	s.assignments[a.ID] = a
	return a, nil
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (core.CohortAssignment, error) {
	if err := ctx.Err(); err != nil {
		return core.CohortAssignment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return core.CohortAssignment{}, core.ErrNotFound
	}
	return a, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, a core.CohortAssignment) (core.CohortAssignment, error) {
	if err := ctx.Err(); err != nil {
		return core.CohortAssignment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; !ok {
		return core.CohortAssignment{}, core.ErrNotFound
	}
	s.assignments[a.ID] = a
	return a, nil
}

func (s *Store) ListAssignments(ctx context.Context, f core.Filter) ([]core.CohortAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := sortedValues(s.assignments, func(a core.CohortAssignment) int64 { return a.ID })
	s.mu.RUnlock()
	return f.Assignments(all), nil
}

// Snapshot copies every map under one read lock. The domain structs hold no
// pointers, so copying the values is a deep copy.
func (s *Store) Snapshot(ctx context.Context) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Snapshot{
		Entrepreneurs: sortedValues(s.entrepreneurs, func(e core.Entrepreneur) int64 { return e.ID }),
		Businesses:    sortedValues(s.businesses, func(b core.Business) int64 { return b.ID }),
		Payments:      sortedValues(s.payments, func(p core.PaymentRecord) int64 { return p.ID }),
		Assignments:   sortedValues(s.assignments, func(a core.CohortAssignment) int64 { return a.ID }),
	}, nil
}

// sortedValues returns the map values ordered by id. Callers hold the lock.
func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}
