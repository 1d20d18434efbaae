package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// ========================================
// PUNCHES
// ========================================

type punchRepository struct {
	store *Store
}

func NewPunchRepository(store *Store) attendance.PunchRepository {
	return &punchRepository{store: store}
}

func (r *punchRepository) Create(ctx context.Context, p attendance.Punch) (attendance.Punch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	p.CreatedAt = r.store.now()
	r.store.punches = append(r.store.punches, p)
	return p, nil
}

// ListByEmployeeDate keeps insertion order among punches with equal punch_at.
func (r *punchRepository) ListByEmployeeDate(ctx context.Context, companyID string, employeeID string, date time.Time) ([]attendance.Punch, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []attendance.Punch
	for _, p := range r.store.punches {
		if p.CompanyID == companyID && p.EmployeeID == employeeID && p.Date.Equal(date) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PunchAt.Before(out[j].PunchAt) })
	return out, nil
}

func (r *punchRepository) DeleteBySource(ctx context.Context, companyID string, employeeID string, date time.Time, source attendance.PunchSource) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.punches[:0:0]
	var deleted int64
	for _, p := range r.store.punches {
		if p.CompanyID == companyID && p.EmployeeID == employeeID && p.Date.Equal(date) && p.Source == source {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	r.store.punches = kept
	return deleted, nil
}

// ========================================
// SUMMARIES
// ========================================

type summaryRepository struct {
	store *Store
}

func NewSummaryRepository(store *Store) attendance.SummaryRepository {
	return &summaryRepository{store: store}
}

func (r *summaryRepository) FindOrCreateForUpdate(ctx context.Context, companyID string, employeeID string, date time.Time) (attendance.DailySummary, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := dayKey(companyID, employeeID, date)
	if s, ok := r.store.summaries[key]; ok {
		return s, false, nil
	}

	now := r.store.now()
	s := attendance.DailySummary{
		ID:         newID(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     attendance.StatusNotMarked,
		Source:     attendance.SummarySourceAuto,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.store.summaries[key] = s
	return s, true, nil
}

func (r *summaryRepository) Update(ctx context.Context, s attendance.DailySummary) (attendance.DailySummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := dayKey(s.CompanyID, s.EmployeeID, s.Date)
	existing, ok := r.store.summaries[key]
	if !ok || existing.ID != s.ID {
		return attendance.DailySummary{}, attendance.ErrSummaryNotFound
	}
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = r.store.now()
	r.store.summaries[key] = s
	return s, nil
}

func (r *summaryRepository) Get(ctx context.Context, companyID string, employeeID string, date time.Time) (attendance.DailySummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.summaries[dayKey(companyID, employeeID, date)]
	if !ok {
		return attendance.DailySummary{}, attendance.ErrSummaryNotFound
	}
	return s, nil
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func (r *summaryRepository) ListByEmployeeRange(ctx context.Context, companyID string, employeeID string, from time.Time, to time.Time) ([]attendance.DailySummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []attendance.DailySummary
	for _, s := range r.store.summaries {
		if s.CompanyID == companyID && s.EmployeeID == employeeID && inRange(s.Date, from, to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *summaryRepository) ListByDate(ctx context.Context, companyID string, date time.Time, status *attendance.Status) ([]attendance.DailySummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []attendance.DailySummary
	for _, s := range r.store.summaries {
		if s.CompanyID != companyID || !s.Date.Equal(date) {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *summaryRepository) SetLockedForRange(ctx context.Context, companyID string, from time.Time, to time.Time, locked bool, note *string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	now := r.store.now()
	for key, s := range r.store.summaries {
		if s.CompanyID != companyID || !inRange(s.Date, from, to) {
			continue
		}
		s.Locked = locked
		if note != nil {
			s.AppendNote(*note)
		}
		s.UpdatedAt = now
		r.store.summaries[key] = s
		n++
	}
	return n, nil
}

// ========================================
// REGULARIZATIONS
// ========================================

type regularizationRepository struct {
	store *Store
}

func NewRegularizationRepository(store *Store) attendance.RegularizationRepository {
	return &regularizationRepository{store: store}
}

func (r *regularizationRepository) Create(ctx context.Context, reg attendance.Regularization) (attendance.Regularization, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if reg.ID == "" {
		reg.ID = newID()
	}
	now := r.store.now()
	reg.CreatedAt, reg.UpdatedAt = now, now
	r.store.regularizations[reg.ID] = reg
	return reg, nil
}

func (r *regularizationRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Regularization, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	reg, ok := r.store.regularizations[id]
	if !ok || reg.CompanyID != companyID {
		return attendance.Regularization{}, attendance.ErrRegularizationNotFound
	}
	return reg, nil
}

func (r *regularizationRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Regularization, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *regularizationRepository) UpdateDecision(ctx context.Context, reg attendance.Regularization) (attendance.Regularization, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.regularizations[reg.ID]
	if !ok || existing.CompanyID != reg.CompanyID {
		return attendance.Regularization{}, attendance.ErrRegularizationNotFound
	}
	existing.Status = reg.Status
	existing.ActionByUserID = reg.ActionByUserID
	existing.ActionAt = reg.ActionAt
	existing.ActionNote = reg.ActionNote
	existing.UpdatedAt = r.store.now()
	r.store.regularizations[reg.ID] = existing
	return existing, nil
}

func (r *regularizationRepository) CountPending(ctx context.Context, companyID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, reg := range r.store.regularizations {
		if reg.CompanyID == companyID && reg.Status == attendance.RegularizationPending {
			n++
		}
	}
	return n, nil
}

func (r *regularizationRepository) List(ctx context.Context, companyID string, filter attendance.RegularizationFilter) ([]attendance.Regularization, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []attendance.Regularization
	for _, reg := range r.store.regularizations {
		if reg.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && reg.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(reg.Status) != *filter.Status {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ========================================
// LOCKS
// ========================================

type lockRepository struct {
	store *Store
}

func NewLockRepository(store *Store) attendance.LockRepository {
	return &lockRepository{store: store}
}

func (r *lockRepository) Create(ctx context.Context, l attendance.Lock) (attendance.Lock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := periodKey(l.CompanyID, l.Period)
	if existing, ok := r.store.locks[key]; ok {
		return existing, nil
	}
	if l.ID == "" {
		l.ID = newID()
	}
	r.store.locks[key] = l
	return l, nil
}

func (r *lockRepository) GetByPeriod(ctx context.Context, companyID string, period string) (*attendance.Lock, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	l, ok := r.store.locks[periodKey(companyID, period)]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *lockRepository) Delete(ctx context.Context, companyID string, period string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := periodKey(companyID, period)
	if _, ok := r.store.locks[key]; !ok {
		return false, nil
	}
	delete(r.store.locks, key)
	return true, nil
}

func (r *lockRepository) List(ctx context.Context, companyID string) ([]attendance.Lock, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []attendance.Lock
	for _, l := range r.store.locks {
		if l.CompanyID == companyID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

// AcquirePeriodGuard is a no-op: transactions on the store are already
// serialized.
func (r *lockRepository) AcquirePeriodGuard(ctx context.Context, companyID string, period string, exclusive bool) error {
	return nil
}
