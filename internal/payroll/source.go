package payroll

import (
	"context"
	"sync"
)

// Source provides the related records the aggregator joins together.
// Implementations return ErrNotFound for absent rows; the aggregator maps
// that to ErrRecordNotFound or ErrDependencyNotFound depending on which
// fetch failed.
type Source interface {
	PayrollRecordByID(ctx context.Context, id string) (PayrollRow, error)
	StaffProfileByID(ctx context.Context, id string) (StaffProfile, error)
	// ActiveJobByStaffID returns the single active job assignment.
	ActiveJobByStaffID(ctx context.Context, staffID string) (StaffJob, error)
	// PayInfoByStaffID reports ok=false when no pay-info row exists;
	// that is not an error.
	PayInfoByStaffID(ctx context.Context, staffID string) (StaffPayInfo, bool, error)
}

// InMemorySource implements Source with in-process maps. Used by tests and
// the smoke CLI.
type InMemorySource struct {
	mu       sync.RWMutex
	records  map[string]PayrollRow
	staff    map[string]StaffProfile
	jobs     map[string]StaffJob // staffID -> active job
	payInfos map[string]StaffPayInfo
}

// NewInMemorySource creates an empty source.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{
		records:  make(map[string]PayrollRow),
		staff:    make(map[string]StaffProfile),
		jobs:     make(map[string]StaffJob),
		payInfos: make(map[string]StaffPayInfo),
	}
}

// AddRecord registers a payroll row.
func (s *InMemorySource) AddRecord(row PayrollRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[row.ID] = row
}

// AddStaff registers a staff profile.
func (s *InMemorySource) AddStaff(p StaffProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[p.ID] = p
}

// AddJob registers a job assignment; only active jobs are returned by
// ActiveJobByStaffID.
func (s *InMemorySource) AddJob(j StaffJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.StaffID] = j
}

// AddPayInfo registers statutory/bank identifiers for a staff member.
func (s *InMemorySource) AddPayInfo(staffID string, info StaffPayInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payInfos[staffID] = info
}

func (s *InMemorySource) PayrollRecordByID(ctx context.Context, id string) (PayrollRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.records[id]
	if !ok {
		return PayrollRow{}, ErrNotFound
	}
	return row, nil
}

func (s *InMemorySource) StaffProfileByID(ctx context.Context, id string) (StaffProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.staff[id]
	if !ok {
		return StaffProfile{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemorySource) ActiveJobByStaffID(ctx context.Context, staffID string) (StaffJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[staffID]
	if !ok || !j.Active {
		return StaffJob{}, ErrNotFound
	}
	return j, nil
}

func (s *InMemorySource) PayInfoByStaffID(ctx context.Context, staffID string) (StaffPayInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.payInfos[staffID]
	if !ok {
		return StaffPayInfo{}, false, nil
	}
	return info, true, nil
}

var _ Source = (*InMemorySource)(nil)
