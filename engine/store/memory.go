/*
Package store provides an in-memory implementation of the engine's storage
interfaces, for tests and development.

CONCURRENCY:
  One coarse mutex serializes every operation, which trivially satisfies
  the atomicity contract: a WithTx body runs with the lock held, so racing
  clock-ins or approvals observe each other's writes.

UNIQUENESS:
  The one-open-entry-per-(user, day) invariant is enforced structurally
  with an open-entry index, the same role the partial unique index plays
  in the SQLite store.

TRANSACTIONS:
  WithTx snapshots the affected maps and restores them when the body
  returns an error, mimicking rollback.
*/
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/compliance-engine/engine"
)

type openKey struct {
	User engine.UserID
	Day  string // 2006-01-02
}

// Memory holds all engine entities in maps. Views over it implement the
// individual store interfaces; they share the one mutex.
type Memory struct {
	mu         sync.Mutex
	entries    map[engine.EntryID]*engine.TimeEntry
	openIndex  map[openKey]engine.EntryID
	deadlines  map[engine.DeadlineID]*engine.ComplianceDeadline
	exceptions map[engine.ExceptionID]*engine.DeadlineExceptionRequest
	audit      []engine.AuditRecord
}

func NewMemory() *Memory {
	return &Memory{
		entries:    make(map[engine.EntryID]*engine.TimeEntry),
		openIndex:  make(map[openKey]engine.EntryID),
		deadlines:  make(map[engine.DeadlineID]*engine.ComplianceDeadline),
		exceptions: make(map[engine.ExceptionID]*engine.DeadlineExceptionRequest),
	}
}

// Entries returns the time entry store view.
func (m *Memory) Entries() engine.EntryTxStore { return &memEntries{m: m} }

// Deadlines returns the deadline store view.
func (m *Memory) Deadlines() engine.DeadlineStore { return &memDeadlines{m: m} }

// Exceptions returns the exception request store view.
func (m *Memory) Exceptions() engine.ExceptionTxStore { return &memExceptions{m: m} }

// Audit returns the audit log view.
func (m *Memory) Audit() engine.AuditLog { return &memAudit{m: m} }

func dayKey(userID engine.UserID, day time.Time) openKey {
	return openKey{User: userID, Day: day.Format("2006-01-02")}
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

type memEntries struct {
	m      *Memory
	inTx   bool
}

func (s *memEntries) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.m.mu.Lock()
	return s.m.mu.Unlock
}

func (s *memEntries) GetEntry(_ context.Context, id engine.EntryID) (*engine.TimeEntry, error) {
	defer s.lock()()
	e, ok := s.m.entries[id]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

func (s *memEntries) FindOpenEntry(_ context.Context, userID engine.UserID, day time.Time) (*engine.TimeEntry, error) {
	defer s.lock()()
	id, ok := s.m.openIndex[dayKey(userID, day)]
	if !ok {
		return nil, nil
	}
	return s.m.entries[id].Clone(), nil
}

func (s *memEntries) ListEntries(_ context.Context, f engine.EntryFilter) ([]*engine.TimeEntry, error) {
	defer s.lock()()
	var result []*engine.TimeEntry
	for _, e := range s.m.entries {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if !f.Day.IsZero() && !e.EntryDate.Equal(engine.DayOf(f.Day)) {
			continue
		}
		result = append(result, e.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *memEntries) SaveEntry(_ context.Context, e *engine.TimeEntry) error {
	defer s.lock()()
	return s.m.saveEntryLocked(e)
}

func (m *Memory) saveEntryLocked(e *engine.TimeEntry) error {
	k := dayKey(e.UserID, e.EntryDate)

	// Drop a stale index slot if this entry moved or closed.
	if prev, ok := m.entries[e.ID]; ok {
		pk := dayKey(prev.UserID, prev.EntryDate)
		if m.openIndex[pk] == e.ID {
			delete(m.openIndex, pk)
		}
	}

	if e.IsOpen() {
		if other, ok := m.openIndex[k]; ok && other != e.ID {
			return &engine.AlreadyClockedInError{UserID: e.UserID, Date: e.EntryDate, ExistingID: other}
		}
		m.openIndex[k] = e.ID
	}

	m.entries[e.ID] = e.Clone()
	return nil
}

func (s *memEntries) DeleteEntry(_ context.Context, id engine.EntryID) error {
	defer s.lock()()
	if e, ok := s.m.entries[id]; ok {
		k := dayKey(e.UserID, e.EntryDate)
		if s.m.openIndex[k] == id {
			delete(s.m.openIndex, k)
		}
		delete(s.m.entries, id)
	}
	return nil
}

func (s *memEntries) WithTx(ctx context.Context, fn func(engine.EntryStore) error) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	entriesCopy := make(map[engine.EntryID]*engine.TimeEntry, len(s.m.entries))
	for k, v := range s.m.entries {
		entriesCopy[k] = v.Clone()
	}
	indexCopy := make(map[openKey]engine.EntryID, len(s.m.openIndex))
	for k, v := range s.m.openIndex {
		indexCopy[k] = v
	}

	if err := fn(&memEntries{m: s.m, inTx: true}); err != nil {
		s.m.entries = entriesCopy
		s.m.openIndex = indexCopy
		return err
	}
	return nil
}

// =============================================================================
// DEADLINES
// =============================================================================

type memDeadlines struct {
	m *Memory
}

func (s *memDeadlines) GetDeadline(_ context.Context, id engine.DeadlineID) (*engine.ComplianceDeadline, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.deadlines[id]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

func (s *memDeadlines) ListDeadlines(_ context.Context, f engine.DeadlineFilter) ([]*engine.ComplianceDeadline, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*engine.ComplianceDeadline
	for _, d := range s.m.deadlines {
		if f.ProviderID != "" && d.ProviderID != f.ProviderID {
			continue
		}
		result = append(result, d.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DeadlineDate.Before(result[j].DeadlineDate)
	})
	return result, nil
}

func (s *memDeadlines) SaveDeadline(_ context.Context, d *engine.ComplianceDeadline) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.deadlines[d.ID] = d.Clone()
	return nil
}

func (s *memDeadlines) MarkMet(_ context.Context, id engine.DeadlineID, at time.Time) (*engine.ComplianceDeadline, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.deadlines[id]
	if !ok {
		return nil, &engine.NotFoundError{Kind: "deadline", ID: string(id)}
	}
	if !d.IsMet {
		d.IsMet = true
		d.MetAt = &at
		d.UpdatedAt = at
	}
	return d.Clone(), nil
}

// =============================================================================
// EXCEPTION REQUESTS
// =============================================================================

type memExceptions struct {
	m    *Memory
	inTx bool
}

func (s *memExceptions) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.m.mu.Lock()
	return s.m.mu.Unlock
}

func (s *memExceptions) GetException(_ context.Context, id engine.ExceptionID) (*engine.DeadlineExceptionRequest, error) {
	defer s.lock()()
	r, ok := s.m.exceptions[id]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (s *memExceptions) ListExceptions(_ context.Context, f engine.ExceptionFilter) ([]*engine.DeadlineExceptionRequest, error) {
	defer s.lock()()
	var result []*engine.DeadlineExceptionRequest
	for _, r := range s.m.exceptions {
		if f.ProviderID != "" && r.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		result = append(result, r.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *memExceptions) SaveException(_ context.Context, r *engine.DeadlineExceptionRequest) error {
	defer s.lock()()
	s.m.exceptions[r.ID] = r.Clone()
	return nil
}

func (s *memExceptions) DeleteException(_ context.Context, id engine.ExceptionID) error {
	defer s.lock()()
	delete(s.m.exceptions, id)
	return nil
}

func (s *memExceptions) WithTx(ctx context.Context, fn func(engine.ExceptionStore) error) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	snapshot := make(map[engine.ExceptionID]*engine.DeadlineExceptionRequest, len(s.m.exceptions))
	for k, v := range s.m.exceptions {
		snapshot[k] = v.Clone()
	}

	if err := fn(&memExceptions{m: s.m, inTx: true}); err != nil {
		s.m.exceptions = snapshot
		return err
	}
	return nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

type memAudit struct {
	m *Memory
}

func (s *memAudit) Append(_ context.Context, rec engine.AuditRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.audit = append(s.m.audit, rec)
	return nil
}

func (s *memAudit) ByTarget(_ context.Context, targetID string) ([]engine.AuditRecord, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []engine.AuditRecord
	for _, rec := range s.m.audit {
		if rec.TargetID == targetID {
			result = append(result, rec)
		}
	}
	return result, nil
}
