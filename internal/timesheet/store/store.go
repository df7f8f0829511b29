// Package store holds the day records of a capture session in memory.
package store

import (
	"sort"
	"sync"

	"github.com/medflow/timesheet/internal/timesheet/domain"
)

// DayRecordStore is a passive keyed store of day records. Records are
// copied on the way in and out so callers never share state with it.
type DayRecordStore struct {
	mu      sync.RWMutex
	records map[domain.Date]domain.DayRecord
}

func New() *DayRecordStore {
	return &DayRecordStore{records: make(map[domain.Date]domain.DayRecord)}
}

// Get returns the record for date, or false if it was never stored
func (s *DayRecordStore) Get(date domain.Date) (domain.DayRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[date]
	if !ok {
		return domain.DayRecord{}, false
	}
	return rec.Clone(), true
}

// Upsert replaces the record for date
func (s *DayRecordStore) Upsert(date domain.Date, rec domain.DayRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = rec.Clone()
	rec.Date = date
	s.records[date] = rec
}

// Reset drops every record
func (s *DayRecordStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[domain.Date]domain.DayRecord)
}

// All returns every stored record in ascending date order
func (s *DayRecordStore) All() []domain.DayRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DayRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (s *DayRecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
