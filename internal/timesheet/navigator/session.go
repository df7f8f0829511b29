package navigator

import (
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/store"
)

// LoadStatus is the per-day outcome of entering a day
type LoadStatus int

const (
	StatusUnvisited LoadStatus = iota
	StatusLoading
	StatusLoadedExisting
	StatusLoadedEmpty
	StatusError
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoadedExisting:
		return "loaded-existing"
	case StatusLoadedEmpty:
		return "loaded-empty"
	case StatusError:
		return "error"
	}
	return "unvisited"
}

// Session is the capture state of one employee: the confirmed range, the
// current position in it and the records of the days visited so far.
type Session struct {
	EmployeeID string
	CompanyID  string

	rng      *domain.DateRange
	days     []domain.Date
	index    int
	records  *store.DayRecordStore
	statuses map[domain.Date]LoadStatus
}

// NewSession starts an empty session with no range confirmed
func NewSession(employeeID, companyID string) *Session {
	return &Session{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		records:    store.New(),
		statuses:   make(map[domain.Date]LoadStatus),
	}
}

func (s *Session) reset(r domain.DateRange) {
	s.rng = &r
	s.days = r.Days()
	s.index = 0
	s.records.Reset()
	s.statuses = make(map[domain.Date]LoadStatus)
}

func (s *Session) currentDate() domain.Date {
	return s.days[s.index]
}

func (s *Session) isLast() bool {
	return s.index == len(s.days)-1
}

// Day is a snapshot of the navigator's current position
type Day struct {
	Index  int              `json:"index"`
	Total  int              `json:"total"`
	Date   domain.Date      `json:"date"`
	Record domain.DayRecord `json:"record"`
	Status LoadStatus       `json:"status"`
}

func (d Day) IsFirst() bool { return d.Index == 0 }
func (d Day) IsLast() bool  { return d.Index == d.Total-1 }
