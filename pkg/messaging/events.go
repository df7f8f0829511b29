package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Published by the timesheet service
	EventTimesheetDaySaved       = "timesheet.day.saved"
	EventTimesheetReportExported = "timesheet.report.exported"

	// Consumed from the staff service
	EventEmployeeCreated = "staff.employee.created"
	EventEmployeeUpdated = "staff.employee.updated"
	EventEmployeeDeleted = "staff.employee.deleted"
)

// Exchange names
const (
	ExchangeTimesheetEvents = "timesheet.events"
	ExchangeStaffEvents     = "staff.events"
)

// Event is the envelope every message travels in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// TimesheetDaySavedEvent is published after a day record is persisted
type TimesheetDaySavedEvent struct {
	DayID       string `json:"day_id"`
	EmployeeID  string `json:"employee_id"`
	CompanyID   string `json:"company_id"`
	Date        string `json:"date"`
	PeriodClose string `json:"period_close"`
	Shift       string `json:"shift,omitempty"`
	NormalHours string `json:"normal_hours"`
	ExtraHours  string `json:"extra_hours,omitempty"`
	Created     bool   `json:"created"`
}

// TimesheetReportExportedEvent is published when a spreadsheet report is produced
type TimesheetReportExportedEvent struct {
	EmployeeID  string `json:"employee_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	FileName    string `json:"file_name"`
	DayCount    int    `json:"day_count"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// EmployeeCreatedEvent is published by the staff service when an employee is created
type EmployeeCreatedEvent struct {
	EmployeeID  string  `json:"employee_id"`
	UserID      *string `json:"user_id,omitempty"`
	Name        string  `json:"name"`
	CompanyID   string  `json:"company_id,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
}

// EmployeeUpdatedEvent carries the changed employee fields
type EmployeeUpdatedEvent struct {
	EmployeeID string         `json:"employee_id"`
	Fields     map[string]any `json:"fields"`
}

// EmployeeDeletedEvent is published when an employee is deleted
type EmployeeDeletedEvent struct {
	EmployeeID string `json:"employee_id"`
}
