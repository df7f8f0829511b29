package events

import (
	"context"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/medflow/timesheet/pkg/messaging"
	"github.com/shopspring/decimal"
)

// TimesheetEventPublisher publishes timesheet events. Publishing failures
// are logged and never fail the operation that triggered them.
type TimesheetEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewTimesheetEventPublisher wraps a publisher bound to the timesheet exchange
func NewTimesheetEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *TimesheetEventPublisher {
	return &TimesheetEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// NewRabbitMQPublisher declares the timesheet exchange and returns a publisher on it
func NewRabbitMQPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*TimesheetEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeTimesheetEvents, "timesheet-service", log)
	if err != nil {
		return nil, err
	}
	return NewTimesheetEventPublisher(publisher, log), nil
}

// PublishDaySaved publishes a day saved event
func (p *TimesheetEventPublisher) PublishDaySaved(ctx context.Context, dayID string, created bool, payload *domain.SavePayload) {
	normal := decimal.Zero
	for _, t := range payload.Tasks {
		normal = normal.Add(t.Hours)
	}

	data := messaging.TimesheetDaySavedEvent{
		DayID:       dayID,
		EmployeeID:  payload.EmployeeID,
		CompanyID:   payload.CompanyID,
		Date:        payload.Date.String(),
		PeriodClose: payload.PeriodClose.String(),
		Shift:       string(payload.Shift),
		NormalHours: normal.String(),
		Created:     created,
	}
	if payload.ExtraTask != nil {
		data.ExtraHours = payload.ExtraTask.Hours.String()
	}

	if err := p.publisher.Publish(ctx, messaging.EventTimesheetDaySaved, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", payload.EmployeeID).Msg("failed to publish day saved event")
	}
}

// PublishReportExported publishes a report exported event
func (p *TimesheetEventPublisher) PublishReportExported(ctx context.Context, employeeID string, rng domain.DateRange, fileName string, dayCount int, requestedBy string) {
	data := messaging.TimesheetReportExportedEvent{
		EmployeeID:  employeeID,
		PeriodStart: rng.Start.String(),
		PeriodEnd:   rng.End.String(),
		FileName:    fileName,
		DayCount:    dayCount,
		RequestedBy: requestedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTimesheetReportExported, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", employeeID).Msg("failed to publish report exported event")
	}
}
