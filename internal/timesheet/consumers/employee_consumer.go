package consumers

import (
	"context"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/repository"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/medflow/timesheet/pkg/messaging"
)

// QueueStaffEvents is the durable queue the timesheet service reads staff events from
const QueueStaffEvents = "timesheet-service.staff-events"

// EmployeeEventConsumer keeps the employee cache in step with the staff service
type EmployeeEventConsumer struct {
	consumer     *messaging.Consumer
	employeeRepo *repository.EmployeeCacheRepository
	logger       *logger.Logger
}

// NewEmployeeEventConsumer creates a new employee event consumer
func NewEmployeeEventConsumer(
	rmq *messaging.RabbitMQ,
	employeeRepo *repository.EmployeeCacheRepository,
	log *logger.Logger,
) (*EmployeeEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueStaffEvents, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeStaffEvents, "staff.employee.#"); err != nil {
		return nil, err
	}

	c := &EmployeeEventConsumer{
		consumer:     consumer,
		employeeRepo: employeeRepo,
		logger:       log,
	}
	c.register(consumer)

	return c, nil
}

type handlerRegistry interface {
	RegisterHandler(eventType string, handler messaging.MessageHandler)
}

func (c *EmployeeEventConsumer) register(r handlerRegistry) {
	r.RegisterHandler(messaging.EventEmployeeCreated, c.handleEmployeeCreated)
	r.RegisterHandler(messaging.EventEmployeeUpdated, c.handleEmployeeUpdated)
	r.RegisterHandler(messaging.EventEmployeeDeleted, c.handleEmployeeDeleted)
}

// Start starts consuming messages
func (c *EmployeeEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *EmployeeEventConsumer) handleEmployeeCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.EmployeeCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("employee_id", data.EmployeeID).
		Str("name", data.Name).
		Msg("received employee created event")

	emp := &domain.Employee{
		ID:          data.EmployeeID,
		Name:        data.Name,
		CompanyID:   data.CompanyID,
		CompanyName: data.CompanyName,
	}
	if data.UserID != nil {
		emp.UserID = *data.UserID
	}

	return c.employeeRepo.Set(ctx, emp)
}

func (c *EmployeeEventConsumer) handleEmployeeUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.EmployeeUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("employee_id", data.EmployeeID).
		Msg("received employee updated event")

	existing, err := c.employeeRepo.Get(ctx, data.EmployeeID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil // not cached, nothing to update
		}
		return err
	}

	if name, ok := changedField(data.Fields, "name"); ok {
		existing.Name = name
	}
	if company, ok := changedField(data.Fields, "company_name"); ok {
		existing.CompanyName = company
	}
	if companyID, ok := changedField(data.Fields, "company_id"); ok {
		existing.CompanyID = companyID
	}

	return c.employeeRepo.Set(ctx, existing)
}

func (c *EmployeeEventConsumer) handleEmployeeDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.EmployeeDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("employee_id", data.EmployeeID).
		Msg("received employee deleted event")

	return c.employeeRepo.Delete(ctx, data.EmployeeID)
}

// changedField reads a field either as a plain value or as {"from": ..., "to": ...}
func changedField(fields map[string]any, key string) (string, bool) {
	switch v := fields[key].(type) {
	case string:
		return v, true
	case map[string]interface{}:
		to, ok := v["to"].(string)
		return to, ok
	default:
		return "", false
	}
}
