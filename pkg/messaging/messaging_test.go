package messaging

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/medflow/timesheet/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_RoundTripsData(t *testing.T) {
	event, err := NewEvent(EventTimesheetDaySaved, "timesheet-service", "corr-1", TimesheetDaySavedEvent{
		EmployeeID: "emp-1",
		Date:       "2025-07-09",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "corr-1", event.CorrelationID)

	var data TimesheetDaySavedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, "emp-1", data.EmployeeID)
	assert.Equal(t, "2025-07-09", data.Date)
}

func TestConsumer_Dispatch(t *testing.T) {
	c := &Consumer{handlers: make(map[string]MessageHandler), logger: logger.Nop()}

	var gotCorrelation string
	c.RegisterHandler(EventEmployeeDeleted, func(ctx context.Context, event *Event) error {
		gotCorrelation = getCorrelationID(ctx)
		return nil
	})
	c.RegisterHandler(EventEmployeeUpdated, func(ctx context.Context, event *Event) error {
		return stderrors.New("cache unavailable")
	})

	assert.NoError(t, c.Dispatch(context.Background(), &Event{Type: EventEmployeeDeleted, CorrelationID: "abc"}))
	assert.Equal(t, "abc", gotCorrelation)

	assert.Error(t, c.Dispatch(context.Background(), &Event{Type: EventEmployeeUpdated}))
	assert.NoError(t, c.Dispatch(context.Background(), &Event{Type: "unknown.event"}))
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 0, getRetryCount(amqp.Delivery{}))

	msg := amqp.Delivery{Headers: amqp.Table{
		"x-death": []interface{}{amqp.Table{"count": int64(2)}},
	}}
	assert.Equal(t, 2, getRetryCount(msg))
}
