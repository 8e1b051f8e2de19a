package tasks_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/tasks"
)

func TestOrderConfirmationTaskDelivery(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	processor := &tasks.Processor{Email: outbox, Log: zerolog.Nop()}

	task, err := tasks.NewOrderConfirmationTask(tasks.OrderEmailPayload{
		OrderID: "order-1",
		Email:   "john@example.com",
		Name:    "John",
		Total:   39.33,
	})
	require.NoError(t, err)
	require.Equal(t, tasks.TypeOrderConfirmation, task.Type())

	require.NoError(t, processor.HandleOrderConfirmation(context.Background(), task))
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "john@example.com", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].HTML, "order-1")
	require.Contains(t, outbox.Outbox[0].HTML, "39.33")
}

func TestOrderReceiptTaskDelivery(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	processor := &tasks.Processor{Email: outbox, Log: zerolog.Nop()}

	task, err := tasks.NewOrderReceiptTask(tasks.OrderEmailPayload{
		OrderID: "order-2",
		Email:   "jane@example.com",
		Name:    "Jane",
		Total:   120,
	})
	require.NoError(t, err)

	require.NoError(t, processor.HandleOrderReceipt(context.Background(), task))
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "jane@example.com", outbox.Outbox[0].To)
}

func TestMissingRecipientSkipsSend(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	processor := &tasks.Processor{Email: outbox, Log: zerolog.Nop()}

	task, err := tasks.NewOrderConfirmationTask(tasks.OrderEmailPayload{OrderID: "order-3"})
	require.NoError(t, err)

	require.NoError(t, processor.HandleOrderConfirmation(context.Background(), task))
	require.Empty(t, outbox.Outbox)
}
