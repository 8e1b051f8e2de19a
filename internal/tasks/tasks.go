package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/satriajanaka/backend-mart/internal/events"
)

// Task type names routed through the asynq queue.
const (
	TypeOrderConfirmation = "email:order_confirmation"
	TypeOrderPaidReceipt  = "email:order_receipt"
)

// OrderEmailPayload is the payload for order email tasks.
type OrderEmailPayload struct {
	OrderID string  `json:"orderId"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Total   float64 `json:"total"`
}

// NewOrderConfirmationTask builds the order confirmation email task.
func NewOrderConfirmationTask(p OrderEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderConfirmation, payload,
		asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// NewOrderReceiptTask builds the payment receipt email task.
func NewOrderReceiptTask(p OrderEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderPaidReceipt, payload,
		asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// Enqueuer bridges the event bus to the task queue: order lifecycle events
// become email tasks.
type Enqueuer struct {
	Client *asynq.Client
}

// Notify implements events.Notifier.
func (e *Enqueuer) Notify(ctx context.Context, event events.Event) error {
	if e == nil || e.Client == nil {
		return nil
	}
	var order struct {
		ID    string `json:"id"`
		User  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
		TotalPrice float64 `json:"totalPrice"`
	}
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return err
	}
	payload := OrderEmailPayload{
		OrderID: order.ID,
		Email:   order.User.Email,
		Name:    order.User.Name,
		Total:   order.TotalPrice,
	}

	var task *asynq.Task
	var err error
	switch event.Topic {
	case events.TopicOrderCreated:
		task, err = NewOrderConfirmationTask(payload)
	case events.TopicOrderPaid:
		task, err = NewOrderReceiptTask(payload)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, task)
	return err
}
