package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/satriajanaka/backend-mart/internal/common"
)

// Processor consumes order email tasks.
type Processor struct {
	Email common.EmailSender
	Log   zerolog.Logger
}

// Mux returns an asynq mux with all task handlers registered.
func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderConfirmation, p.HandleOrderConfirmation)
	mux.HandleFunc(TypeOrderPaidReceipt, p.HandleOrderReceipt)
	return mux
}

// HandleOrderConfirmation sends the "order placed" email.
func (p *Processor) HandleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	subject := "Your order has been placed"
	body := fmt.Sprintf("<p>Hi %s,</p><p>We received your order <b>%s</b> for a total of %.2f. We will let you know when it ships.</p>",
		payload.Name, payload.OrderID, payload.Total)
	if err := p.send(payload, subject, body); err != nil {
		return err
	}
	p.Log.Info().Str("order_id", payload.OrderID).Str("to", payload.Email).Msg("order confirmation sent")
	return nil
}

// HandleOrderReceipt sends the payment receipt email.
func (p *Processor) HandleOrderReceipt(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	subject := "Payment received"
	body := fmt.Sprintf("<p>Hi %s,</p><p>Payment of %.2f for order <b>%s</b> has been received. Thanks for shopping with us.</p>",
		payload.Name, payload.Total, payload.OrderID)
	if err := p.send(payload, subject, body); err != nil {
		return err
	}
	p.Log.Info().Str("order_id", payload.OrderID).Str("to", payload.Email).Msg("order receipt sent")
	return nil
}

func (p *Processor) send(payload OrderEmailPayload, subject, body string) error {
	if payload.Email == "" {
		return nil
	}
	sender := p.Email
	if sender == nil {
		sender = common.NopEmailSender{}
	}
	return sender.Send(payload.Email, subject, body)
}

func decodePayload(t *asynq.Task) (OrderEmailPayload, error) {
	var payload OrderEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return OrderEmailPayload{}, fmt.Errorf("tasks: decode payload: %w", err)
	}
	return payload, nil
}
