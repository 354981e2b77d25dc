package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

// Message is the rendered payload handed to a Transport.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a rendered message. The SMTP implementation lives
// in smtp.go; tests substitute their own.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Outcome reports delivery of a single notification. Failures are
// captured here and logged, never surfaced to the transition caller.
type Outcome struct {
	Delivered bool
	Err       error
}

type EmailNotifier struct {
	transport Transport
	storeName string
}

func NewEmailNotifier(transport Transport, storeName string) *EmailNotifier {
	return &EmailNotifier{
		transport: transport,
		storeName: storeName,
	}
}

// Notify renders and sends the status-change email for a committed
// transition. Every failure mode ends up in the Outcome.
func (n *EmailNotifier) Notify(ctx context.Context, o *order.Order, oldStatus, newStatus order.Status) Outcome {
	if o.Customer.Email == "" {
		err := fmt.Errorf("order %s has no customer email", o.ID)
		log.Warn().Stringer("order_id", o.ID).Msg("notification: order has no customer email, skipping")
		return Outcome{Delivered: false, Err: err}
	}

	msg := Message{
		To:      o.Customer.Email,
		Subject: fmt.Sprintf("%s - order %s is now %s", n.storeName, shortID(o), newStatus.Label()),
		Body:    renderBody(n.storeName, o, oldStatus, newStatus),
	}

	if err := n.transport.Send(ctx, msg); err != nil {
		log.Error().Err(err).
			Stringer("order_id", o.ID).
			Str("recipient", msg.To).
			Stringer("old_status", oldStatus).
			Stringer("new_status", newStatus).
			Msg("notification: failed to deliver status-change email")
		return Outcome{Delivered: false, Err: err}
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("recipient", msg.To).
		Stringer("new_status", newStatus).
		Msg("notification: status-change email delivered")
	return Outcome{Delivered: true}
}

// NotifyStatusChange adapts Notify to the fire-and-forget contract the
// order service expects: the outcome is logged inside Notify and
// intentionally dropped here.
func (n *EmailNotifier) NotifyStatusChange(ctx context.Context, o *order.Order, oldStatus, newStatus order.Status) {
	_ = n.Notify(ctx, o, oldStatus, newStatus)
}

func renderBody(storeName string, o *order.Order, oldStatus, newStatus order.Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", o.Customer.Name)
	fmt.Fprintf(&b, "Your order %s has moved from %q to %q.\n\n", shortID(o), oldStatus.Label(), newStatus.Label())

	b.WriteString("Items:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  - %s x%d @ %.0f = %.0f\n", item.Name, item.Quantity, item.PricePerUnit, item.LineTotal())
	}
	fmt.Fprintf(&b, "\nOrder total: %.0f\n\n", o.Total)

	fmt.Fprintf(&b, "Delivery address: %s\n", o.Customer.Address)
	fmt.Fprintf(&b, "Phone: %s\n", o.Customer.Phone)
	fmt.Fprintf(&b, "Payment method: %s\n\n", paymentLabel(o.PaymentMethod))

	fmt.Fprintf(&b, "Thank you for shopping at %s.\n", storeName)
	return b.String()
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.PaymentCOD:
		return "Cash on delivery"
	case order.PaymentBankTransfer:
		return "Bank transfer"
	default:
		return string(m)
	}
}

func shortID(o *order.Order) string {
	id := o.ID.String()
	if len(id) > 8 {
		id = id[:8]
	}
	return "#" + strings.ToUpper(id)
}
