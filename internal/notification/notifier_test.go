package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/notification"
	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

type mockTransport struct {
	sendFunc func(ctx context.Context, msg notification.Message) error
	sent     []notification.Message
}

func (m *mockTransport) Send(ctx context.Context, msg notification.Message) error {
	m.sent = append(m.sent, msg)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	return nil
}

func sampleOrder(t *testing.T) *order.Order {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	productID, err := uuid.NewV4()
	require.NoError(t, err)
	return &order.Order{
		ID: id,
		Customer: order.Customer{
			Name:    "Tran Thi B",
			Phone:   "0912345678",
			Address: "45 Nguyen Trai, Da Nang",
			Email:   "b.tran@example.com",
		},
		Items: []order.OrderItem{
			{ProductID: productID, Name: "ESP32 DevKit", PricePerUnit: 120000, Quantity: 3},
			{ProductID: productID, Name: "Breadboard 830", PricePerUnit: 25000, Quantity: 2},
		},
		Total:         410000,
		Status:        order.StatusShipping,
		PaymentMethod: order.PaymentBankTransfer,
	}
}

func TestEmailNotifier_Notify_RendersOrderDetails(t *testing.T) {
	transport := &mockTransport{}
	notifier := notification.NewEmailNotifier(transport, "LinhKien5AE")

	o := sampleOrder(t)
	outcome := notifier.Notify(context.Background(), o, order.StatusShipping, order.StatusCompleted)

	require.True(t, outcome.Delivered)
	require.NoError(t, outcome.Err)
	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, "b.tran@example.com", msg.To)
	assert.Contains(t, msg.Subject, order.StatusCompleted.Label())

	// Body must carry every item line, the total, and the contact
	// details captured on the order.
	assert.Contains(t, msg.Body, "ESP32 DevKit x3 @ 120000 = 360000")
	assert.Contains(t, msg.Body, "Breadboard 830 x2 @ 25000 = 50000")
	assert.Contains(t, msg.Body, "Order total: 410000")
	assert.Contains(t, msg.Body, "45 Nguyen Trai, Da Nang")
	assert.Contains(t, msg.Body, "0912345678")
	assert.Contains(t, msg.Body, "Bank transfer")
	assert.Contains(t, msg.Body, order.StatusShipping.Label())
	assert.Contains(t, msg.Body, order.StatusCompleted.Label())
}

func TestEmailNotifier_Notify_CapturesTransportFailure(t *testing.T) {
	wantErr := errors.New("connection refused")
	transport := &mockTransport{
		sendFunc: func(ctx context.Context, msg notification.Message) error { return wantErr },
	}
	notifier := notification.NewEmailNotifier(transport, "LinhKien5AE")

	outcome := notifier.Notify(context.Background(), sampleOrder(t), order.StatusPending, order.StatusConfirmed)

	assert.False(t, outcome.Delivered)
	assert.ErrorIs(t, outcome.Err, wantErr)
}

func TestEmailNotifier_Notify_MissingRecipient(t *testing.T) {
	transport := &mockTransport{}
	notifier := notification.NewEmailNotifier(transport, "LinhKien5AE")

	o := sampleOrder(t)
	o.Customer.Email = ""
	outcome := notifier.Notify(context.Background(), o, order.StatusPending, order.StatusConfirmed)

	assert.False(t, outcome.Delivered)
	assert.Error(t, outcome.Err)
	assert.Empty(t, transport.sent, "nothing must be sent without a recipient")
}

// NotifyStatusChange must swallow failures entirely: it is the
// fire-and-forget entry point used by the order service.
func TestEmailNotifier_NotifyStatusChange_NeverPanicsOnFailure(t *testing.T) {
	transport := &mockTransport{
		sendFunc: func(ctx context.Context, msg notification.Message) error { return errors.New("smtp down") },
	}
	notifier := notification.NewEmailNotifier(transport, "LinhKien5AE")

	assert.NotPanics(t, func() {
		notifier.NotifyStatusChange(context.Background(), sampleOrder(t), order.StatusPending, order.StatusConfirmed)
	})
}
