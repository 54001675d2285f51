package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/messaging"
)

type brokerRecorder struct {
	mu       sync.Mutex
	channels []string
}

func (b *brokerRecorder) Publish(_ context.Context, channel string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	return nil
}

func (b *brokerRecorder) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *brokerRecorder) Close() error { return nil }

func (b *brokerRecorder) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.channels))
	copy(out, b.channels)
	return out
}

type emailRecorder struct {
	mu   sync.Mutex
	sent int
}

func (e *emailRecorder) SendCustom(context.Context, string, string, string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent++
	return nil
}

func TestChannelForRouting(t *testing.T) {
	assert.Equal(t, messaging.ChannelPaymentEvents, channelFor("payment_received"))
	assert.Equal(t, messaging.ChannelPaymentEvents, channelFor("payment_confirmed"))
	assert.Equal(t, messaging.ChannelAppointmentEvents, channelFor("appointment_booked"))
	assert.Equal(t, messaging.ChannelAppointmentEvents, channelFor("appointment_cancelled"))
	assert.Equal(t, messaging.ChannelAppointmentEvents, channelFor("welcome"))
}

func TestDispatchPublishesOnPaymentChannel(t *testing.T) {
	broker := &brokerRecorder{}
	emails := &emailRecorder{}
	svc := NewService(emails, broker, nil, logger.NewLogger(nil))

	svc.Dispatch(&model.Notification{
		Recipient: "joy@example.com",
		Subject:   "Payment received",
		Content:   "...",
		Event:     "payment_received",
	})

	require.Eventually(t, func() bool {
		return len(broker.published()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, messaging.ChannelPaymentEvents, broker.published()[0])
}
