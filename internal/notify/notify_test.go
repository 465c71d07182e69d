package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"salesops-backend/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestVerifiedConfirmed(t *testing.T) {
	row := &models.OrderRow{OrderNo: "so-1", Customer: "Acme [Pune]", Item: "it01", Color: "red"}
	ev := VerifiedConfirmed("", row)

	assert.Equal(t, TypeVerifiedConfirmed, ev.Type)
	assert.Equal(t, "SO-1|ACME|IT01|RED", ev.Key)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.At.IsZero())

	ev2 := VerifiedConfirmed("K", nil)
	assert.Equal(t, "K", ev2.Key)
	assert.NotEqual(t, ev.ID, ev2.ID)
}

func TestBus_SubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b []string
	unA := bus.Subscribe(func(ev Event) { a = append(a, ev.Key) })
	unB := bus.Subscribe(func(ev Event) { b = append(b, ev.Key) })
	assert.Equal(t, 2, bus.Len())

	require.NoError(t, bus.Publish(context.Background(), Event{Key: "k1"}))
	unA()
	unA() // idempotent
	require.NoError(t, bus.Publish(context.Background(), Event{Key: "k2"}))
	unB()

	assert.Equal(t, []string{"k1"}, a)
	assert.Equal(t, []string{"k1", "k2"}, b)
	assert.Equal(t, 0, bus.Len())
}

func TestRedisNotifier_FallsBackToLocalDelivery(t *testing.T) {
	n := NewRedisNotifier(nil, "orders-sync", nil)
	defer n.Close()

	var got []Event
	unsubscribe := n.Subscribe(func(ev Event) { got = append(got, ev) })
	defer unsubscribe()

	require.NoError(t, n.Publish(context.Background(), VerifiedConfirmed("K1", nil)))
	require.Len(t, got, 1)
	assert.Equal(t, "K1", got[0].Key)
}
