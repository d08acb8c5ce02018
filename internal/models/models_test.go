package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeOn(t *testing.T) {
	t.Parallel()

	now := date(2025, time.June, 15)
	tests := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{name: "birthday today", birth: date(2007, time.June, 15), want: 18},
		{name: "birthday tomorrow", birth: date(2007, time.June, 16), want: 17},
		{name: "birthday next month", birth: date(2007, time.July, 1), want: 17},
		{name: "birthday passed", birth: date(2007, time.January, 31), want: 18},
		{name: "leap day", birth: date(2004, time.February, 29), want: 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeOn(tt.birth, now))
		})
	}
}

func TestOrderStatus_CanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, OrderStatusPending.CanTransition(OrderStatusPaid))
	assert.True(t, OrderStatusPaid.CanTransition(OrderStatusShipped))
	assert.True(t, OrderStatusPaid.CanTransition(OrderStatusCancelled))
	assert.True(t, OrderStatusShipped.CanTransition(OrderStatusDelivered))
	assert.True(t, OrderStatusDelivered.CanTransition(OrderStatusDelivered))

	assert.False(t, OrderStatusPending.CanTransition(OrderStatusDelivered))
	assert.False(t, OrderStatusShipped.CanTransition(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransition(OrderStatusPaid))
	assert.False(t, OrderStatusDelivered.CanTransition(OrderStatusPending))

	assert.False(t, OrderStatus("lost").Valid())
	assert.True(t, Role("admin").Valid())
	assert.False(t, Role("root").Valid())
}

func TestOrderItem_JSON(t *testing.T) {
	t.Parallel()

	item := OrderItem{Name: "Catan", Price: decimal.RequireFromString("29990.50"), Quantity: 2}
	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("59981")))

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":29990.5`)
}

func TestAddress_Line(t *testing.T) {
	t.Parallel()

	a := Address{Street: "Av. Siempre Viva 742", City: "Santiago", Region: "RM", PostalCode: "8320000"}
	assert.Equal(t, "Av. Siempre Viva 742, Santiago, RM 8320000", a.Line())
	assert.Equal(t, "Calle 1, Concepción", Address{Street: "Calle 1", City: "Concepción"}.Line())
}
