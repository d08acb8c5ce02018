package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/testdb"
)

func TestPlaceOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 5)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 2}}, "Calle 1, Santiago")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "Calle 1, Santiago", o.ShippingAddress)

	p, err := e.catalog.GetProduct(ctx, catan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	assert.True(t, sum.Equal(o.Total))
	assert.Contains(t, e.events.types(), "order_placed")
}

func TestPlaceOrder_Validation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 1)

	tests := []struct {
		name    string
		items   []CartLine
		address string
		wantErr error
	}{
		{name: "empty cart", items: nil, address: "x", wantErr: ErrValidation},
		{name: "zero quantity", items: []CartLine{{ProductID: catan.ID}}, address: "x", wantErr: ErrValidation},
		{name: "missing product id", items: []CartLine{{Quantity: 1}}, address: "x", wantErr: ErrValidation},
		{name: "no address saved", items: []CartLine{{ProductID: catan.ID, Quantity: 1}}, wantErr: ErrValidation},
		{name: "unknown product", items: []CartLine{{ProductID: uuid.New(), Quantity: 1}}, address: "x", wantErr: ErrNotFound},
		{name: "not enough stock", items: []CartLine{{ProductID: catan.ID, Quantity: 2}}, address: "x", wantErr: ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.orders.PlaceOrder(ctx, ana, tt.items, tt.address)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	p, err := e.catalog.GetProduct(ctx, catan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestPlaceOrder_DefaultsToSavedAddress(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 1)

	_, err := e.auth.AddAddress(ctx, ana, AddressInput{Street: "Av. Siempre Viva 742", City: "Santiago"})
	require.NoError(t, err)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 1}}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "Av. Siempre Viva 742, Santiago", o.ShippingAddress)
}

func TestPlaceOrder_LastUnitRace(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	a := e.register(t, "ana")
	b := e.register(t, "beto")
	ps5 := e.product(t, "PS5", "549990", 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, who := range []Principal{a, b} {
		wg.Add(1)
		go func(i int, who Principal) {
			defer wg.Done()
			_, results[i] = e.orders.PlaceOrder(ctx, who, []CartLine{{ProductID: ps5.ID, Quantity: 1}}, "x")
		}(i, who)
	}
	wg.Wait()

	var failures int
	for _, err := range results {
		if err != nil {
			require.True(t, errors.Is(err, ErrInsufficientStock), err)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	p, err := e.catalog.GetProduct(ctx, ps5.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestListOrders(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	beto := e.register(t, "beto")
	catan := e.product(t, "Catan", "1000", 10)

	_, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 1}}, "x")
	require.NoError(t, err)
	_, err = e.orders.PlaceOrder(ctx, beto, []CartLine{{ProductID: catan.ID, Quantity: 1}}, "x")
	require.NoError(t, err)

	mine, err := e.orders.ListMine(ctx, ana)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ana.UserID, mine[0].UserID)

	_, err = e.orders.ListAll(ctx, ana)
	require.ErrorIs(t, err, ErrForbidden)

	all, err := e.orders.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetStatus_Permissive(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 10)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 4}}, "x")
	require.NoError(t, err)

	_, err = e.orders.SetStatus(ctx, admin, o.ID, "pending")
	require.NoError(t, err)
	got, err := e.orders.SetStatus(ctx, admin, o.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)

	_, err = e.orders.SetStatus(ctx, admin, o.ID, "cancelled")
	require.NoError(t, err)
	p, err := e.catalog.GetProduct(ctx, catan.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock)

	_, err = e.orders.SetStatus(ctx, admin, o.ID, "lost")
	require.ErrorIs(t, err, ErrValidation)
	_, err = e.orders.SetStatus(ctx, ana, o.ID, "paid")
	require.ErrorIs(t, err, ErrForbidden)
	_, err = e.orders.SetStatus(ctx, admin, uuid.New(), "paid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatus_Strict(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.orders.Policy = PolicyStrict
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 10)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 1}}, "x")
	require.NoError(t, err)

	_, err = e.orders.SetStatus(ctx, admin, o.ID, "delivered")
	require.ErrorIs(t, err, ErrInvalidTransition)

	for _, s := range []string{"shipped", "delivered"} {
		_, err = e.orders.SetStatus(ctx, admin, o.ID, s)
		require.NoError(t, err, s)
	}
	_, err = e.orders.SetStatus(ctx, admin, o.ID, "cancelled")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetStatus_StrictCancelRestocks(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.orders.Policy = PolicyStrict
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 10)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 3}}, "x")
	require.NoError(t, err)
	assert.Equal(t, 7, e.indexer.docs[catan.ID].Stock)

	got, err := e.orders.SetStatus(ctx, admin, o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)

	p, err := e.catalog.GetProduct(ctx, catan.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 10, e.indexer.docs[catan.ID].Stock)

	_, err = e.orders.SetStatus(ctx, admin, o.ID, "pending")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

// A cancelled order moved back to paid must not touch stock that was
// meanwhile sold to someone else.
func TestSetStatus_PermissiveUncancelKeepsStock(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	beto := e.register(t, "beto")
	ps5 := e.product(t, "PS5", "549990", 1)

	first, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: ps5.ID, Quantity: 1}}, "x")
	require.NoError(t, err)
	_, err = e.orders.SetStatus(ctx, admin, first.ID, "cancelled")
	require.NoError(t, err)

	p, err := e.catalog.GetProduct(ctx, ps5.ID)
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
	_, err = e.orders.PlaceOrder(ctx, beto, []CartLine{{ProductID: ps5.ID, Quantity: 1}}, "x")
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := e.orders.SetStatus(ctx, admin, first.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	p, err = e.catalog.GetProduct(ctx, ps5.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestSetStatus_ConcurrentChangeIsConflict(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.orders.Policy = PolicyStrict
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 10)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 2}}, "x")
	require.NoError(t, err)

	testdb.BeforeFirstUpdate(t, e.repo.DB, "orders", func(tx *gorm.DB) {
		require.NoError(t, tx.Exec("UPDATE orders SET status = ? WHERE id = ?", models.OrderStatusCancelled, o.ID).Error)
	})

	_, err = e.orders.SetStatus(ctx, admin, o.ID, "cancelled")
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "retry")

	p, err := e.catalog.GetProduct(ctx, catan.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
	assert.NotContains(t, e.events.types(), "order_status_changed")
}

func TestDeleteOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	ana := e.register(t, "ana")
	catan := e.product(t, "Catan", "1000", 10)

	o, err := e.orders.PlaceOrder(ctx, ana, []CartLine{{ProductID: catan.ID, Quantity: 1}}, "x")
	require.NoError(t, err)

	require.ErrorIs(t, e.orders.DeleteOrder(ctx, ana, o.ID), ErrForbidden)
	require.NoError(t, e.orders.DeleteOrder(ctx, admin, o.ID))
	require.ErrorIs(t, e.orders.DeleteOrder(ctx, admin, o.ID), ErrNotFound)
}

func TestParseStatusPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseStatusPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPermissive, p)
	p, err = ParseStatusPolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)
	_, err = ParseStatusPolicy("chaos")
	require.Error(t, err)
}
