package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/testdb"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return &GormRepo{DB: testdb.Open(t)}
}

func seedUser(t *testing.T, r *GormRepo, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Birthdate:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Role:         models.RoleUser,
	}
	_, err := r.CreateUser(context.Background(), u, "", 0)
	require.NoError(t, err)
	return u
}

func seedProduct(t *testing.T, r *GormRepo, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func stockOf(t *testing.T, r *GormRepo, id uuid.UUID) int {
	t.Helper()
	p, err := r.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreateUser_DuplicateAndReferral(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)

	referrer := seedUser(t, r, "ana")

	dup := &models.User{Username: "ana", Email: "other@example.com", PasswordHash: "x", Role: models.RoleUser}
	_, err := r.CreateUser(ctx, dup, "", 0)
	require.ErrorIs(t, err, ErrDuplicate)

	u := &models.User{Username: "beto", Email: "beto@example.com", PasswordHash: "x", Role: models.RoleUser, ReferredBy: "ana"}
	credited, err := r.CreateUser(ctx, u, "ana", 50)
	require.NoError(t, err)
	assert.True(t, credited)

	ghost := &models.User{Username: "carla", Email: "carla@example.com", PasswordHash: "x", Role: models.RoleUser}
	credited, err = r.CreateUser(ctx, ghost, "nobody", 50)
	require.NoError(t, err)
	assert.False(t, credited)

	got, err := r.UserByID(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Points)

	refs, err := r.UsersReferredBy(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "beto", refs[0].Username)
}

func TestUserByLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	seedUser(t, r, "ana")

	byName, err := r.UserByLogin(ctx, "ana")
	require.NoError(t, err)
	byEmail, err := r.UserByLogin(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byEmail.ID)

	_, err = r.UserByLogin(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser_Twice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	require.NoError(t, r.AddAddress(ctx, &models.Address{UserID: u.ID, Street: "Calle 1", City: "Santiago"}))

	require.NoError(t, r.DeleteUser(ctx, u.ID))
	require.ErrorIs(t, r.DeleteUser(ctx, u.ID), ErrNotFound)

	var n int64
	require.NoError(t, r.DB.Model(&models.Address{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAddresses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	other := seedUser(t, r, "beto")

	home := &models.Address{UserID: u.ID, Alias: "casa", Street: "Calle 1", City: "Santiago"}
	work := &models.Address{UserID: u.ID, Alias: "pega", Street: "Calle 2", City: "Santiago"}
	require.NoError(t, r.AddAddress(ctx, home))
	require.NoError(t, r.AddAddress(ctx, work))
	require.ErrorIs(t, r.AddAddress(ctx, &models.Address{UserID: uuid.New(), Street: "x", City: "y"}), ErrNotFound)

	require.ErrorIs(t, r.DeleteAddress(ctx, other.ID, home.ID), ErrNotFound)
	require.NoError(t, r.DeleteAddress(ctx, u.ID, home.ID))

	got, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "pega", got.Addresses[0].Alias)
}

func TestPlaceOrder_ReservesStockAndSnapshots(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	catan := seedProduct(t, r, "Catan", "29990", 10)
	mouse := seedProduct(t, r, "Mouse", "49990.50", 3)

	o, err := r.PlaceOrder(ctx, u.ID, []OrderLine{
		{ProductID: catan.ID, Quantity: 2},
		{ProductID: mouse.ID, Quantity: 1},
	}, "Calle 1, Santiago", models.OrderStatusPaid)
	require.NoError(t, err)

	assert.True(t, o.Total.Equal(decimal.RequireFromString("109970.50")), o.Total.String())
	assert.Equal(t, 8, stockOf(t, r, catan.ID))
	assert.Equal(t, 2, stockOf(t, r, mouse.ID))

	_, err = r.UpdateProduct(ctx, catan.ID, map[string]any{"price": decimal.RequireFromString("1"), "name": "Catan 2"})
	require.NoError(t, err)

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		if it.ProductID == catan.ID {
			assert.Equal(t, "Catan", it.Name)
			assert.True(t, it.Price.Equal(decimal.RequireFromString("29990")))
		}
	}
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	plenty := seedProduct(t, r, "Catan", "100", 10)
	scarce := seedProduct(t, r, "PS5", "500", 1)

	_, err := r.PlaceOrder(ctx, u.ID, []OrderLine{
		{ProductID: plenty.ID, Quantity: 3},
		{ProductID: scarce.ID, Quantity: 2},
	}, "addr", models.OrderStatusPaid)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "PS5")

	_, err = r.PlaceOrder(ctx, u.ID, []OrderLine{
		{ProductID: plenty.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	}, "addr", models.OrderStatusPaid)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 10, stockOf(t, r, plenty.ID))
	assert.Equal(t, 1, stockOf(t, r, scarce.ID))

	orders, err := r.ListOrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

// The SQLite test database has one connection, so the goroutines are
// serialised and this checks the outcome rather than the race itself. On
// Postgres the conditional decrement in reserve is what decides the winner.
func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	a := seedUser(t, r, "ana")
	b := seedUser(t, r, "beto")
	p := seedProduct(t, r, "PS5", "549990", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, u := range []*models.User{a, b} {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			_, errs[i] = r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 1}}, "addr", models.OrderStatusPaid)
		}(i, u)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 0, stockOf(t, r, p.ID))
}

func TestUpdateOrderStatus_Restock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	o, err := r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "addr", models.OrderStatusPaid)
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, r, p.ID))

	_, err = r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, r, p.ID))

	_, err = r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, r, p.ID))

	// leaving cancelled never takes stock back
	got, err := r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusPending, true, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, 5, stockOf(t, r, p.ID))

	veto := errors.New("nope")
	_, err = r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusShipped, true, func(*models.Order) error { return veto })
	require.ErrorIs(t, err, veto)

	_, err = r.UpdateOrderStatus(ctx, uuid.New(), models.OrderStatusPaid, true, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderStatus_NoRestock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	o, err := r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "addr", models.OrderStatusPaid)
	require.NoError(t, err)

	for _, next := range []models.OrderStatus{models.OrderStatusCancelled, models.OrderStatusPaid, models.OrderStatusDelivered} {
		got, err := r.UpdateOrderStatus(ctx, o.ID, next, false, nil)
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status)
		assert.Equal(t, 3, stockOf(t, r, p.ID), next)
	}
}

// The test database has a single connection, so the two transactions run one
// after the other. The second sees cancelled already and changes nothing.
func TestUpdateOrderStatus_ConcurrentCancelRestocksOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	o, err := r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "addr", models.OrderStatusPaid)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrStale)
		}
	}
	assert.Equal(t, 5, stockOf(t, r, p.ID))

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
}

func TestUpdateOrderStatus_StaleWriteRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	o, err := r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "addr", models.OrderStatusPaid)
	require.NoError(t, err)

	testdb.BeforeFirstUpdate(t, r.DB, "orders", func(tx *gorm.DB) {
		require.NoError(t, tx.Exec("UPDATE orders SET status = ? WHERE id = ?", models.OrderStatusShipped, o.ID).Error)
	})

	_, err = r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true, nil)
	require.ErrorIs(t, err, ErrStale)
	assert.Equal(t, 3, stockOf(t, r, p.ID))

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
}

func TestDeleteOrder_NoRestock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	o, err := r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "addr", models.OrderStatusPaid)
	require.NoError(t, err)

	require.NoError(t, r.DeleteOrder(ctx, o.ID))
	require.ErrorIs(t, r.DeleteOrder(ctx, o.ID), ErrNotFound)
	assert.Equal(t, 3, stockOf(t, r, p.ID))
}

func TestListAllOrders_JoinsOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	_, err := r.PlaceOrder(ctx, u.ID, []OrderLine{{ProductID: p.ID, Quantity: 1}}, "addr", models.OrderStatusPaid)
	require.NoError(t, err)

	orders, err := r.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].User)
	assert.Equal(t, "ana", orders[0].User.Username)
	assert.Equal(t, "ana@example.com", orders[0].User.Email)
}

func TestAddReview_RecomputesRating(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	u := seedUser(t, r, "ana")
	p := seedProduct(t, r, "Catan", "100", 5)

	_, err := r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, Rating: 5})
	require.NoError(t, err)
	got, err := r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, Rating: 2})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Rating, 0.001)
	assert.Len(t, got.Reviews, 2)

	_, err = r.AddReview(ctx, &models.Review{ProductID: uuid.New(), UserID: u.ID, Rating: 2})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	require.ErrorIs(t, r.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestOffers_ActiveAndExclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)

	none, err := r.ActiveOffer(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	older := &models.Offer{Title: "A", Description: "d", Image: "i", Price: decimal.NewFromInt(10), Active: true}
	require.NoError(t, r.CreateOffer(ctx, older, false))
	newer := &models.Offer{Title: "B", Description: "d", Image: "i", Price: decimal.NewFromInt(10), Active: true}
	newer.CreatedAt = older.CreatedAt.Add(time.Second)
	require.NoError(t, r.CreateOffer(ctx, newer, false))

	active, err := r.ActiveOffer(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "B", active.Title)

	_, err = r.UpdateOffer(ctx, older.ID, map[string]any{"title": "A2"}, true)
	require.NoError(t, err)

	offers, err := r.ListOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "B", offers[0].Title)
	for _, o := range offers {
		if o.ID == newer.ID {
			assert.False(t, o.Active)
		}
	}

	_, err = r.UpdateOffer(ctx, uuid.New(), map[string]any{"title": "x"}, false)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, r.DeleteOffer(ctx, older.ID))
	require.ErrorIs(t, r.DeleteOffer(ctx, older.ID), ErrNotFound)
}

func TestEvents_SortedByDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)

	late := &models.Event{Title: "late", Date: time.Date(2025, 12, 4, 18, 0, 0, 0, time.UTC), Location: "x", Excerpt: "e", Details: "d"}
	early := &models.Event{Title: "early", Date: time.Date(2025, 10, 11, 20, 30, 0, 0, time.UTC), Location: "x", Excerpt: "e", Details: "d"}
	require.NoError(t, r.CreateEvent(ctx, late))
	require.NoError(t, r.CreateEvent(ctx, early))

	events, err := r.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "early", events[0].Title)

	late.Location = "Arena"
	require.NoError(t, r.SaveEvent(ctx, late))
	got, err := r.GetEvent(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arena", got.Location)

	require.NoError(t, r.DeleteEvent(ctx, late.ID))
	require.ErrorIs(t, r.DeleteEvent(ctx, late.ID), ErrNotFound)
	_, err = r.GetEvent(ctx, late.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
