// Package storetest holds the behavioural contract every store backend must
// satisfy, plus helpers to build seeded stores for service tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CatalogLookups", func(t *testing.T) { testCatalogLookups(t, newStore(t)) })
	t.Run("MenuItemUpdate", func(t *testing.T) { testMenuItemUpdate(t, newStore(t)) })
	t.Run("DealVisibility", func(t *testing.T) { testDealVisibility(t, newStore(t)) })
	t.Run("CartItemLifecycle", func(t *testing.T) { testCartItemLifecycle(t, newStore(t)) })
	t.Run("CartItemFilters", func(t *testing.T) { testCartItemFilters(t, newStore(t)) })
	t.Run("DuplicateTableSession", func(t *testing.T) { testDuplicateTableSession(t, newStore(t)) })
	t.Run("TableSessionFilters", func(t *testing.T) { testTableSessionFilters(t, newStore(t)) })
	t.Run("Orders", func(t *testing.T) { testOrders(t, newStore(t)) })
	t.Run("ServerCalls", func(t *testing.T) { testServerCalls(t, newStore(t)) })
	t.Run("AtomicCommit", func(t *testing.T) { testAtomicCommit(t, newStore(t)) })
	t.Run("AtomicRollback", func(t *testing.T) { testAtomicRollback(t, newStore(t)) })
	t.Run("AtomicSession", func(t *testing.T) { testAtomicSession(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
}

func testCatalogLookups(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)

	got, err := st.GetRestaurant(ctx, fx.Restaurant.ID)
	require.NoError(t, err)
	require.Equal(t, "Bistro", got.Name)
	require.True(t, got.IsTrending)

	_, err = st.GetRestaurant(ctx, fx.Restaurant.ID+100)
	require.ErrorIs(t, err, store.ErrNotFound)

	restaurants, err := st.ListRestaurants(ctx)
	require.NoError(t, err)
	require.Len(t, restaurants, 1)

	categories, err := st.ListMenuCategories(ctx, fx.Restaurant.ID)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Less(t, categories[0].ID, categories[1].ID)

	items, err := st.ListMenuItems(ctx, fx.Restaurant.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	item, err := st.GetMenuItem(ctx, fx.Burger.ID)
	require.NoError(t, err)
	require.Equal(t, money.Cents(1000), item.Price)
	require.NotNil(t, item.Description)
	require.Equal(t, "Smash burger", *item.Description)

	_, err = st.GetMenuItem(ctx, 9999)
	require.ErrorIs(t, err, store.ErrNotFound)

	addons, err := st.ListMenuItemAddons(ctx, fx.Burger.ID)
	require.NoError(t, err)
	require.Len(t, addons, 2)

	addon, err := st.GetMenuItemAddon(ctx, fx.Cheese.ID)
	require.NoError(t, err)
	require.Equal(t, money.Cents(150), addon.Price)
	require.Equal(t, fx.Burger.ID, addon.MenuItemID)

	_, err = st.GetMenuItemAddon(ctx, 9999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testMenuItemUpdate(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)

	item := fx.Burger
	item.Upvotes = 3
	item.Downvotes = 1
	item.Votes = 4
	item.Rating = 3.75
	require.NoError(t, st.UpdateMenuItem(ctx, &item))

	got, err := st.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.Upvotes)
	require.Equal(t, 1, got.Downvotes)
	require.InDelta(t, 3.75, got.Rating, 0.0001)
	require.Equal(t, fx.Burger.Name, got.Name)
}

func testDealVisibility(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)

	other := models.Restaurant{Name: "Noodle Bar", Cuisine: "Asian"}
	require.NoError(t, st.CreateRestaurant(ctx, &other))
	require.NoError(t, st.CreateDeal(ctx, &models.Deal{RestaurantID: &other.ID, Title: "Noodle night", Description: "2 for 1"}))

	deals, err := st.ListDeals(ctx, fx.Restaurant.ID)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	for _, deal := range deals {
		require.True(t, deal.VisibleFor(fx.Restaurant.ID))
	}

	deals, err = st.ListDeals(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, deals, 2)
}

func testCartItemLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)

	note := "no onions"
	item := models.CartItem{
		SessionID:           "s1",
		MenuItemID:          fx.Burger.ID,
		Quantity:            2,
		SpecialInstructions: &note,
		Status:              enums.CartItemStatusCart,
		AddedAt:             time.Now().UTC(),
	}
	require.NoError(t, st.CreateCartItem(ctx, &item))
	require.NotZero(t, item.ID)

	for i := 0; i < 2; i++ {
		require.NoError(t, st.CreateCartItemAddon(ctx, &models.CartItemAddon{CartItemID: item.ID, AddonID: fx.Cheese.ID, Quantity: 1}))
	}
	addons, err := st.ListCartItemAddons(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, addons, 2)

	got, err := st.GetCartItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)
	require.Equal(t, "no onions", *got.SpecialInstructions)
	require.Nil(t, got.OrderID)
	require.Nil(t, got.OrderedAt)
	require.WithinDuration(t, item.AddedAt, got.AddedAt, time.Second)

	deleted, err := st.DeleteCartItem(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = st.DeleteCartItem(ctx, item.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	addons, err = st.ListCartItemAddons(ctx, item.ID)
	require.NoError(t, err)
	require.Empty(t, addons)

	_, err = st.GetCartItem(ctx, item.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testCartItemFilters(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)
	now := time.Now().UTC()

	open := models.CartItem{SessionID: "s1", MenuItemID: fx.Burger.ID, Quantity: 1, Status: enums.CartItemStatusCart, AddedAt: now}
	require.NoError(t, st.CreateCartItem(ctx, &open))
	other := models.CartItem{SessionID: "s2", MenuItemID: fx.Burger.ID, Quantity: 1, Status: enums.CartItemStatusCart, AddedAt: now}
	require.NoError(t, st.CreateCartItem(ctx, &other))

	order := models.Order{SessionID: "s1", Status: enums.OrderStatusPending, TotalAmount: 1000, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, st.CreateOrder(ctx, &order))
	ordered := models.CartItem{
		SessionID: "s1", MenuItemID: fx.Fries.ID, Quantity: 1,
		Status: enums.CartItemStatusOrdered, OrderID: &order.ID, AddedAt: now, OrderedAt: &now,
	}
	require.NoError(t, st.CreateCartItem(ctx, &ordered))

	items, err := st.ListCartItems(ctx, store.CartItemFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = st.ListCartItems(ctx, store.CartItemFilter{SessionID: "s1", Status: enums.CartItemStatusCart})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, open.ID, items[0].ID)

	items, err = st.ListCartItems(ctx, store.CartItemFilter{OrderID: &order.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, ordered.ID, items[0].ID)
	require.NotNil(t, items[0].OrderedAt)

	items, err = st.ListCartItems(ctx, store.CartItemFilter{SessionID: "nobody"})
	require.NoError(t, err)
	require.Empty(t, items)
}

func testDuplicateTableSession(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)

	first := NewTableSession(fx.Restaurant.ID, 4, "dup", time.Now().UTC())
	require.NoError(t, st.CreateTableSession(ctx, &first))

	second := NewTableSession(fx.Restaurant.ID, 5, "dup", time.Now().UTC())
	err := st.CreateTableSession(ctx, &second)
	require.Error(t, err)
	require.True(t, store.IsDuplicate(err), "expected ErrDuplicate, got %v", err)

	got, err := st.GetTableSession(ctx, "dup")
	require.NoError(t, err)
	require.Equal(t, 4, got.TableNumber)

	_, err = st.GetTableSession(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTableSessionFilters(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)
	now := time.Now().UTC()

	old := NewTableSession(fx.Restaurant.ID, 1, "old", now.Add(-3*time.Hour))
	require.NoError(t, st.CreateTableSession(ctx, &old))
	paid := NewTableSession(fx.Restaurant.ID, 2, "paid", now.Add(-3*time.Hour))
	paid.Status = enums.TableSessionStatusPaid
	require.NoError(t, st.CreateTableSession(ctx, &paid))
	fresh := NewTableSession(fx.Restaurant.ID, 3, "fresh", now)
	require.NoError(t, st.CreateTableSession(ctx, &fresh))

	cutoff := now.Add(-time.Hour)
	rows, err := st.ListTableSessions(ctx, store.TableSessionFilter{
		Statuses:      []enums.TableSessionStatus{enums.TableSessionStatusActive, enums.TableSessionStatusOrdered},
		CreatedBefore: &cutoff,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "old", rows[0].SessionID)

	closedAt := now
	total := money.Cents(2150)
	method := enums.PaymentMethodCard
	old.Status = enums.TableSessionStatusClosed
	old.ClosedAt = &closedAt
	old.TotalAmount = &total
	old.PaymentMethod = &method
	require.NoError(t, st.UpdateTableSession(ctx, &old))

	got, err := st.GetTableSession(ctx, "old")
	require.NoError(t, err)
	require.Equal(t, enums.TableSessionStatusClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
	require.Equal(t, money.Cents(2150), *got.TotalAmount)
	require.Equal(t, enums.PaymentMethodCard, *got.PaymentMethod)
}

func testOrders(t *testing.T, st store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	for _, session := range []string{"s1", "s1", "s2"} {
		o := models.Order{SessionID: session, Status: enums.OrderStatusPending, TotalAmount: 500, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, st.CreateOrder(ctx, &o))
	}

	orders, err := st.ListOrders(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Less(t, orders[0].ID, orders[1].ID)

	o := orders[0]
	o.Status = enums.OrderStatusReady
	require.NoError(t, st.UpdateOrder(ctx, &o))

	got, err := st.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusReady, got.Status)
	require.Equal(t, money.Cents(500), got.TotalAmount)

	_, err = st.GetOrder(ctx, 9999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testServerCalls(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)
	now := time.Now().UTC()

	a := models.ServerCall{RestaurantID: fx.Restaurant.ID, TableNumber: 1, Status: enums.ServerCallStatusPending, CreatedAt: now}
	require.NoError(t, st.CreateServerCall(ctx, &a))
	b := models.ServerCall{RestaurantID: fx.Restaurant.ID, TableNumber: 2, Status: enums.ServerCallStatusPending, CreatedAt: now}
	require.NoError(t, st.CreateServerCall(ctx, &b))

	b.Status = enums.ServerCallStatusCompleted
	require.NoError(t, st.UpdateServerCall(ctx, &b))

	pending, err := st.ListServerCalls(ctx, fx.Restaurant.ID, enums.ServerCallStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, a.ID, pending[0].ID)

	all, err := st.ListServerCalls(ctx, fx.Restaurant.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := st.GetServerCall(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ServerCallStatusCompleted, got.Status)
}

func testAtomicCommit(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)
	now := time.Now().UTC()

	var orderID int64
	err := st.Atomic(ctx, func(tx store.Store) error {
		item := models.CartItem{SessionID: "s1", MenuItemID: fx.Burger.ID, Quantity: 1, Status: enums.CartItemStatusCart, AddedAt: now}
		if err := tx.CreateCartItem(ctx, &item); err != nil {
			return err
		}
		o := models.Order{SessionID: "s1", Status: enums.OrderStatusPending, TotalAmount: 1000, CreatedAt: now, UpdatedAt: now}
		if err := tx.CreateOrder(ctx, &o); err != nil {
			return err
		}
		orderID = o.ID
		item.Status = enums.CartItemStatusOrdered
		item.OrderID = &o.ID
		item.OrderedAt = &now
		return tx.Atomic(ctx, func(nested store.Store) error {
			return nested.UpdateCartItem(ctx, &item)
		})
	})
	require.NoError(t, err)

	items, err := st.ListCartItems(ctx, store.CartItemFilter{OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, enums.CartItemStatusOrdered, items[0].Status)
}

func testAtomicSession(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)
	now := time.Now().UTC()

	err := store.AtomicSession(ctx, st, "s1", func(tx store.Store) error {
		// Taking the same session lock again in one transaction must not block.
		if err := tx.LockSession(ctx, "s1"); err != nil {
			return err
		}
		item := models.CartItem{SessionID: "s1", MenuItemID: fx.Burger.ID, Quantity: 2, Status: enums.CartItemStatusCart, AddedAt: now}
		return tx.CreateCartItem(ctx, &item)
	})
	require.NoError(t, err)

	items, err := st.ListCartItems(ctx, store.CartItemFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = store.AtomicSession(ctx, st, "s1", func(tx store.Store) error {
		item := models.CartItem{SessionID: "s1", MenuItemID: fx.Burger.ID, Quantity: 1, Status: enums.CartItemStatusCart, AddedAt: now}
		if err := tx.CreateCartItem(ctx, &item); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	items, err = st.ListCartItems(ctx, store.CartItemFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func testAtomicRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	fx := SeedBistro(t, st)
	boom := errors.New("boom")

	err := st.Atomic(ctx, func(tx store.Store) error {
		item := models.CartItem{SessionID: "s1", MenuItemID: fx.Burger.ID, Quantity: 1, Status: enums.CartItemStatusCart, AddedAt: time.Now().UTC()}
		if err := tx.CreateCartItem(ctx, &item); err != nil {
			return err
		}
		ts := NewTableSession(fx.Restaurant.ID, 1, "s1", time.Now().UTC())
		if err := tx.CreateTableSession(ctx, &ts); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	items, err := st.ListCartItems(ctx, store.CartItemFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = st.GetTableSession(ctx, "s1")
	require.ErrorIs(t, err, store.ErrNotFound)

	ts := NewTableSession(fx.Restaurant.ID, 1, "s1", time.Now().UTC())
	require.NoError(t, st.CreateTableSession(ctx, &ts))
}

func testUpdateMissing(t *testing.T, st store.Store) {
	ctx := context.Background()

	require.ErrorIs(t, st.UpdateCartItem(ctx, &models.CartItem{ID: 42, SessionID: "s", MenuItemID: 1, Quantity: 1, Status: enums.CartItemStatusCart}), store.ErrNotFound)
	require.ErrorIs(t, st.UpdateOrder(ctx, &models.Order{ID: 42, SessionID: "s", Status: enums.OrderStatusPending}), store.ErrNotFound)
	require.ErrorIs(t, st.UpdateTableSession(ctx, &models.TableSession{ID: 42, SessionID: "s", RestaurantID: 1, TableNumber: 1, Status: enums.TableSessionStatusActive}), store.ErrNotFound)
	require.ErrorIs(t, st.UpdateMenuItem(ctx, &models.MenuItem{ID: 42, Name: "ghost"}), store.ErrNotFound)
	require.ErrorIs(t, st.UpdateServerCall(ctx, &models.ServerCall{ID: 42, Status: enums.ServerCallStatusPending}), store.ErrNotFound)
}
