package cart

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/internal/store/storetest"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

type recordingCache struct {
	entries     map[string][]Line
	gets        int
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string][]Line{}}
}

func (c *recordingCache) Get(_ context.Context, sessionID string) ([]Line, bool, error) {
	c.gets++
	lines, ok := c.entries[sessionID]
	return lines, ok, nil
}

func (c *recordingCache) Set(_ context.Context, sessionID string, lines []Line) error {
	c.entries[sessionID] = lines
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, sessionID string) error {
	delete(c.entries, sessionID)
	c.invalidated = append(c.invalidated, sessionID)
	return nil
}

type fixture struct {
	svc    Service
	store  store.Store
	bistro storetest.Bistro
}

func newFixture(t *testing.T, st store.Store, opts Options) *fixture {
	t.Helper()
	fx := &fixture{store: st, bistro: storetest.SeedBistro(t, st)}
	svc, err := NewService(st, sessionlock.NewLocal(), opts)
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func (fx *fixture) add(t *testing.T, sessionID string, menuItemID int64, qty int, addonIDs ...int64) *models.CartItem {
	t.Helper()
	item, err := fx.svc.AddToCart(context.Background(), AddItemInput{
		SessionID:  sessionID,
		MenuItemID: menuItemID,
		Quantity:   qty,
		AddonIDs:   addonIDs,
	})
	require.NoError(t, err)
	return item
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, sessionlock.NewLocal(), Options{})
	require.Error(t, err)

	_, err = NewService(storetest.Backends()[0].New(t), nil, Options{})
	require.Error(t, err)
}

func TestCartRoundTrip(t *testing.T) {
	for _, backend := range storetest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			fx := newFixture(t, backend.New(t), Options{})
			ctx := context.Background()

			added := fx.add(t, "s1", fx.bistro.Burger.ID, 2, fx.bistro.Cheese.ID)
			require.Equal(t, enums.CartItemStatusCart, added.Status)
			require.Nil(t, added.OrderID)
			require.Nil(t, added.OrderedAt)

			lines, err := fx.svc.GetCartItems(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, lines, 1)
			require.Equal(t, fx.bistro.Burger.ID, lines[0].MenuItemID)
			require.Equal(t, 2, lines[0].Quantity)
			require.Equal(t, "Burger", lines[0].MenuItem.Name)
			require.Len(t, lines[0].Addons, 1)
			require.Equal(t, "Cheese", lines[0].Addons[0].Addon.Name)
			lineTotal, err := lines[0].Total()
			require.NoError(t, err)
			require.Equal(t, money.Cents(2150), lineTotal)

			other, err := fx.svc.GetCartItems(ctx, "s2")
			require.NoError(t, err)
			require.Empty(t, other)
		})
	}
}

func TestAddToCartRepeatedAddons(t *testing.T) {
	fx := newFixture(t, storetest.Backends()[0].New(t), Options{})

	fx.add(t, "s1", fx.bistro.Burger.ID, 1, fx.bistro.Bacon.ID, fx.bistro.Bacon.ID)

	lines, err := fx.svc.GetCartItems(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Addons, 2)
	for _, addon := range lines[0].Addons {
		require.Equal(t, 1, addon.Quantity)
	}
	total, err := Total(lines)
	require.NoError(t, err)
	require.Equal(t, money.Cents(1400), total)
}

func TestAddToCartValidation(t *testing.T) {
	for _, backend := range storetest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			fx := newFixture(t, backend.New(t), Options{})
			ctx := context.Background()

			cases := []struct {
				name  string
				input AddItemInput
				code  pkgerrors.Code
			}{
				{"zero quantity", AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Burger.ID}, pkgerrors.CodeValidation},
				{"quantity above max", AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Burger.ID, Quantity: MaxQuantity + 1}, pkgerrors.CodeValidation},
				{"quantity near overflow", AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Burger.ID, Quantity: math.MaxInt64 / 500}, pkgerrors.CodeValidation},
				{"blank session", AddItemInput{SessionID: " ", MenuItemID: fx.bistro.Burger.ID, Quantity: 1}, pkgerrors.CodeValidation},
				{"missing menu item", AddItemInput{SessionID: "s1", MenuItemID: 999, Quantity: 1}, pkgerrors.CodeNotFound},
				{"missing addon", AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Burger.ID, Quantity: 1, AddonIDs: []int64{999}}, pkgerrors.CodeValidation},
				{"foreign addon", AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Burger.ID, Quantity: 1, AddonIDs: []int64{fx.bistro.Ketchup.ID}}, pkgerrors.CodeValidation},
			}
			for _, tc := range cases {
				_, err := fx.svc.AddToCart(ctx, tc.input)
				require.True(t, pkgerrors.Is(err, tc.code), "%s: got %v", tc.name, err)
			}

			items, err := fx.store.ListCartItems(ctx, store.CartItemFilter{SessionID: "s1"})
			require.NoError(t, err)
			require.Empty(t, items, "rejected adds must not leave rows behind")
		})
	}
}

func TestUpdateCartItemKeepsInstructions(t *testing.T) {
	for _, backend := range storetest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			fx := newFixture(t, backend.New(t), Options{})
			ctx := context.Background()

			note := "no onions"
			added, err := fx.svc.AddToCart(ctx, AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Burger.ID, Quantity: 1, SpecialInstructions: &note})
			require.NoError(t, err)

			updated, err := fx.svc.UpdateCartItem(ctx, added.ID, UpdateItemInput{Quantity: 5})
			require.NoError(t, err)
			require.Equal(t, 5, updated.Quantity)

			lines, err := fx.svc.GetCartItems(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, lines, 1)
			require.Equal(t, 5, lines[0].Quantity)
			require.NotNil(t, lines[0].SpecialInstructions)
			require.Equal(t, "no onions", *lines[0].SpecialInstructions)

			_, err = fx.svc.UpdateCartItem(ctx, added.ID, UpdateItemInput{Quantity: MaxQuantity + 1})
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

			_, err = fx.svc.UpdateCartItem(ctx, added.ID, UpdateItemInput{Quantity: 0})
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

			_, err = fx.svc.UpdateCartItem(ctx, 999, UpdateItemInput{Quantity: 1})
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
		})
	}
}

func TestRemoveFromCartIsIdempotent(t *testing.T) {
	for _, backend := range storetest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			fx := newFixture(t, backend.New(t), Options{})
			ctx := context.Background()
			added := fx.add(t, "s1", fx.bistro.Burger.ID, 1, fx.bistro.Cheese.ID)

			removed, err := fx.svc.RemoveFromCart(ctx, added.ID)
			require.NoError(t, err)
			require.True(t, removed)

			removed, err = fx.svc.RemoveFromCart(ctx, added.ID)
			require.NoError(t, err)
			require.False(t, removed)

			addons, err := fx.store.ListCartItemAddons(ctx, added.ID)
			require.NoError(t, err)
			require.Empty(t, addons)
		})
	}
}

func TestClearCartIsolatesSessions(t *testing.T) {
	for _, backend := range storetest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			fx := newFixture(t, backend.New(t), Options{})
			ctx := context.Background()
			fx.add(t, "s1", fx.bistro.Burger.ID, 1)
			fx.add(t, "s1", fx.bistro.Fries.ID, 2)
			fx.add(t, "s2", fx.bistro.Fries.ID, 1)

			cleared, err := fx.svc.ClearCart(ctx, "s1")
			require.NoError(t, err)
			require.True(t, cleared)

			lines, err := fx.svc.GetCartItems(ctx, "s1")
			require.NoError(t, err)
			require.Empty(t, lines)

			lines, err = fx.svc.GetCartItems(ctx, "s2")
			require.NoError(t, err)
			require.Len(t, lines, 1)

			cleared, err = fx.svc.ClearCart(ctx, "s1")
			require.NoError(t, err)
			require.True(t, cleared)
		})
	}
}

func TestOrderedItemsAreNotEditable(t *testing.T) {
	fx := newFixture(t, storetest.Backends()[0].New(t), Options{})
	ctx := context.Background()
	added := fx.add(t, "s1", fx.bistro.Burger.ID, 1)
	kept := fx.add(t, "s1", fx.bistro.Fries.ID, 1)

	orderID := int64(7)
	orderedAt := time.Now().UTC()
	ordered := *added
	ordered.Status = enums.CartItemStatusOrdered
	ordered.OrderID = &orderID
	ordered.OrderedAt = &orderedAt
	require.NoError(t, fx.store.UpdateCartItem(ctx, &ordered))

	_, err := fx.svc.UpdateCartItem(ctx, added.ID, UpdateItemInput{Quantity: 3})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = fx.svc.RemoveFromCart(ctx, added.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = fx.svc.ClearCart(ctx, "s1")
	require.NoError(t, err)

	history, err := fx.store.GetCartItem(ctx, added.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CartItemStatusOrdered, history.Status)

	_, err = fx.store.GetCartItem(ctx, kept.ID)
	require.True(t, store.IsNotFound(err))
}

func TestEndedSessionRejectsMutations(t *testing.T) {
	for _, backend := range storetest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			fx := newFixture(t, backend.New(t), Options{})
			ctx := context.Background()

			session := storetest.NewTableSession(fx.bistro.Restaurant.ID, 3, "s1", time.Now().UTC())
			require.NoError(t, fx.store.CreateTableSession(ctx, &session))
			added := fx.add(t, "s1", fx.bistro.Burger.ID, 1)

			closedAt := time.Now().UTC()
			session.Status = enums.TableSessionStatusPaid
			session.ClosedAt = &closedAt
			require.NoError(t, fx.store.UpdateTableSession(ctx, &session))

			_, err := fx.svc.AddToCart(ctx, AddItemInput{SessionID: "s1", MenuItemID: fx.bistro.Fries.ID, Quantity: 1})
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeSessionEnded), "got %v", err)

			_, err = fx.svc.UpdateCartItem(ctx, added.ID, UpdateItemInput{Quantity: 2})
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeSessionEnded))

			_, err = fx.svc.RemoveFromCart(ctx, added.ID)
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeSessionEnded))

			_, err = fx.svc.ClearCart(ctx, "s1")
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeSessionEnded))
		})
	}
}

func TestCacheFilledAndInvalidated(t *testing.T) {
	cache := newRecordingCache()
	fx := newFixture(t, storetest.Backends()[0].New(t), Options{Cache: cache})
	ctx := context.Background()

	added := fx.add(t, "s1", fx.bistro.Burger.ID, 1)
	require.Equal(t, []string{"s1"}, cache.invalidated)

	lines, err := fx.svc.GetCartItems(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Contains(t, cache.entries, "s1")

	cache.entries["s1"] = nil
	lines, err = fx.svc.GetCartItems(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, lines, "second read should be served from the cache")

	_, err = fx.svc.UpdateCartItem(ctx, added.ID, UpdateItemInput{Quantity: 4})
	require.NoError(t, err)
	require.NotContains(t, cache.entries, "s1")

	lines, err = fx.svc.GetCartItems(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 4, lines[0].Quantity)
}
