package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/internal/store/memory"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
)

// Bistro is a small seeded catalog: one restaurant, two categories, a burger
// with two add-ons and fries with one.
type Bistro struct {
	Restaurant models.Restaurant
	Mains      models.MenuCategory
	Sides      models.MenuCategory
	Burger     models.MenuItem
	Fries      models.MenuItem
	Cheese     models.MenuItemAddon
	Bacon      models.MenuItemAddon
	Ketchup    models.MenuItemAddon
}

// SeedBistro writes the Bistro catalog into st.
func SeedBistro(t testing.TB, st store.Store) Bistro {
	t.Helper()
	ctx := context.Background()

	var fx Bistro
	fx.Restaurant = models.Restaurant{Name: "Bistro", Cuisine: "American", Rating: 4.5, VotePercentage: 92, IsTrending: true}
	require.NoError(t, st.CreateRestaurant(ctx, &fx.Restaurant))

	fx.Mains = models.MenuCategory{RestaurantID: fx.Restaurant.ID, Name: "Mains", Order: 1}
	require.NoError(t, st.CreateMenuCategory(ctx, &fx.Mains))
	fx.Sides = models.MenuCategory{RestaurantID: fx.Restaurant.ID, Name: "Sides", Order: 2}
	require.NoError(t, st.CreateMenuCategory(ctx, &fx.Sides))

	desc := "Smash burger"
	fx.Burger = models.MenuItem{RestaurantID: fx.Restaurant.ID, CategoryID: fx.Mains.ID, Name: "Burger", Description: &desc, Price: 1000}
	require.NoError(t, st.CreateMenuItem(ctx, &fx.Burger))
	fx.Fries = models.MenuItem{RestaurantID: fx.Restaurant.ID, CategoryID: fx.Sides.ID, Name: "Fries", Price: 450}
	require.NoError(t, st.CreateMenuItem(ctx, &fx.Fries))

	fx.Cheese = models.MenuItemAddon{MenuItemID: fx.Burger.ID, Name: "Cheese", Price: 150, Category: "topping", MaxSelections: 1}
	require.NoError(t, st.CreateMenuItemAddon(ctx, &fx.Cheese))
	fx.Bacon = models.MenuItemAddon{MenuItemID: fx.Burger.ID, Name: "Bacon", Price: 200, Category: "topping", MaxSelections: 1}
	require.NoError(t, st.CreateMenuItemAddon(ctx, &fx.Bacon))
	fx.Ketchup = models.MenuItemAddon{MenuItemID: fx.Fries.ID, Name: "Ketchup", Price: 0, Category: "sauce", MaxSelections: 2}
	require.NoError(t, st.CreateMenuItemAddon(ctx, &fx.Ketchup))

	require.NoError(t, st.CreateDeal(ctx, &models.Deal{Title: "Happy hour", Description: "Half-price sides", IsGlobal: true}))
	require.NoError(t, st.CreateDeal(ctx, &models.Deal{RestaurantID: &fx.Restaurant.ID, Title: "Burger Tuesday", Description: "Free cheese"}))

	return fx
}

// NewTableSession builds an active session row.
func NewTableSession(restaurantID int64, table int, sessionID string, createdAt time.Time) models.TableSession {
	return models.TableSession{
		SessionID:    sessionID,
		RestaurantID: restaurantID,
		TableNumber:  table,
		Status:       enums.TableSessionStatusActive,
		CreatedAt:    createdAt,
	}
}

// Backend names a store factory for table-driven service tests.
type Backend struct {
	Name string
	New  Factory
}

// Backends returns the memory and sqlite backends.
func Backends() []Backend {
	return []Backend{
		{Name: "memory", New: func(*testing.T) store.Store { return memory.New() }},
		{Name: "sqlite", New: func(t *testing.T) store.Store { return NewSQLite(t) }},
	}
}
