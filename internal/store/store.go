// Package store defines the persistence contract shared by the memory and
// relational backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
)

var (
	// ErrNotFound is returned when a lookup or update targets a missing row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique key (table session id) is reused.
	ErrDuplicate = errors.New("store: duplicate key")
)

// CartItemFilter narrows ListCartItems. Zero values match everything.
type CartItemFilter struct {
	SessionID string
	Status    enums.CartItemStatus
	OrderID   *int64
}

// TableSessionFilter narrows ListTableSessions.
type TableSessionFilter struct {
	Statuses      []enums.TableSessionStatus
	CreatedBefore *time.Time
}

// Catalog covers the seeded reference data.
type Catalog interface {
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	GetRestaurant(ctx context.Context, id int64) (models.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)

	CreateMenuCategory(ctx context.Context, c *models.MenuCategory) error
	ListMenuCategories(ctx context.Context, restaurantID int64) ([]models.MenuCategory, error)

	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID int64) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error

	CreateMenuItemAddon(ctx context.Context, addon *models.MenuItemAddon) error
	GetMenuItemAddon(ctx context.Context, id int64) (models.MenuItemAddon, error)
	ListMenuItemAddons(ctx context.Context, menuItemID int64) ([]models.MenuItemAddon, error)

	CreateDeal(ctx context.Context, deal *models.Deal) error
	// ListDeals returns global deals plus the ones scoped to restaurantID.
	ListDeals(ctx context.Context, restaurantID int64) ([]models.Deal, error)
}

// Carts covers cart lines and their selected add-ons.
type Carts interface {
	CreateCartItem(ctx context.Context, item *models.CartItem) error
	GetCartItem(ctx context.Context, id int64) (models.CartItem, error)
	ListCartItems(ctx context.Context, filter CartItemFilter) ([]models.CartItem, error)
	UpdateCartItem(ctx context.Context, item *models.CartItem) error
	// DeleteCartItem removes the line and its add-ons; false when nothing matched.
	DeleteCartItem(ctx context.Context, id int64) (bool, error)

	CreateCartItemAddon(ctx context.Context, addon *models.CartItemAddon) error
	ListCartItemAddons(ctx context.Context, cartItemID int64) ([]models.CartItemAddon, error)
}

// Sessions covers table sessions and the orders placed under them.
type Sessions interface {
	CreateTableSession(ctx context.Context, s *models.TableSession) error
	GetTableSession(ctx context.Context, sessionID string) (models.TableSession, error)
	ListTableSessions(ctx context.Context, filter TableSessionFilter) ([]models.TableSession, error)
	UpdateTableSession(ctx context.Context, s *models.TableSession) error

	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ListOrders(ctx context.Context, sessionID string) ([]models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
}

// ServerCalls covers diner requests for staff.
type ServerCalls interface {
	CreateServerCall(ctx context.Context, call *models.ServerCall) error
	GetServerCall(ctx context.Context, id int64) (models.ServerCall, error)
	ListServerCalls(ctx context.Context, restaurantID int64, status enums.ServerCallStatus) ([]models.ServerCall, error)
	UpdateServerCall(ctx context.Context, call *models.ServerCall) error
}

// Store is the full persistence capability. Lists are ordered by id.
type Store interface {
	Catalog
	Carts
	Sessions
	ServerCalls

	// Atomic runs fn against a transactional view of the store. Every write
	// made through the view commits together when fn returns nil and is
	// discarded otherwise. Calling Atomic on a view runs fn on the same view.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// LockSession takes an exclusive lock on sessionID that lasts until the
	// enclosing Atomic call ends, shared by every process using the same
	// database. It fails outside Atomic on backends that need a transaction.
	LockSession(ctx context.Context, sessionID string) error
}

// AtomicSession runs fn atomically while holding the store-level lock of
// sessionID.
func AtomicSession(ctx context.Context, st Store, sessionID string, fn func(tx Store) error) error {
	return st.Atomic(ctx, func(tx Store) error {
		if err := tx.LockSession(ctx, sessionID); err != nil {
			return Translate(err, "table session lock")
		}
		return fn(tx)
	})
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate reports whether err wraps ErrDuplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
