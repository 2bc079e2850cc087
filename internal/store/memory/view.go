package memory

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
)

// view implements store.Store directly over a state with no locking. The
// owning Store holds its mutex for the lifetime of a view. Inside Atomic the
// journal collects the undo steps of every write.
type view struct {
	st      *state
	journal *journal
}

var _ store.Store = (*view)(nil)

func (v *view) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(v)
}

// LockSession is a no-op: the owning Store already holds its write lock.
func (v *view) LockSession(context.Context, string) error {
	return nil
}

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, store.ErrNotFound)
}

func (v *view) CreateRestaurant(_ context.Context, r *models.Restaurant) error {
	v.st.seq.restaurant++
	r.ID = v.st.seq.restaurant
	put(v.journal, v.st.restaurants, r.ID, *r)
	return nil
}

func (v *view) GetRestaurant(_ context.Context, id int64) (models.Restaurant, error) {
	r, ok := v.st.restaurants[id]
	if !ok {
		return models.Restaurant{}, notFound("restaurant", id)
	}
	return r, nil
}

func (v *view) ListRestaurants(_ context.Context) ([]models.Restaurant, error) {
	return sortedValues(v.st.restaurants, nil), nil
}

func (v *view) CreateMenuCategory(_ context.Context, c *models.MenuCategory) error {
	v.st.seq.category++
	c.ID = v.st.seq.category
	put(v.journal, v.st.categories, c.ID, *c)
	return nil
}

func (v *view) ListMenuCategories(_ context.Context, restaurantID int64) ([]models.MenuCategory, error) {
	return sortedValues(v.st.categories, func(c models.MenuCategory) bool {
		return c.RestaurantID == restaurantID
	}), nil
}

func (v *view) CreateMenuItem(_ context.Context, item *models.MenuItem) error {
	v.st.seq.menuItem++
	item.ID = v.st.seq.menuItem
	put(v.journal, v.st.menuItems, item.ID, *item)
	return nil
}

func (v *view) GetMenuItem(_ context.Context, id int64) (models.MenuItem, error) {
	item, ok := v.st.menuItems[id]
	if !ok {
		return models.MenuItem{}, notFound("menu item", id)
	}
	return item, nil
}

func (v *view) ListMenuItems(_ context.Context, restaurantID int64) ([]models.MenuItem, error) {
	return sortedValues(v.st.menuItems, func(i models.MenuItem) bool {
		return i.RestaurantID == restaurantID
	}), nil
}

func (v *view) UpdateMenuItem(_ context.Context, item *models.MenuItem) error {
	if _, ok := v.st.menuItems[item.ID]; !ok {
		return notFound("menu item", item.ID)
	}
	put(v.journal, v.st.menuItems, item.ID, *item)
	return nil
}

func (v *view) CreateMenuItemAddon(_ context.Context, addon *models.MenuItemAddon) error {
	v.st.seq.addon++
	addon.ID = v.st.seq.addon
	put(v.journal, v.st.addons, addon.ID, *addon)
	return nil
}

func (v *view) GetMenuItemAddon(_ context.Context, id int64) (models.MenuItemAddon, error) {
	addon, ok := v.st.addons[id]
	if !ok {
		return models.MenuItemAddon{}, notFound("menu item addon", id)
	}
	return addon, nil
}

func (v *view) ListMenuItemAddons(_ context.Context, menuItemID int64) ([]models.MenuItemAddon, error) {
	return sortedValues(v.st.addons, func(a models.MenuItemAddon) bool {
		return a.MenuItemID == menuItemID
	}), nil
}

func (v *view) CreateDeal(_ context.Context, deal *models.Deal) error {
	v.st.seq.deal++
	deal.ID = v.st.seq.deal
	put(v.journal, v.st.deals, deal.ID, *deal)
	return nil
}

func (v *view) ListDeals(_ context.Context, restaurantID int64) ([]models.Deal, error) {
	return sortedValues(v.st.deals, func(d models.Deal) bool {
		return d.VisibleFor(restaurantID)
	}), nil
}

func (v *view) CreateCartItem(_ context.Context, item *models.CartItem) error {
	v.st.seq.cartItem++
	item.ID = v.st.seq.cartItem
	put(v.journal, v.st.cartItems, item.ID, *item)
	return nil
}

func (v *view) GetCartItem(_ context.Context, id int64) (models.CartItem, error) {
	item, ok := v.st.cartItems[id]
	if !ok {
		return models.CartItem{}, notFound("cart item", id)
	}
	return item, nil
}

func (v *view) ListCartItems(_ context.Context, filter store.CartItemFilter) ([]models.CartItem, error) {
	return sortedValues(v.st.cartItems, func(i models.CartItem) bool {
		if filter.SessionID != "" && i.SessionID != filter.SessionID {
			return false
		}
		if filter.Status != "" && i.Status != filter.Status {
			return false
		}
		if filter.OrderID != nil && (i.OrderID == nil || *i.OrderID != *filter.OrderID) {
			return false
		}
		return true
	}), nil
}

func (v *view) UpdateCartItem(_ context.Context, item *models.CartItem) error {
	if _, ok := v.st.cartItems[item.ID]; !ok {
		return notFound("cart item", item.ID)
	}
	put(v.journal, v.st.cartItems, item.ID, *item)
	return nil
}

func (v *view) DeleteCartItem(_ context.Context, id int64) (bool, error) {
	if _, ok := v.st.cartItems[id]; !ok {
		return false, nil
	}
	remove(v.journal, v.st.cartItems, id)
	for addonID, addon := range v.st.cartItemAddons {
		if addon.CartItemID == id {
			remove(v.journal, v.st.cartItemAddons, addonID)
		}
	}
	return true, nil
}

func (v *view) CreateCartItemAddon(_ context.Context, addon *models.CartItemAddon) error {
	v.st.seq.cartItemAddon++
	addon.ID = v.st.seq.cartItemAddon
	put(v.journal, v.st.cartItemAddons, addon.ID, *addon)
	return nil
}

func (v *view) ListCartItemAddons(_ context.Context, cartItemID int64) ([]models.CartItemAddon, error) {
	return sortedValues(v.st.cartItemAddons, func(a models.CartItemAddon) bool {
		return a.CartItemID == cartItemID
	}), nil
}

func (v *view) CreateTableSession(_ context.Context, s *models.TableSession) error {
	if _, exists := v.st.sessionIndex[s.SessionID]; exists {
		return fmt.Errorf("table session %q: %w", s.SessionID, store.ErrDuplicate)
	}
	v.st.seq.session++
	s.ID = v.st.seq.session
	put(v.journal, v.st.sessions, s.ID, *s)
	put(v.journal, v.st.sessionIndex, s.SessionID, s.ID)
	return nil
}

func (v *view) GetTableSession(_ context.Context, sessionID string) (models.TableSession, error) {
	id, ok := v.st.sessionIndex[sessionID]
	if !ok {
		return models.TableSession{}, notFound("table session", sessionID)
	}
	return v.st.sessions[id], nil
}

func (v *view) ListTableSessions(_ context.Context, filter store.TableSessionFilter) ([]models.TableSession, error) {
	return sortedValues(v.st.sessions, func(s models.TableSession) bool {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, s.Status) {
			return false
		}
		if filter.CreatedBefore != nil && !s.CreatedAt.Before(*filter.CreatedBefore) {
			return false
		}
		return true
	}), nil
}

func containsStatus(statuses []enums.TableSessionStatus, status enums.TableSessionStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func (v *view) UpdateTableSession(_ context.Context, s *models.TableSession) error {
	existing, ok := v.st.sessions[s.ID]
	if !ok {
		return notFound("table session", s.ID)
	}
	if existing.SessionID != s.SessionID {
		if _, taken := v.st.sessionIndex[s.SessionID]; taken {
			return fmt.Errorf("table session %q: %w", s.SessionID, store.ErrDuplicate)
		}
		remove(v.journal, v.st.sessionIndex, existing.SessionID)
		put(v.journal, v.st.sessionIndex, s.SessionID, s.ID)
	}
	put(v.journal, v.st.sessions, s.ID, *s)
	return nil
}

func (v *view) CreateOrder(_ context.Context, o *models.Order) error {
	v.st.seq.order++
	o.ID = v.st.seq.order
	put(v.journal, v.st.orders, o.ID, *o)
	return nil
}

func (v *view) GetOrder(_ context.Context, id int64) (models.Order, error) {
	o, ok := v.st.orders[id]
	if !ok {
		return models.Order{}, notFound("order", id)
	}
	return o, nil
}

func (v *view) ListOrders(_ context.Context, sessionID string) ([]models.Order, error) {
	return sortedValues(v.st.orders, func(o models.Order) bool {
		return o.SessionID == sessionID
	}), nil
}

func (v *view) UpdateOrder(_ context.Context, o *models.Order) error {
	if _, ok := v.st.orders[o.ID]; !ok {
		return notFound("order", o.ID)
	}
	put(v.journal, v.st.orders, o.ID, *o)
	return nil
}

func (v *view) CreateServerCall(_ context.Context, call *models.ServerCall) error {
	v.st.seq.serverCall++
	call.ID = v.st.seq.serverCall
	put(v.journal, v.st.serverCalls, call.ID, *call)
	return nil
}

func (v *view) GetServerCall(_ context.Context, id int64) (models.ServerCall, error) {
	call, ok := v.st.serverCalls[id]
	if !ok {
		return models.ServerCall{}, notFound("server call", id)
	}
	return call, nil
}

func (v *view) ListServerCalls(_ context.Context, restaurantID int64, status enums.ServerCallStatus) ([]models.ServerCall, error) {
	return sortedValues(v.st.serverCalls, func(c models.ServerCall) bool {
		return c.RestaurantID == restaurantID && (status == "" || c.Status == status)
	}), nil
}

func (v *view) UpdateServerCall(_ context.Context, call *models.ServerCall) error {
	if _, ok := v.st.serverCalls[call.ID]; !ok {
		return notFound("server call", call.ID)
	}
	put(v.journal, v.st.serverCalls, call.ID, *call)
	return nil
}
