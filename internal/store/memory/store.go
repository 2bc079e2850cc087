// Package memory is the in-process Store backend.
package memory

import (
	"context"
	"sync"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
)

// Store owns its tables exclusively. Single calls hold the mutex for their
// duration; Atomic holds the write lock for all of fn and reverts fn's writes
// when it fails or panics.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &view{st: s.st, journal: &journal{}}
	seq := s.st.seq
	committed := false
	defer func() {
		if !committed {
			tx.journal.rollback()
			s.st.seq = seq
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// LockSession is a no-op outside Atomic; single calls are already exclusive.
func (s *Store) LockSession(context.Context, string) error {
	return nil
}

func (s *Store) read() (*view, func()) {
	s.mu.RLock()
	return &view{st: s.st}, s.mu.RUnlock
}

func (s *Store) write() (*view, func()) {
	s.mu.Lock()
	return &view{st: s.st}, s.mu.Unlock
}

func (s *Store) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	v, done := s.write()
	defer done()
	return v.CreateRestaurant(ctx, r)
}

func (s *Store) GetRestaurant(ctx context.Context, id int64) (models.Restaurant, error) {
	v, done := s.read()
	defer done()
	return v.GetRestaurant(ctx, id)
}

func (s *Store) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	v, done := s.read()
	defer done()
	return v.ListRestaurants(ctx)
}

func (s *Store) CreateMenuCategory(ctx context.Context, c *models.MenuCategory) error {
	v, done := s.write()
	defer done()
	return v.CreateMenuCategory(ctx, c)
}

func (s *Store) ListMenuCategories(ctx context.Context, restaurantID int64) ([]models.MenuCategory, error) {
	v, done := s.read()
	defer done()
	return v.ListMenuCategories(ctx, restaurantID)
}

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	v, done := s.write()
	defer done()
	return v.CreateMenuItem(ctx, item)
}

func (s *Store) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	v, done := s.read()
	defer done()
	return v.GetMenuItem(ctx, id)
}

func (s *Store) ListMenuItems(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	v, done := s.read()
	defer done()
	return v.ListMenuItems(ctx, restaurantID)
}

func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	v, done := s.write()
	defer done()
	return v.UpdateMenuItem(ctx, item)
}

func (s *Store) CreateMenuItemAddon(ctx context.Context, addon *models.MenuItemAddon) error {
	v, done := s.write()
	defer done()
	return v.CreateMenuItemAddon(ctx, addon)
}

func (s *Store) GetMenuItemAddon(ctx context.Context, id int64) (models.MenuItemAddon, error) {
	v, done := s.read()
	defer done()
	return v.GetMenuItemAddon(ctx, id)
}

func (s *Store) ListMenuItemAddons(ctx context.Context, menuItemID int64) ([]models.MenuItemAddon, error) {
	v, done := s.read()
	defer done()
	return v.ListMenuItemAddons(ctx, menuItemID)
}

func (s *Store) CreateDeal(ctx context.Context, deal *models.Deal) error {
	v, done := s.write()
	defer done()
	return v.CreateDeal(ctx, deal)
}

func (s *Store) ListDeals(ctx context.Context, restaurantID int64) ([]models.Deal, error) {
	v, done := s.read()
	defer done()
	return v.ListDeals(ctx, restaurantID)
}

func (s *Store) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	v, done := s.write()
	defer done()
	return v.CreateCartItem(ctx, item)
}

func (s *Store) GetCartItem(ctx context.Context, id int64) (models.CartItem, error) {
	v, done := s.read()
	defer done()
	return v.GetCartItem(ctx, id)
}

func (s *Store) ListCartItems(ctx context.Context, filter store.CartItemFilter) ([]models.CartItem, error) {
	v, done := s.read()
	defer done()
	return v.ListCartItems(ctx, filter)
}

func (s *Store) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	v, done := s.write()
	defer done()
	return v.UpdateCartItem(ctx, item)
}

func (s *Store) DeleteCartItem(ctx context.Context, id int64) (bool, error) {
	v, done := s.write()
	defer done()
	return v.DeleteCartItem(ctx, id)
}

func (s *Store) CreateCartItemAddon(ctx context.Context, addon *models.CartItemAddon) error {
	v, done := s.write()
	defer done()
	return v.CreateCartItemAddon(ctx, addon)
}

func (s *Store) ListCartItemAddons(ctx context.Context, cartItemID int64) ([]models.CartItemAddon, error) {
	v, done := s.read()
	defer done()
	return v.ListCartItemAddons(ctx, cartItemID)
}

func (s *Store) CreateTableSession(ctx context.Context, ts *models.TableSession) error {
	v, done := s.write()
	defer done()
	return v.CreateTableSession(ctx, ts)
}

func (s *Store) GetTableSession(ctx context.Context, sessionID string) (models.TableSession, error) {
	v, done := s.read()
	defer done()
	return v.GetTableSession(ctx, sessionID)
}

func (s *Store) ListTableSessions(ctx context.Context, filter store.TableSessionFilter) ([]models.TableSession, error) {
	v, done := s.read()
	defer done()
	return v.ListTableSessions(ctx, filter)
}

func (s *Store) UpdateTableSession(ctx context.Context, ts *models.TableSession) error {
	v, done := s.write()
	defer done()
	return v.UpdateTableSession(ctx, ts)
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	v, done := s.write()
	defer done()
	return v.CreateOrder(ctx, o)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	v, done := s.read()
	defer done()
	return v.GetOrder(ctx, id)
}

func (s *Store) ListOrders(ctx context.Context, sessionID string) ([]models.Order, error) {
	v, done := s.read()
	defer done()
	return v.ListOrders(ctx, sessionID)
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	v, done := s.write()
	defer done()
	return v.UpdateOrder(ctx, o)
}

func (s *Store) CreateServerCall(ctx context.Context, call *models.ServerCall) error {
	v, done := s.write()
	defer done()
	return v.CreateServerCall(ctx, call)
}

func (s *Store) GetServerCall(ctx context.Context, id int64) (models.ServerCall, error) {
	v, done := s.read()
	defer done()
	return v.GetServerCall(ctx, id)
}

func (s *Store) ListServerCalls(ctx context.Context, restaurantID int64, status enums.ServerCallStatus) ([]models.ServerCall, error) {
	v, done := s.read()
	defer done()
	return v.ListServerCalls(ctx, restaurantID, status)
}

func (s *Store) UpdateServerCall(ctx context.Context, call *models.ServerCall) error {
	v, done := s.write()
	defer done()
	return v.UpdateServerCall(ctx, call)
}
