// Package sqlstore is the relational Store backend built on gorm. It runs on
// postgres in production and on sqlite for local use and tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
)

// sessionLockClass is the first key of the two-key advisory lock, reserving a
// keyspace for table sessions.
const sessionLockClass = 7401

var errNoTransaction = errors.New("requires an Atomic transaction")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store is bound either to the shared connection or to one open transaction.
type Store struct {
	conn *gorm.DB
	tx   txRunner
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New binds a Store to the client connection.
func New(client *db.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{conn: client.DB(), tx: client}, nil
}

// db returns the connection bound to ctx.
func (s *Store) db(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.conn
	}
	return s.conn.WithContext(ctx)
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(&Store{conn: tx, tx: s.tx, inTx: true})
	})
}

// LockSession takes a transaction-scoped postgres advisory lock keyed by the
// session id. Sqlite admits one writer per database, so there it is a no-op.
func (s *Store) LockSession(ctx context.Context, sessionID string) error {
	if !s.inTx {
		return fmt.Errorf("lock session %q: %w", sessionID, errNoTransaction)
	}
	if s.conn.Dialector.Name() != "postgres" {
		return nil
	}
	err := s.db(ctx).Exec("SELECT pg_advisory_xact_lock(?, hashtext(?))", sessionLockClass, sessionID).Error
	if err != nil {
		return fmt.Errorf("lock session %q: %w", sessionID, err)
	}
	return nil
}

// translate maps driver errors onto the store sentinels.
func translate(err error, entity string, key any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %v: %w", entity, key, store.ErrNotFound)
	case db.IsUniqueViolation(err, ""):
		return fmt.Errorf("%s %v: %w", entity, key, store.ErrDuplicate)
	default:
		return fmt.Errorf("%s %v: %w", entity, key, err)
	}
}

func first[T any](conn *gorm.DB, entity string, key any, query string, args ...any) (T, error) {
	var row T
	err := conn.Where(query, args...).Take(&row).Error
	return row, translate(err, entity, key)
}

func create[T any](conn *gorm.DB, entity string, row *T) error {
	return translate(conn.Create(row).Error, entity, "create")
}

// update writes every column of row, matched by its primary key.
func update[T any](conn *gorm.DB, entity string, id int64, row *T) error {
	res := conn.Model(row).Select("*").Updates(row)
	if res.Error != nil {
		return translate(res.Error, entity, id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	return create(s.db(ctx), "restaurant", r)
}

func (s *Store) GetRestaurant(ctx context.Context, id int64) (models.Restaurant, error) {
	return first[models.Restaurant](s.db(ctx), "restaurant", id, "id = ?", id)
}

func (s *Store) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var rows []models.Restaurant
	err := s.db(ctx).Order("id ASC").Find(&rows).Error
	return rows, translate(err, "restaurants", "list")
}

func (s *Store) CreateMenuCategory(ctx context.Context, c *models.MenuCategory) error {
	return create(s.db(ctx), "menu category", c)
}

func (s *Store) ListMenuCategories(ctx context.Context, restaurantID int64) ([]models.MenuCategory, error) {
	var rows []models.MenuCategory
	err := s.db(ctx).Where("restaurant_id = ?", restaurantID).Order("id ASC").Find(&rows).Error
	return rows, translate(err, "menu categories", restaurantID)
}

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return create(s.db(ctx), "menu item", item)
}

func (s *Store) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	return first[models.MenuItem](s.db(ctx), "menu item", id, "id = ?", id)
}

func (s *Store) ListMenuItems(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	err := s.db(ctx).Where("restaurant_id = ?", restaurantID).Order("id ASC").Find(&rows).Error
	return rows, translate(err, "menu items", restaurantID)
}

func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return update(s.db(ctx), "menu item", item.ID, item)
}

func (s *Store) CreateMenuItemAddon(ctx context.Context, addon *models.MenuItemAddon) error {
	return create(s.db(ctx), "menu item addon", addon)
}

func (s *Store) GetMenuItemAddon(ctx context.Context, id int64) (models.MenuItemAddon, error) {
	return first[models.MenuItemAddon](s.db(ctx), "menu item addon", id, "id = ?", id)
}

func (s *Store) ListMenuItemAddons(ctx context.Context, menuItemID int64) ([]models.MenuItemAddon, error) {
	var rows []models.MenuItemAddon
	err := s.db(ctx).Where("menu_item_id = ?", menuItemID).Order("id ASC").Find(&rows).Error
	return rows, translate(err, "menu item addons", menuItemID)
}

func (s *Store) CreateDeal(ctx context.Context, deal *models.Deal) error {
	return create(s.db(ctx), "deal", deal)
}

func (s *Store) ListDeals(ctx context.Context, restaurantID int64) ([]models.Deal, error) {
	var rows []models.Deal
	err := s.db(ctx).
		Where("is_global = ? OR restaurant_id = ?", true, restaurantID).
		Order("id ASC").
		Find(&rows).Error
	return rows, translate(err, "deals", restaurantID)
}

func (s *Store) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return create(s.db(ctx), "cart item", item)
}

func (s *Store) GetCartItem(ctx context.Context, id int64) (models.CartItem, error) {
	return first[models.CartItem](s.db(ctx), "cart item", id, "id = ?", id)
}

func (s *Store) ListCartItems(ctx context.Context, filter store.CartItemFilter) ([]models.CartItem, error) {
	q := s.db(ctx).Model(&models.CartItem{})
	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderID != nil {
		q = q.Where("order_id = ?", *filter.OrderID)
	}
	var rows []models.CartItem
	err := q.Order("id ASC").Find(&rows).Error
	return rows, translate(err, "cart items", filter.SessionID)
}

func (s *Store) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	return update(s.db(ctx), "cart item", item.ID, item)
}

func (s *Store) DeleteCartItem(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.Atomic(ctx, func(tx store.Store) error {
		conn := tx.(*Store).db(ctx)
		if err := conn.Where("cart_item_id = ?", id).Delete(&models.CartItemAddon{}).Error; err != nil {
			return translate(err, "cart item addons", id)
		}
		res := conn.Where("id = ?", id).Delete(&models.CartItem{})
		if res.Error != nil {
			return translate(res.Error, "cart item", id)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (s *Store) CreateCartItemAddon(ctx context.Context, addon *models.CartItemAddon) error {
	return create(s.db(ctx), "cart item addon", addon)
}

func (s *Store) ListCartItemAddons(ctx context.Context, cartItemID int64) ([]models.CartItemAddon, error) {
	var rows []models.CartItemAddon
	err := s.db(ctx).Where("cart_item_id = ?", cartItemID).Order("id ASC").Find(&rows).Error
	return rows, translate(err, "cart item addons", cartItemID)
}

func (s *Store) CreateTableSession(ctx context.Context, ts *models.TableSession) error {
	return translate(s.db(ctx).Create(ts).Error, "table session", ts.SessionID)
}

func (s *Store) GetTableSession(ctx context.Context, sessionID string) (models.TableSession, error) {
	return first[models.TableSession](s.db(ctx), "table session", sessionID, "session_id = ?", sessionID)
}

func (s *Store) ListTableSessions(ctx context.Context, filter store.TableSessionFilter) ([]models.TableSession, error) {
	q := s.db(ctx).Model(&models.TableSession{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at < ?", *filter.CreatedBefore)
	}
	var rows []models.TableSession
	err := q.Order("id ASC").Find(&rows).Error
	return rows, translate(err, "table sessions", "list")
}

func (s *Store) UpdateTableSession(ctx context.Context, ts *models.TableSession) error {
	return update(s.db(ctx), "table session", ts.ID, ts)
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	return create(s.db(ctx), "order", o)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	return first[models.Order](s.db(ctx), "order", id, "id = ?", id)
}

func (s *Store) ListOrders(ctx context.Context, sessionID string) ([]models.Order, error) {
	var rows []models.Order
	err := s.db(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&rows).Error
	return rows, translate(err, "orders", sessionID)
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	return update(s.db(ctx), "order", o.ID, o)
}

func (s *Store) CreateServerCall(ctx context.Context, call *models.ServerCall) error {
	return create(s.db(ctx), "server call", call)
}

func (s *Store) GetServerCall(ctx context.Context, id int64) (models.ServerCall, error) {
	return first[models.ServerCall](s.db(ctx), "server call", id, "id = ?", id)
}

func (s *Store) ListServerCalls(ctx context.Context, restaurantID int64, status enums.ServerCallStatus) ([]models.ServerCall, error) {
	q := s.db(ctx).Where("restaurant_id = ?", restaurantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.ServerCall
	err := q.Order("id ASC").Find(&rows).Error
	return rows, translate(err, "server calls", restaurantID)
}

func (s *Store) UpdateServerCall(ctx context.Context, call *models.ServerCall) error {
	return update(s.db(ctx), "server call", call.ID, call)
}
