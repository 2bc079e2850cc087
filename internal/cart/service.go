package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/sessions"
	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/metrics"
)

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 99

// Service exposes the cart of a session.
type Service interface {
	AddToCart(ctx context.Context, input AddItemInput) (*models.CartItem, error)
	GetCartItems(ctx context.Context, sessionID string) ([]Line, error)
	UpdateCartItem(ctx context.Context, id int64, input UpdateItemInput) (*models.CartItem, error)
	RemoveFromCart(ctx context.Context, id int64) (bool, error)
	ClearCart(ctx context.Context, sessionID string) (bool, error)
}

// AddItemInput describes one new cart line. Repeated add-on ids select the
// add-on several times.
type AddItemInput struct {
	SessionID           string
	MenuItemID          int64
	Quantity            int
	SpecialInstructions *string
	AddonIDs            []int64
}

// UpdateItemInput replaces the quantity; nil instructions keep the old value.
type UpdateItemInput struct {
	Quantity            int
	SpecialInstructions *string
}

// Options carries the optional collaborators.
type Options struct {
	Cache   Cache
	Metrics *metrics.OrderingMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	store   store.Store
	locker  sessionlock.Locker
	cache   Cache
	metrics *metrics.OrderingMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a cart service backed by the provided store and locker.
func NewService(st store.Store, locker sessionlock.Locker, opts Options) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("session locker required")
	}
	svc := &service{
		store:   st,
		locker:  locker,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logg:    opts.Logger,
		now:     opts.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	return svc, nil
}

func (s *service) AddToCart(ctx context.Context, input AddItemInput) (*models.CartItem, error) {
	sessionID, err := sessions.ValidateSessionID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	var created models.CartItem
	err = s.mutate(ctx, sessionID, func(tx store.Store) error {
		if _, err := sessions.EnsureOpen(ctx, tx, sessionID); err != nil {
			return err
		}
		menuItem, err := tx.GetMenuItem(ctx, input.MenuItemID)
		if err != nil {
			return store.Translate(err, "menu item")
		}
		if err := validateAddons(ctx, tx, menuItem.ID, input.AddonIDs); err != nil {
			return err
		}

		created = models.CartItem{
			SessionID:           sessionID,
			MenuItemID:          menuItem.ID,
			Quantity:            input.Quantity,
			SpecialInstructions: input.SpecialInstructions,
			Status:              enums.CartItemStatusCart,
			AddedAt:             s.now(),
		}
		if err := tx.CreateCartItem(ctx, &created); err != nil {
			return store.Translate(err, "cart item")
		}
		for _, addonID := range input.AddonIDs {
			selected := models.CartItemAddon{CartItemID: created.ID, AddonID: addonID, Quantity: 1}
			if err := tx.CreateCartItemAddon(ctx, &selected); err != nil {
				return store.Translate(err, "cart item addon")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutation("add")
	return &created, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity)).
			WithDetails(map[string]any{"quantity": quantity})
	}
	return nil
}

func validateAddons(ctx context.Context, tx store.Store, menuItemID int64, addonIDs []int64) error {
	for _, addonID := range addonIDs {
		addon, err := tx.GetMenuItemAddon(ctx, addonID)
		if err != nil {
			if store.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("addon %d does not exist", addonID)).
					WithDetails(map[string]any{"addonId": addonID})
			}
			return store.Translate(err, "menu item addon")
		}
		if addon.MenuItemID != menuItemID {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("addon %d does not belong to menu item %d", addonID, menuItemID)).
				WithDetails(map[string]any{"addonId": addonID, "menuItemId": menuItemID})
		}
	}
	return nil
}

func (s *service) GetCartItems(ctx context.Context, sessionID string) ([]Line, error) {
	sessionID, err := sessions.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return LoadCart(ctx, s.store, sessionID)
	}

	ctx = s.logg.WithSessionID(ctx, sessionID)
	if lines, ok, err := s.cache.Get(ctx, sessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache read failed")
	} else if ok {
		return lines, nil
	}

	// Filling under the lock keeps a concurrent mutation from being
	// overwritten by a projection read before it committed.
	var lines []Line
	err = sessionlock.Do(ctx, s.locker, sessionID, func() error {
		var loadErr error
		lines, loadErr = LoadCart(ctx, s.store, sessionID)
		if loadErr != nil {
			return loadErr
		}
		if err := s.cache.Set(ctx, sessionID, lines); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache write failed")
		}
		return nil
	})
	if err != nil {
		return nil, sessionlock.Translate(err)
	}
	return lines, nil
}

func (s *service) UpdateCartItem(ctx context.Context, id int64, input UpdateItemInput) (*models.CartItem, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	current, err := s.store.GetCartItem(ctx, id)
	if err != nil {
		return nil, store.Translate(err, "cart item")
	}

	var updated models.CartItem
	err = s.mutate(ctx, current.SessionID, func(tx store.Store) error {
		item, err := s.editable(ctx, tx, id)
		if err != nil {
			return err
		}
		item.Quantity = input.Quantity
		if input.SpecialInstructions != nil {
			item.SpecialInstructions = input.SpecialInstructions
		}
		if err := tx.UpdateCartItem(ctx, &item); err != nil {
			return store.Translate(err, "cart item")
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutation("update")
	return &updated, nil
}

func (s *service) RemoveFromCart(ctx context.Context, id int64) (bool, error) {
	current, err := s.store.GetCartItem(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, store.Translate(err, "cart item")
	}

	var removed bool
	err = s.mutate(ctx, current.SessionID, func(tx store.Store) error {
		if _, err := s.editable(ctx, tx, id); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return nil
			}
			return err
		}
		deleted, err := tx.DeleteCartItem(ctx, id)
		if err != nil {
			return store.Translate(err, "cart item")
		}
		removed = deleted
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.metrics.CartMutation("remove")
	}
	return removed, nil
}

func (s *service) ClearCart(ctx context.Context, sessionID string) (bool, error) {
	sessionID, err := sessions.ValidateSessionID(sessionID)
	if err != nil {
		return false, err
	}
	err = s.mutate(ctx, sessionID, func(tx store.Store) error {
		if _, err := sessions.EnsureOpen(ctx, tx, sessionID); err != nil {
			return err
		}
		items, err := tx.ListCartItems(ctx, store.CartItemFilter{SessionID: sessionID, Status: enums.CartItemStatusCart})
		if err != nil {
			return store.Translate(err, "cart items")
		}
		for _, item := range items {
			if _, err := tx.DeleteCartItem(ctx, item.ID); err != nil {
				return store.Translate(err, "cart item")
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	s.metrics.CartMutation("clear")
	return true, nil
}

// editable re-reads the item inside the transaction and checks that both the
// item and its session still accept edits.
func (s *service) editable(ctx context.Context, tx store.Store, id int64) (models.CartItem, error) {
	item, err := tx.GetCartItem(ctx, id)
	if err != nil {
		return models.CartItem{}, store.Translate(err, "cart item")
	}
	if _, err := sessions.EnsureOpen(ctx, tx, item.SessionID); err != nil {
		return models.CartItem{}, err
	}
	if !item.InCart() {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart item %d is already %s", item.ID, item.Status)).
			WithDetails(map[string]any{"cartItemId": item.ID, "status": item.Status})
	}
	return item, nil
}

// mutate runs fn atomically under the session lock and drops the cached
// projection once the write committed.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(tx store.Store) error) error {
	err := sessionlock.Do(ctx, s.locker, sessionID, func() error {
		if err := store.AtomicSession(ctx, s.store, sessionID, fn); err != nil {
			return err
		}
		s.invalidate(ctx, sessionID)
		return nil
	})
	return sessionlock.Translate(err)
}

func (s *service) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		ctx = s.logg.WithSessionID(ctx, sessionID)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache invalidation failed")
	}
}
