package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tableside-backend/internal/cart"
	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/sessions"
	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/events"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/metrics"
)

// Service turns carts into orders and tracks their progression.
type Service interface {
	ConvertCartToOrder(ctx context.Context, sessionID string) (*models.Order, error)
	ListOrders(ctx context.Context, sessionID string) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*Detail, error)
	UpdateOrderStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.Order, error)
}

// Detail is an order with the cart lines folded into it.
type Detail struct {
	models.Order
	Items []cart.Line `json:"items"`
}

// StatusChange is the payload of order.status_changed.
type StatusChange struct {
	Order          models.Order      `json:"order"`
	PreviousStatus enums.OrderStatus `json:"previousStatus"`
}

// Options carries the optional collaborators.
type Options struct {
	Cache     cart.Cache
	Publisher events.Publisher
	Metrics   *metrics.OrderingMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	store     store.Store
	locker    sessionlock.Locker
	cache     cart.Cache
	publisher events.Publisher
	metrics   *metrics.OrderingMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an order service backed by the provided store and locker.
func NewService(st store.Store, locker sessionlock.Locker, opts Options) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("session locker required")
	}
	svc := &service{
		store:     st,
		locker:    locker,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logg:      opts.Logger,
		now:       opts.Now,
	}
	if svc.publisher == nil {
		svc.publisher = events.Noop{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	return svc, nil
}

// ConvertCartToOrder snapshots the session's cart into a pending order. The
// snapshot, the order row, the flipped cart items and the session status all
// commit in one transaction while the session lock is held, so a second
// caller racing on the same session finds an empty cart.
func (s *service) ConvertCartToOrder(ctx context.Context, sessionID string) (*models.Order, error) {
	sessionID, err := sessions.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, sessionID)

	var order models.Order
	err = sessionlock.Do(ctx, s.locker, sessionID, func() error {
		if err := store.AtomicSession(ctx, s.store, sessionID, func(tx store.Store) error {
			return s.convert(ctx, tx, sessionID, &order)
		}); err != nil {
			return err
		}
		s.invalidateCart(ctx, sessionID)
		return nil
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeEmptyCart) {
			s.metrics.EmptyCart()
		}
		return nil, sessionlock.Translate(err)
	}

	s.metrics.OrderPlaced(order.TotalAmount)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "total": order.TotalAmount.String()}), "order placed")
	s.publish(ctx, events.Event{
		Type:       events.TypeOrderPlaced,
		SessionID:  sessionID,
		OccurredAt: order.CreatedAt,
		Data:       order,
	})
	return &order, nil
}

func (s *service) convert(ctx context.Context, tx store.Store, sessionID string, order *models.Order) error {
	session, err := sessions.EnsureOpen(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	lines, err := cart.LoadCart(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty").
			WithDetails(map[string]any{"sessionId": sessionID})
	}

	total, err := cart.Total(lines)
	if err != nil || total < 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order total out of range").
			WithDetails(map[string]any{"sessionId": sessionID})
	}

	now := s.now()
	*order = models.Order{
		SessionID:   sessionID,
		Status:      enums.OrderStatusPending,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return store.Translate(err, "order")
	}

	for _, line := range lines {
		item := line.CartItem
		orderID := order.ID
		orderedAt := now
		item.Status = enums.CartItemStatusOrdered
		item.OrderID = &orderID
		item.OrderedAt = &orderedAt
		if err := tx.UpdateCartItem(ctx, &item); err != nil {
			return store.Translate(err, "cart item")
		}
	}

	if session != nil && session.Status == enums.TableSessionStatusActive {
		session.Status = enums.TableSessionStatusOrdered
		if err := tx.UpdateTableSession(ctx, session); err != nil {
			return store.Translate(err, "table session")
		}
	}
	return nil
}

func (s *service) ListOrders(ctx context.Context, sessionID string) ([]models.Order, error) {
	sessionID, err := sessions.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrders(ctx, sessionID)
	if err != nil {
		return nil, store.Translate(err, "orders")
	}
	return orders, nil
}

func (s *service) GetOrder(ctx context.Context, id int64) (*Detail, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, store.Translate(err, "order")
	}
	lines, err := cart.LoadLines(ctx, s.store, store.CartItemFilter{OrderID: &order.ID})
	if err != nil {
		return nil, err
	}
	return &Detail{Order: order, Items: lines}, nil
}

// UpdateOrderStatus moves an order forward and mirrors the stage onto its
// cart lines.
func (s *service) UpdateOrderStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, store.Translate(err, "order")
	}

	var change StatusChange
	err = sessionlock.Do(ctx, s.locker, current.SessionID, func() error {
		return store.AtomicSession(ctx, s.store, current.SessionID, func(tx store.Store) error {
			order, err := tx.GetOrder(ctx, id)
			if err != nil {
				return store.Translate(err, "order")
			}
			if !order.Status.CanAdvanceTo(status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s back to %s", order.Status, status)).
					WithDetails(map[string]any{"from": order.Status, "to": status})
			}
			change.PreviousStatus = order.Status
			order.Status = status
			order.UpdatedAt = s.now()
			if err := tx.UpdateOrder(ctx, &order); err != nil {
				return store.Translate(err, "order")
			}

			items, err := tx.ListCartItems(ctx, store.CartItemFilter{OrderID: &order.ID})
			if err != nil {
				return store.Translate(err, "cart items")
			}
			for _, item := range items {
				item.Status = status.CartItemStatus()
				if err := tx.UpdateCartItem(ctx, &item); err != nil {
					return store.Translate(err, "cart item")
				}
			}
			change.Order = order
			return nil
		})
	})
	if err != nil {
		return nil, sessionlock.Translate(err)
	}

	if change.PreviousStatus != change.Order.Status {
		s.publish(ctx, events.Event{
			Type:       events.TypeOrderStatusChanged,
			SessionID:  change.Order.SessionID,
			OccurredAt: change.Order.UpdatedAt,
			Data:       change,
		})
	}
	return &change.Order, nil
}

func (s *service) invalidateCart(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache invalidation failed")
	}
}

func (s *service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"event_type": string(event.Type), "error": err.Error()}), "event publish failed")
	}
}
