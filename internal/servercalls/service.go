package servercalls

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

// Service records diner requests for staff and their handling.
type Service interface {
	CallServer(ctx context.Context, restaurantID int64, tableNumber int) (*models.ServerCall, error)
	ListServerCalls(ctx context.Context, restaurantID int64, status enums.ServerCallStatus) ([]models.ServerCall, error)
	UpdateServerCallStatus(ctx context.Context, id int64, status enums.ServerCallStatus) (*models.ServerCall, error)
}

// Limiter is a fixed-window counter, satisfied by the redis client.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Throttle caps calls per table. A nil Limiter or zero Limit disables it.
type Throttle struct {
	Limiter Limiter
	Limit   int64
	Window  time.Duration
}

type service struct {
	store    store.Store
	throttle Throttle
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a server call service.
func NewService(st store.Store, throttle Throttle, logg *logger.Logger) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:    st,
		throttle: throttle,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CallServer(ctx context.Context, restaurantID int64, tableNumber int) (*models.ServerCall, error) {
	if tableNumber < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tableNumber must be at least 1")
	}
	if _, err := s.store.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, store.Translate(err, "restaurant")
	}
	if err := s.allow(ctx, restaurantID, tableNumber); err != nil {
		return nil, err
	}

	call := models.ServerCall{
		RestaurantID: restaurantID,
		TableNumber:  tableNumber,
		Status:       enums.ServerCallStatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateServerCall(ctx, &call); err != nil {
		return nil, store.Translate(err, "server call")
	}
	return &call, nil
}

// allow fails open when the limiter is unreachable.
func (s *service) allow(ctx context.Context, restaurantID int64, tableNumber int) error {
	if s.throttle.Limiter == nil || s.throttle.Limit <= 0 {
		return nil
	}
	scope := "server-call:" + strconv.FormatInt(restaurantID, 10) + ":" + strconv.Itoa(tableNumber)
	allowed, count, err := s.throttle.Limiter.FixedWindowAllow(ctx, scope, s.throttle.Limit, s.throttle.Window)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "server call throttle unavailable")
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeConflict, "staff has already been called for this table, please wait").
			WithDetails(map[string]any{"calls": count, "limit": s.throttle.Limit})
	}
	return nil
}

func (s *service) ListServerCalls(ctx context.Context, restaurantID int64, status enums.ServerCallStatus) ([]models.ServerCall, error) {
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	calls, err := s.store.ListServerCalls(ctx, restaurantID, status)
	if err != nil {
		return nil, store.Translate(err, "server calls")
	}
	return calls, nil
}

func (s *service) UpdateServerCallStatus(ctx context.Context, id int64, status enums.ServerCallStatus) (*models.ServerCall, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	var updated models.ServerCall
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		call, err := tx.GetServerCall(ctx, id)
		if err != nil {
			return store.Translate(err, "server call")
		}
		if !call.Status.CanAdvanceTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move server call from %s back to %s", call.Status, status)).
				WithDetails(map[string]any{"from": call.Status, "to": status})
		}
		call.Status = status
		if err := tx.UpdateServerCall(ctx, &call); err != nil {
			return store.Translate(err, "server call")
		}
		updated = call
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
