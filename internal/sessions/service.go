package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/events"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/metrics"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

const maxSessionIDLength = 128

// Service manages the table session lifecycle.
type Service interface {
	CreateTableSession(ctx context.Context, input CreateInput) (*models.TableSession, error)
	GetTableSession(ctx context.Context, sessionID string) (*models.TableSession, error)
	UpdateTableSessionStatus(ctx context.Context, sessionID string, status enums.TableSessionStatus, method *enums.PaymentMethod) (*models.TableSession, error)
	CloseTableSession(ctx context.Context, sessionID string, method enums.PaymentMethod) (*CloseResult, error)
	CloseStaleSessions(ctx context.Context, cutoff time.Time) (int, error)
}

// CreateInput identifies one visit at one table.
type CreateInput struct {
	RestaurantID int64
	TableNumber  int
	SessionID    string
}

// CloseResult is the payload of the pay/close endpoint.
type CloseResult struct {
	Success bool                 `json:"success"`
	Session *models.TableSession `json:"session"`
}

// Options carries the optional collaborators.
type Options struct {
	Publisher events.Publisher
	Metrics   *metrics.OrderingMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	store     store.Store
	locker    sessionlock.Locker
	publisher events.Publisher
	metrics   *metrics.OrderingMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds a session service backed by the provided store and locker.
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

// ValidateSessionID trims and bounds a client supplied session id.
func ValidateSessionID(sessionID string) (string, error) {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sessionId is required")
	}
	if len(trimmed) > maxSessionIDLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("sessionId must be at most %d characters", maxSessionIDLength))
	}
	return trimmed, nil
}

func (s *service) CreateTableSession(ctx context.Context, input CreateInput) (*models.TableSession, error) {
	sessionID, err := ValidateSessionID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if input.TableNumber < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tableNumber must be at least 1")
	}
	if input.RestaurantID < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurantId is required")
	}

	if _, err := s.store.GetRestaurant(ctx, input.RestaurantID); err != nil {
		return nil, store.Translate(err, "restaurant")
	}

	session := models.TableSession{
		SessionID:    sessionID,
		RestaurantID: input.RestaurantID,
		TableNumber:  input.TableNumber,
		Status:       enums.TableSessionStatusActive,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateTableSession(ctx, &session); err != nil {
		return nil, store.Translate(err, "table session")
	}
	return &session, nil
}

func (s *service) GetTableSession(ctx context.Context, sessionID string) (*models.TableSession, error) {
	session, err := s.store.GetTableSession(ctx, sessionID)
	if err != nil {
		return nil, store.Translate(err, "table session")
	}
	return &session, nil
}

func (s *service) UpdateTableSessionStatus(ctx context.Context, sessionID string, status enums.TableSessionStatus, method *enums.PaymentMethod) (*models.TableSession, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	if method != nil && !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", *method))
	}

	var updated models.TableSession
	err := sessionlock.Do(ctx, s.locker, sessionID, func() error {
		return store.AtomicSession(ctx, s.store, sessionID, func(tx store.Store) error {
			session, err := tx.GetTableSession(ctx, sessionID)
			if err != nil {
				return store.Translate(err, "table session")
			}
			if err := s.transition(ctx, tx, &session, status, method); err != nil {
				return err
			}
			updated = session
			return nil
		})
	})
	if err != nil {
		return nil, sessionlock.Translate(err)
	}

	if updated.Status.IsTerminal() {
		s.sessionEnded(ctx, updated)
	}
	return &updated, nil
}

func (s *service) CloseTableSession(ctx context.Context, sessionID string, method enums.PaymentMethod) (*CloseResult, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}
	session, err := s.UpdateTableSessionStatus(ctx, sessionID, enums.TableSessionStatusPaid, &method)
	if err != nil {
		return nil, err
	}
	return &CloseResult{Success: true, Session: session}, nil
}

func (s *service) CloseStaleSessions(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.store.ListTableSessions(ctx, store.TableSessionFilter{
		Statuses:      []enums.TableSessionStatus{enums.TableSessionStatusActive, enums.TableSessionStatusOrdered},
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return 0, store.Translate(err, "table sessions")
	}

	closed := 0
	var errs error
	for _, candidate := range stale {
		if ctx.Err() != nil {
			return closed, multierr.Append(errs, ctx.Err())
		}
		session, err := s.UpdateTableSessionStatus(ctx, candidate.SessionID, enums.TableSessionStatusClosed, nil)
		if err != nil {
			// Someone paid in the meantime.
			if pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("close session %s: %w", candidate.SessionID, err))
			continue
		}
		if session.Status == enums.TableSessionStatusClosed {
			closed++
		}
	}
	return closed, errs
}

// transition applies status to session inside tx. Entering paid or closed
// stamps closedAt and records the sum of the session's orders.
func (s *service) transition(ctx context.Context, tx store.Store, session *models.TableSession, status enums.TableSessionStatus, method *enums.PaymentMethod) error {
	if !session.Status.CanTransitionTo(status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move session from %s to %s", session.Status, status)).
			WithDetails(map[string]any{"from": session.Status, "to": status})
	}

	session.Status = status
	if method != nil {
		m := *method
		session.PaymentMethod = &m
	}
	if status.IsTerminal() {
		closedAt := s.now()
		session.ClosedAt = &closedAt

		orders, err := tx.ListOrders(ctx, session.SessionID)
		if err != nil {
			return store.Translate(err, "orders")
		}
		var total money.Cents
		for _, order := range orders {
			if total, err = total.Plus(order.TotalAmount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStoreFailure, err, "session total out of range")
			}
		}
		session.TotalAmount = &total
	}

	if err := tx.UpdateTableSession(ctx, session); err != nil {
		return store.Translate(err, "table session")
	}
	return nil
}

func (s *service) sessionEnded(ctx context.Context, session models.TableSession) {
	s.metrics.SessionEnded(session.Status.String())
	err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeSessionClosed,
		SessionID:  session.SessionID,
		OccurredAt: s.now(),
		Data:       session,
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to publish session.closed")
	}
}
