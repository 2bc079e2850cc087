package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/tablelink"
)

// ErrNoSession means the diner's last session has ended and nothing in the
// link allows starting a new one. Callers must not fabricate a cart.
var ErrNoSession = errors.New("sessions: no usable session")

// Identity is what a diner's device remembers between visits.
type Identity struct {
	SessionID    string                   `yaml:"session_id" json:"sessionId"`
	RestaurantID int64                    `yaml:"restaurant_id,omitempty" json:"restaurantId,omitempty"`
	TableNumber  int                      `yaml:"table_number,omitempty" json:"tableNumber,omitempty"`
	Status       enums.TableSessionStatus `yaml:"status,omitempty" json:"status,omitempty"`
}

// IdentityStore persists the last identity on the diner's device.
// Load returns nil when nothing was persisted.
type IdentityStore interface {
	Load() (*Identity, error)
	Save(Identity) error
}

type sessionLookup interface {
	GetTableSession(ctx context.Context, sessionID string) (*models.TableSession, error)
}

// Resolver derives the session id a diner acts under.
type Resolver struct {
	store  IdentityStore
	lookup sessionLookup
	newID  func() string
}

// NewResolver builds a Resolver. lookup may be nil when the server cannot be
// reached; the persisted status is then trusted.
func NewResolver(identities IdentityStore, lookup sessionLookup) (*Resolver, error) {
	if identities == nil {
		return nil, fmt.Errorf("identity store required")
	}
	return &Resolver{store: identities, lookup: lookup, newID: uuid.NewString}, nil
}

// Resolve applies, in order: link parameters, the persisted identity, and a
// freshly minted id. A terminal session is never reused; it yields
// ErrNoSession unless the link names a table, which starts a new visit.
func (r *Resolver) Resolve(ctx context.Context, link tablelink.Link) (Identity, error) {
	persisted, err := r.store.Load()
	if err != nil {
		return Identity{}, fmt.Errorf("load identity: %w", err)
	}

	var candidate *Identity
	switch {
	case link.SessionID != "":
		candidate = &Identity{SessionID: link.SessionID, RestaurantID: link.RestaurantID, TableNumber: link.TableNumber}
	case persisted != nil && persisted.SessionID != "" && !scannedDifferentTable(link, *persisted):
		copied := *persisted
		candidate = &copied
	}

	if candidate != nil {
		status, err := r.status(ctx, *candidate)
		if err != nil {
			return Identity{}, err
		}
		candidate.Status = status
		if !status.IsTerminal() {
			return *candidate, r.save(*candidate)
		}
		if !link.HasTable() {
			// Remember the ended status so the next load short-circuits.
			if err := r.save(*candidate); err != nil {
				return Identity{}, err
			}
			return Identity{}, ErrNoSession
		}
	} else if persisted != nil && persisted.Status.IsTerminal() && !link.HasTable() {
		return Identity{}, ErrNoSession
	}

	fresh := Identity{
		SessionID:    r.newID(),
		RestaurantID: link.RestaurantID,
		TableNumber:  link.TableNumber,
	}
	return fresh, r.save(fresh)
}

// scannedDifferentTable reports whether the link points at another table
// than the one the persisted session belongs to.
func scannedDifferentTable(link tablelink.Link, persisted Identity) bool {
	if !link.HasTable() {
		return false
	}
	return link.RestaurantID != persisted.RestaurantID || link.TableNumber != persisted.TableNumber
}

func (r *Resolver) status(ctx context.Context, id Identity) (enums.TableSessionStatus, error) {
	if r.lookup == nil {
		return id.Status, nil
	}
	session, err := r.lookup.GetTableSession(ctx, id.SessionID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("lookup session %s: %w", id.SessionID, err)
	}
	return session.Status, nil
}

func (r *Resolver) save(id Identity) error {
	if err := r.store.Save(id); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}
