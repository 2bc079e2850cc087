package sessions

import (
	"context"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
)

type sessionReader interface {
	GetTableSession(ctx context.Context, sessionID string) (models.TableSession, error)
}

// EnsureOpen fails with SESSION_ENDED when sessionID belongs to a paid or
// closed table session. A session id without a row is an opaque cart and is
// accepted; the returned session is nil in that case.
func EnsureOpen(ctx context.Context, st sessionReader, sessionID string) (*models.TableSession, error) {
	session, err := st.GetTableSession(ctx, sessionID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, store.Translate(err, "table session")
	}
	if session.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeSessionEnded, "this table session has ended, scan the table code to start a new one").
			WithDetails(map[string]any{"sessionId": session.SessionID, "status": session.Status})
	}
	return &session, nil
}
