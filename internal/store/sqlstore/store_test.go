package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/internal/store/sqlstore"
	"github.com/angelmondragon/tableside-backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return storetest.NewSQLite(t) })
}

func TestNewRequiresClient(t *testing.T) {
	_, err := sqlstore.New(nil)
	require.Error(t, err)
}

func TestDeleteCartItemInsideAtomic(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewSQLite(t)

	err := st.Atomic(ctx, func(tx store.Store) error {
		deleted, err := tx.DeleteCartItem(ctx, 12345)
		require.False(t, deleted)
		return err
	})
	require.NoError(t, err)
}

func TestLockSessionRequiresTransaction(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewSQLite(t)

	require.Error(t, st.LockSession(ctx, "s1"))
	require.NoError(t, st.Atomic(ctx, func(tx store.Store) error {
		return tx.LockSession(ctx, "s1")
	}))
}
