package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Translate(nil, "order"))

	notFound := Translate(fmt.Errorf("order 7: %w", ErrNotFound), "order")
	require.True(t, pkgerrors.Is(notFound, pkgerrors.CodeNotFound))
	require.ErrorIs(t, notFound, ErrNotFound)
	require.Equal(t, "order not found", pkgerrors.As(notFound).Message())

	dup := Translate(ErrDuplicate, "table session")
	require.True(t, pkgerrors.Is(dup, pkgerrors.CodeConflict))

	failure := Translate(errors.New("disk full"), "cart item")
	require.True(t, pkgerrors.Is(failure, pkgerrors.CodeStoreFailure))

	typed := pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	require.Same(t, typed, Translate(typed, "cart").(*pkgerrors.Error))
}
