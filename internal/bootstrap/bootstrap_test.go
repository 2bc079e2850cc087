package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/pkg/config"
	"github.com/angelmondragon/tableside-backend/pkg/events"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

func TestOpenMemoryPlatformSeedsCatalog(t *testing.T) {
	cfg := &config.Config{
		Store:   config.StoreConfig{Backend: config.StoreBackendMemory},
		Catalog: config.CatalogConfig{SeedFile: "../catalog/testdata/catalog.yaml"},
	}

	platform, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer platform.Close()

	require.Nil(t, platform.DB)
	require.Nil(t, platform.Redis)
	require.IsType(t, &sessionlock.Local{}, platform.Locker)
	require.IsType(t, &sessionlock.Local{}, platform.VoteLocker)
	require.NotSame(t, platform.Locker, platform.VoteLocker)
	require.IsType(t, events.Noop{}, platform.Publisher)

	restaurants, err := platform.Store.ListRestaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	require.Equal(t, "Harbor Grill", restaurants[0].Name)
}

func TestOpenFailsOnMissingSeedFile(t *testing.T) {
	cfg := &config.Config{
		Store:   config.StoreConfig{Backend: config.StoreBackendMemory},
		Catalog: config.CatalogConfig{SeedFile: "does-not-exist.yaml"},
	}

	platform, err := Open(context.Background(), cfg, logger.Nop())
	require.Error(t, err)
	require.Nil(t, platform)
}

func TestCloseNilPlatform(t *testing.T) {
	var platform *Platform
	require.NoError(t, platform.Close())
}
