// Package bootstrap opens the infrastructure shared by the binaries: the
// configured store backend, the optional redis and kafka clients, and the
// session locker that matches them.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/tableside-backend/internal/catalog"
	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/internal/store/memory"
	"github.com/angelmondragon/tableside-backend/internal/store/sqlstore"
	"github.com/angelmondragon/tableside-backend/pkg/config"
	"github.com/angelmondragon/tableside-backend/pkg/db"
	"github.com/angelmondragon/tableside-backend/pkg/events"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/migrate"
	"github.com/angelmondragon/tableside-backend/pkg/redis"
)

// Platform holds the opened dependencies. DB and Redis are nil when the
// configuration leaves them out. Locker serializes table sessions and
// VoteLocker menu item votes; the two never share keys.
type Platform struct {
	Store      store.Store
	DB         *db.Client
	Redis      *redis.Client
	Locker     sessionlock.Locker
	VoteLocker sessionlock.Locker
	Publisher  events.Publisher
}

// Open connects everything cfg enables. On error the already opened clients
// are closed.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (p *Platform, err error) {
	p = &Platform{Publisher: events.Noop{}}
	defer func() {
		if err != nil {
			err = multierr.Append(err, p.Close())
			p = nil
		}
	}()

	if cfg.Store.UsesSQL() {
		p.DB, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return p, fmt.Errorf("bootstrap database: %w", err)
		}
		if err = migrate.MaybeRunDev(ctx, cfg, logg, p.DB); err != nil {
			return p, fmt.Errorf("run dev migrations: %w", err)
		}
		p.Store, err = sqlstore.New(p.DB)
		if err != nil {
			return p, err
		}
	} else {
		p.Store = memory.New()
	}

	if cfg.Redis.Enabled() {
		p.Redis, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return p, fmt.Errorf("bootstrap redis: %w", err)
		}
		p.Locker, err = sessionlock.NewRedis(p.Redis, cfg.Cart.LockTTL, cfg.Cart.LockWait)
		if err != nil {
			return p, err
		}
		p.VoteLocker, err = sessionlock.NewRedisScope(p.Redis, sessionlock.ScopeMenuItemVote, cfg.Cart.LockTTL, cfg.Cart.LockWait)
		if err != nil {
			return p, err
		}
	} else {
		p.Locker = sessionlock.NewLocal()
		p.VoteLocker = sessionlock.NewLocal()
	}

	if cfg.Kafka.Enabled() {
		publisher, kafkaErr := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, cfg.Kafka.WriteTimeout)
		if kafkaErr != nil {
			return p, fmt.Errorf("bootstrap kafka publisher: %w", kafkaErr)
		}
		p.Publisher = publisher
	}

	if cfg.Catalog.SeedFile != "" {
		if err = SeedCatalog(ctx, p.Store, cfg.Catalog.SeedFile, logg); err != nil {
			return p, err
		}
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"store":  cfg.Store.Backend,
		"redis":  p.Redis != nil,
		"kafka":  cfg.Kafka.Enabled(),
		"seeded": cfg.Catalog.SeedFile != "",
	})
	logg.Info(ctx, "platform ready")
	return p, nil
}

// SeedCatalog loads a YAML catalog file into st.
func SeedCatalog(ctx context.Context, st store.Store, path string, logg *logger.Logger) error {
	file, err := catalog.LoadSeedFile(path)
	if err != nil {
		return err
	}
	result, err := catalog.Seed(ctx, st, file)
	if err != nil {
		return fmt.Errorf("seed catalog %s: %w", path, err)
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"file":        path,
			"restaurants": result.Restaurants,
			"menu_items":  result.MenuItems,
			"addons":      result.Addons,
			"deals":       result.Deals,
		})
		logg.Info(ctx, "catalog seeded")
	}
	return nil
}

// Close releases every opened client and reports all failures.
func (p *Platform) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.Publisher != nil {
		err = multierr.Append(err, p.Publisher.Close())
	}
	if p.Redis != nil {
		err = multierr.Append(err, p.Redis.Close())
	}
	if p.DB != nil {
		err = multierr.Append(err, p.DB.Close())
	}
	return err
}
