// File: internal/profile/store.go
package profile

import (
	"errors"
	"fmt"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/platform/database"
	platformredis "identity_bridge_backend/internal/platform/redis"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// NewStore opens the backend selected by PROFILE_STORE. The cleanup closes whatever
// connection the store owns; the Firestore client belongs to the Firebase app.
func NewStore(cfg *config.Config, fs *firestore.Client, logger *zap.Logger) (Store, func(), error) {
	noop := func() {}
	switch cfg.ProfileStore {
	case config.StoreFirestore:
		if fs == nil {
			return nil, noop, errors.New("firestore profile store selected but no Firestore client is available")
		}
		logger.Info("Using Firestore profile store", zap.String("collection", cfg.ProfileCollection))
		return NewFirestoreStore(fs, cfg.ProfileCollection, logger), noop, nil

	case config.StorePostgres, config.StoreSQLite:
		db, err := database.NewGORM(cfg, logger)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { database.CloseGORMDB(db, logger) }
		store, err := NewGormStore(db, cfg.ProfileCollection, logger)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		logger.Info("Using SQL profile store", zap.String("driver", cfg.ProfileStore), zap.String("table", cfg.ProfileCollection))
		return store, cleanup, nil

	case config.StoreRedis:
		rdb, err := platformredis.NewClient(cfg, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using Redis profile store", zap.String("prefix", cfg.RedisKeyPrefix))
		return NewRedisStore(rdb, cfg.RedisKeyPrefix, logger), func() { platformredis.Close(rdb, logger) }, nil
	}
	return nil, noop, fmt.Errorf("unsupported profile store %q", cfg.ProfileStore)
}
