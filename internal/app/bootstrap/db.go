// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/store/audit"
	"github.com/otman-dev/farmlab/internal/app/store/oauthstate"
	"github.com/otman-dev/farmlab/internal/app/store/regresponses"
	userstore "github.com/otman-dev/farmlab/internal/app/store/users"
	"github.com/otman-dev/farmlab/internal/app/system/timeouts"
)

// ConnectDB establishes the MongoDB connection used by the whole app.
//
// WAFFLE calls this after configuration validation and before schema
// setup. The returned DBDeps is passed to every later lifecycle hook.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, timeouts.Ping())
	defer cancelPing()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		FarmLabMongoClient:   client,
		FarmLabMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes each collection depends on.
//
// Index creation is idempotent, so this runs unconditionally on every
// startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.FarmLabMongoDatabase

	schemaCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := userstore.New(db).EnsureIndexes(schemaCtx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := regresponses.New(db).EnsureIndexes(schemaCtx); err != nil {
		return fmt.Errorf("registration response indexes: %w", err)
	}
	if err := audit.New(db).EnsureIndexes(schemaCtx); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(schemaCtx); err != nil {
		return fmt.Errorf("oauth state indexes: %w", err)
	}

	logger.Info("database indexes ensured")
	return nil
}
