package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/config"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/mutation"
	"github.com/openboard-dev/openboard/pkg/observability"
	"github.com/openboard-dev/openboard/pkg/revision"
	"github.com/openboard-dev/openboard/pkg/storage/postgres"
	"github.com/openboard-dev/openboard/pkg/storage/sqlite"
	"github.com/openboard-dev/openboard/pkg/tasks"
	"github.com/openboard-dev/openboard/pkg/workspaces"
)

// storageBackend bundles the store interfaces the services consume, built
// from whichever backend the configuration selects.
type storageBackend struct {
	db          *sql.DB
	resources   tasks.ResourceStore
	memberships membership.Store
	mutations   mutation.Store
	workspaces  workspaces.WorkspaceCreator
	invitations membership.InvitationStore
	revisions   revision.Store
	close       func() error
}

// openBackend opens the configured store and applies migrations.
func openBackend(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*storageBackend, error) {
	switch cfg.Storage.Type {
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	case "sqlite":
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*storageBackend, error) {
	cm, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Storage.PostgresURL,
		ReplicaURLs: cfg.Storage.ReplicaURLs(),
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := postgres.RunMigrations(ctx, cm.Primary(), logger); err != nil {
		cm.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Postgres backend ready")

	// All stores run against the primary. Chain resolution and authorization
	// feed mutations, so replica lag there would surface as spurious 404s.
	mutations := postgres.NewMutationStore(cm.Primary())
	return &storageBackend{
		db:          cm.Primary(),
		resources:   postgres.NewResourceStore(cm.Primary()),
		memberships: postgres.NewMembershipStore(cm.Primary()),
		mutations:   mutations,
		workspaces:  mutations,
		invitations: postgres.NewInvitationStore(cm.Primary()),
		revisions:   postgres.NewRevisionStore(cm.Primary()),
		close:       cm.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*storageBackend, error) {
	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Infof("SQLite backend ready at %s", cfg.Storage.SQLitePath)

	return &storageBackend{
		db:          store.DB(),
		resources:   store,
		memberships: store,
		mutations:   store,
		workspaces:  store,
		invitations: store,
		revisions:   store,
		close:       store.Close,
	}, nil
}
