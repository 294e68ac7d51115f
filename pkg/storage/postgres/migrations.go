package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/observability"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create resources table",
			SQL: `
				CREATE TABLE IF NOT EXISTS resources (
					id BIGSERIAL PRIMARY KEY,
					resource_type VARCHAR(32) NOT NULL,
					parent_id BIGINT REFERENCES resources(id) ON DELETE CASCADE,
					workspace_id BIGINT NOT NULL,
					author_id BIGINT NOT NULL,
					name VARCHAR(512) NOT NULL DEFAULT '',
					fields JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_resources_parent_id ON resources(parent_id);
				CREATE INDEX idx_resources_workspace_id ON resources(workspace_id);
				CREATE INDEX idx_resources_type ON resources(resource_type);
			`,
		},
		{
			Version:     2,
			Description: "Create revisions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS revisions (
					id BIGSERIAL PRIMARY KEY,
					resource_id BIGINT NOT NULL,
					version BIGINT NOT NULL,
					actor_id BIGINT NOT NULL,
					snapshot JSONB NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT revisions_resource_version_key UNIQUE (resource_id, version)
				);

				CREATE INDEX idx_revisions_resource_id ON revisions(resource_id, version DESC);
			`,
		},
		{
			Version:     3,
			Description: "Create memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS memberships (
					id BIGSERIAL PRIMARY KEY,
					workspace_id BIGINT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
					actor_id BIGINT NOT NULL,
					role VARCHAR(16) NOT NULL,
					invited_by BIGINT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT memberships_workspace_actor_key UNIQUE (workspace_id, actor_id)
				);

				CREATE INDEX idx_memberships_actor_id ON memberships(actor_id);
				CREATE INDEX idx_memberships_workspace_role ON memberships(workspace_id, role);
			`,
		},
		{
			Version:     4,
			Description: "Create invitations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS invitations (
					id BIGSERIAL PRIMARY KEY,
					token UUID NOT NULL UNIQUE,
					workspace_id BIGINT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
					email VARCHAR(512) NOT NULL,
					role VARCHAR(16) NOT NULL,
					invited_by BIGINT NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					accepted_at TIMESTAMPTZ,
					accepted_by BIGINT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_invitations_workspace_id ON invitations(workspace_id);
				CREATE INDEX idx_invitations_expires_at ON invitations(expires_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		logger.Infof("running migration %d: %s", migration.Version, migration.Description)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
