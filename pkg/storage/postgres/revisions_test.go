package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard-dev/openboard/pkg/revision"
)

func newMockRevisionStore(t *testing.T) (*RevisionStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewRevisionStore(db), mock, db
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	snapshot := json.RawMessage(`{"name":"launch","type":"board"}`)

	t.Run("assigns the next version", func(t *testing.T) {
		store, mock, db := newMockRevisionStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO revisions`).
			WithArgs(int64(3), int64(100), []byte(snapshot)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at"}).
				AddRow(42, 5, time.Now()))
		mock.ExpectCommit()

		rev, err := store.Record(ctx, 3, 100, snapshot)
		require.NoError(t, err)
		assert.Equal(t, int64(42), rev.ID)
		assert.Equal(t, int64(5), rev.Version)
		assert.Equal(t, int64(3), rev.ResourceID)
		assert.Equal(t, int64(100), rev.ActorID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version race maps to ErrConflict", func(t *testing.T) {
		store, mock, db := newMockRevisionStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO revisions`).
			WithArgs(int64(3), int64(100), []byte(snapshot)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "revisions_resource_version_key"})
		mock.ExpectRollback()

		_, err := store.Record(ctx, 3, 100, snapshot)
		assert.ErrorIs(t, err, revision.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unrelated unique violation is not a conflict", func(t *testing.T) {
		store, mock, db := newMockRevisionStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO revisions`).
			WithArgs(int64(3), int64(100), []byte(snapshot)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "some_other_key"})
		mock.ExpectRollback()

		_, err := store.Record(ctx, 3, 100, snapshot)
		assert.NotErrorIs(t, err, revision.ErrConflict)
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLatestVersion(t *testing.T) {
	store, mock, db := newMockRevisionStore(t)
	defer db.Close()

	t.Run("existing history", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM revisions`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

		version, err := store.LatestVersion(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, int64(7), version)
	})

	t.Run("no history", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM revisions`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		version, err := store.LatestVersion(context.Background(), 9)
		require.NoError(t, err)
		assert.Zero(t, version)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPage(t *testing.T) {
	store, mock, db := newMockRevisionStore(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "resource_id", "version", "actor_id", "snapshot", "created_at"}).
		AddRow(12, 3, 5, 100, []byte(`{"name":"v5"}`), now).
		AddRow(11, 3, 4, 100, []byte(`{"name":"v4"}`), now)

	mock.ExpectQuery(`SELECT id, resource_id, version, actor_id, snapshot, created_at`).
		WithArgs(int64(3), int64(6), 2).
		WillReturnRows(rows)

	page, err := store.Page(context.Background(), 3, 6, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	assert.Equal(t, int64(5), page[0].Version)
	assert.Equal(t, int64(4), page[1].Version)

	fields, err := page[0].DecodeSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "v5", fields["name"])

	require.NoError(t, mock.ExpectationsWereMet())
}
