package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamraffle-backend/internal/features/draw/models"
	"streamraffle-backend/internal/features/draw/repository"
)

func TestWithGiveawayLock_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	called := false
	err = repo.WithGiveawayLock(context.Background(), "g1", func(tx *sql.Tx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithGiveawayLock_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	err = repo.WithGiveawayLock(context.Background(), "g1", func(tx *sql.Tx) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCurrentWinnerRepicked_NoWinner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE draw_records").
		WithArgs("g1", models.DrawStatusWinner, models.DrawStatusRepick).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	err = repo.WithGiveawayLock(context.Background(), "g1", func(tx *sql.Tx) error {
		return repo.MarkCurrentWinnerRepicked(context.Background(), tx, "g1")
	})
	assert.ErrorIs(t, err, repository.ErrNoCurrentWinner)
}

func TestListEligibleEntries_ExcludesRepickedWinners(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "giveaway_id", "platform", "external_user_id", "username",
		"avatar_url", "method", "tickets", "metadata", "created_at",
	}).
		AddRow("e2", "g1", "twitch", "u2", "bob", "", "TWITCH_NON_SUB", 3, []byte(`{}`), now)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("g1", models.DrawStatusRepick).
		WillReturnRows(rows)
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	err = repo.WithGiveawayLock(context.Background(), "g1", func(tx *sql.Tx) error {
		entries, err := repo.ListEligibleEntries(context.Background(), tx, "g1")
		if err != nil {
			return err
		}
		require.Len(t, entries, 1)
		assert.Equal(t, "e2", entries[0].ID)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCurrentWinner_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM draw_records").
		WithArgs("g1", models.DrawStatusWinner).
		WillReturnError(sql.ErrNoRows)

	repo := NewPostgresRepository(db)
	_, err = repo.GetCurrentWinner(context.Background(), "g1")
	assert.ErrorIs(t, err, repository.ErrDrawNotFound)
}
