package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/models"
)

func newCommitteeFixture(t *testing.T) (*CommitteeStore, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock := newMockDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	store := NewCommitteeStore(db, rdb, time.Minute, logger.NewNoOpLogger())
	return store, mock, mr
}

func TestCommitteeStore_ReadThroughCache(t *testing.T) {
	store, mock, mr := newCommitteeFixture(t)

	mock.ExpectQuery("SELECT id, name, committee_type").
		WithArgs("erc-main").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "committee_type", "contact_email"}).
			AddRow("erc-main", "Ethics Review Committee", "ERC", "erc@example.edu"))

	committee, err := store.GetCommittee(context.Background(), "erc-main")
	require.NoError(t, err)
	assert.Equal(t, models.CommitteeERC, committee.Type)
	assert.Equal(t, "erc@example.edu", committee.ContactEmail)
	assert.True(t, mr.Exists("committee:erc-main"))

	// Second resolution is served from the cache; no further DB query is
	// expected by the mock.
	cached, err := store.GetCommittee(context.Background(), "erc-main")
	require.NoError(t, err)
	assert.Equal(t, committee.ID, cached.ID)
	assert.Equal(t, committee.Type, cached.Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitteeStore_UnknownCommittee(t *testing.T) {
	store, mock, _ := newCommitteeFixture(t)

	mock.ExpectQuery("SELECT id, name, committee_type").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetCommittee(context.Background(), "ghost")
	assert.Equal(t, stderrors.ErrCodeUnknownCommittee, stderrors.CodeOf(err))
}

func TestCommitteeStore_CacheDownDegradesToDatabase(t *testing.T) {
	store, mock, mr := newCommitteeFixture(t)
	mr.Close()

	mock.ExpectQuery("SELECT id, name, committee_type").
		WithArgs("ctsc-main").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "committee_type", "contact_email"}).
			AddRow("ctsc-main", "Clinical Trials Sub-Committee", "CTSC", "ctsc@example.edu"))

	committee, err := store.GetCommittee(context.Background(), "ctsc-main")
	require.NoError(t, err)
	assert.Equal(t, models.CommitteeCTSC, committee.Type)
}

func TestCommitteeStore_NilRedisClient(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCommitteeStore(db, nil, time.Minute, logger.NewNoOpLogger())

	mock.ExpectQuery("SELECT id, name, committee_type").
		WithArgs("arwc-main").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "committee_type", "contact_email"}).
			AddRow("arwc-main", "Animal Research Welfare Committee", "ARWC", "arwc@example.edu"))

	committee, err := store.GetCommittee(context.Background(), "arwc-main")
	require.NoError(t, err)
	assert.Equal(t, models.CommitteeARWC, committee.Type)
}

func TestCommitteeStore_NullContactEmail(t *testing.T) {
	store, mock, _ := newCommitteeFixture(t)

	mock.ExpectQuery("SELECT id, name, committee_type").
		WithArgs("erc-main").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "committee_type", "contact_email"}).
			AddRow("erc-main", "Ethics Review Committee", "ERC", nil))

	committee, err := store.GetCommittee(context.Background(), "erc-main")
	require.NoError(t, err)
	assert.Equal(t, models.CommitteeERC, committee.Type)
	assert.Empty(t, committee.ContactEmail)
}

func TestCommitteeStore_CommitteeEmail(t *testing.T) {
	store, mock, _ := newCommitteeFixture(t)

	mock.ExpectQuery("SELECT id, name, committee_type").
		WithArgs("erc-main").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "committee_type", "contact_email"}).
			AddRow("erc-main", "Ethics Review Committee", "ERC", "erc@example.edu"))

	email, err := store.CommitteeEmail(context.Background(), "erc-main")
	require.NoError(t, err)
	assert.Equal(t, "erc@example.edu", email)
}
