package db

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func enrichedRows() *sqlmock.Rows {
	return sqlmock.NewRows(bidderConfigColumns)
}

func TestListBidderConfigsFilters(t *testing.T) {
	ctx := context.Background()
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bidder_configs_enriched WHERE bidder = $1 AND profile_id = $2 ORDER BY profile_id, slot`)).
		WithArgs("appnexus", 3).
		WillReturnRows(enrichedRows().
			AddRow(7, "appnexus", []byte(`{"placementId":123,"site":"x"}`), 30, "top", 3, "UK", "prod", "uk", "mobile", "index").
			AddRow(8, "appnexus", nil, 31, "mpu", 3, nil, "prod", "uk", "mobile", "index"))

	rows, err := pg.ListBidderConfigs(ctx, models.BidderConfigFilter{Bidder: "appnexus", ProfileID: 3})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 7, rows[0].ID)
	assert.Equal(t, "UK", rows[0].ProfileName)
	assert.Equal(t, "placementId: 123\nsite: x", params.Encode(rows[0].Params))
	assert.True(t, rows[1].Params.IsAbsent())
	assert.Equal(t, "", rows[1].ProfileName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBidderConfigsUnfiltered(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bidder_configs_enriched ORDER BY profile_id, slot`)).
		WithoutArgs().
		WillReturnRows(enrichedRows())

	rows, err := pg.ListBidderConfigs(context.Background(), models.BidderConfigFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBidderConfigsRejectsNonObjectParams(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery("FROM bidder_configs_enriched").
		WillReturnRows(enrichedRows().AddRow(1, "a", []byte(`[1,2]`), 1, "top", 1, "", "", "", "", ""))

	_, err := pg.ListBidderConfigs(context.Background(), models.BidderConfigFilter{})
	assert.ErrorIs(t, err, params.ErrNotObject)
}

func TestGetBidderConfigNotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE bidder_config_id = $1`)).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := pg.GetBidderConfig(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListProfilesAndGetProfile(t *testing.T) {
	ctx := context.Background()
	pg, mock := newMockPostgres(t)
	cols := []string{"id", "name", "environment", "geo", "device", "page_type"}

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY cp.id`)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "", "prod", "uk", "mobile", "index").
			AddRow(2, "Launch", "stage", "us", "desktop", "article"))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE cp.id = $1`)).
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)

	profiles, err := pg.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "prod | uk | mobile | index", profiles[0].Label())
	assert.Equal(t, "Launch", profiles[1].Label())

	_, err = pg.GetProfile(ctx, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProfileSlots(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM slot_configs_enriched WHERE profile_id = $1 ORDER BY slot_code`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"slot_config_id", "profile_id", "slot_code"}).
			AddRow(40, 4, "mpu").
			AddRow(41, 4, "top"))

	slots, err := pg.ListProfileSlots(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []models.SlotConfig{{ID: 40, ProfileID: 4, SlotCode: "mpu"}, {ID: 41, ProfileID: 4, SlotCode: "top"}}, slots)
}

func TestSaveParams(t *testing.T) {
	ctx := context.Background()
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bidder_configs SET params = $1::jsonb WHERE id = $2`)).
		WithArgs(`{"zone":"a","size":300}`, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bidder_configs SET params = $1::jsonb WHERE id = $2`)).
		WithArgs(`{}`, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bidder_configs WHERE id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bidder_configs WHERE id = $1`)).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, pg.SaveParams(ctx, 7, params.Decode("zone: a\nsize: 300")))
	require.NoError(t, pg.SaveParams(ctx, 7, params.Decode("no pairs here")))
	require.NoError(t, pg.SaveParams(ctx, 7, params.Decode("  ")))
	assert.ErrorIs(t, pg.SaveParams(ctx, 8, params.Absent()), models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBidderConfig(t *testing.T) {
	ctx := context.Background()
	pg, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bidders (code) VALUES ($1) ON CONFLICT DO NOTHING`)).
		WithArgs("ix").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO bidder_configs (bidder, slot_config_id, params)`)).
		WithArgs("ix", 10, `{"siteId":99}`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))
	mock.ExpectCommit()

	id, err := pg.CreateBidderConfig(ctx, "ix", 10, params.Decode("siteId: 99"))
	require.NoError(t, err)
	assert.Equal(t, 55, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBidderConfigErrors(t *testing.T) {
	ctx := context.Background()
	pg, mock := newMockPostgres(t)

	id, err := pg.CreateBidderConfig(ctx, "ix", 10, params.Absent())
	require.NoError(t, err)
	assert.Zero(t, id)

	for _, tc := range []struct {
		code pq.ErrorCode
		want error
	}{
		{pqUniqueViolation, models.ErrDuplicate},
		{pqForeignKeyViolation, models.ErrNotFound},
	} {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO bidders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("INSERT INTO bidder_configs").WillReturnError(&pq.Error{Code: tc.code})
		mock.ExpectRollback()

		_, err := pg.CreateBidderConfig(ctx, "ix", 10, params.Empty())
		assert.ErrorIs(t, err, tc.want)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
