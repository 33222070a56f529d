package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEditReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	day1 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	day0 := day1.AddDate(0, 0, -1)

	mock.ExpectQuery(`GROUP BY date`).
		WithArgs(7, "appnexus").
		WillReturnRows(sqlmock.NewRows([]string{"date", "creates", "updates", "deletes"}).
			AddRow(day1, int64(1), int64(4), int64(0)).
			AddRow(day0, int64(0), int64(2), int64(1)))
	mock.ExpectQuery(`GROUP BY bidder ORDER BY`).
		WithArgs(7, "appnexus", 10).
		WillReturnRows(sqlmock.NewRows([]string{"bidder", "edits", "configs", "last_edit"}).
			AddRow("appnexus", int64(8), int64(3), day1))
	mock.ExpectQuery(`GROUP BY bidder_config_id`).
		WithArgs(7, "appnexus", 10).
		WillReturnRows(sqlmock.NewRows([]string{"bidder_config_id", "bidder", "profile_id", "slot", "edits"}).
			AddRow(int32(100), "appnexus", int32(1), "top", int64(5)))

	s, err := GenerateEditReport(context.Background(), db, " appnexus ", 0, 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "appnexus", s.Bidder)
	assert.Equal(t, 7, s.Days)
	assert.Equal(t, DailyEdits{Creates: 1, Updates: 6, Deletes: 1}, s.Totals)
	assert.Equal(t, int64(8), s.Totals.Total())
	require.Len(t, s.Daily, 2)
	assert.Equal(t, day1, s.Daily[0].Date)
	require.Len(t, s.TopBidders, 1)
	assert.Equal(t, int64(3), s.TopBidders[0].Configs)
	require.Len(t, s.HotConfigs, 1)
	assert.Equal(t, ConfigEdits{BidderConfigID: 100, Bidder: "appnexus", ProfileID: 1, Slot: "top", Edits: 5}, s.HotConfigs[0])
}

func TestGenerateEditReportAllBidders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`GROUP BY date`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"date", "creates", "updates", "deletes"}))
	mock.ExpectQuery(`GROUP BY bidder ORDER BY`).
		WithArgs(30, 3).
		WillReturnRows(sqlmock.NewRows([]string{"bidder", "edits", "configs", "last_edit"}))
	mock.ExpectQuery(`GROUP BY bidder_config_id`).
		WithArgs(30, 3).
		WillReturnRows(sqlmock.NewRows([]string{"bidder_config_id", "bidder", "profile_id", "slot", "edits"}))

	s, err := GenerateEditReport(context.Background(), db, "", 30, 3)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, s.Bidder)
	assert.Empty(t, s.Daily)
	assert.Zero(t, s.Totals.Total())
}

func TestGenerateEditReportQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`GROUP BY date`).WillReturnError(assert.AnError)

	_, err = GenerateEditReport(context.Background(), db, "", 7, 10)
	assert.ErrorIs(t, err, assert.AnError)
}
