package analytics

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockAnalyticsDB(t *testing.T) (*Analytics, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Analytics{DB: db}, mock
}

func TestRecordEditUnavailable(t *testing.T) {
	var a *Analytics
	assert.ErrorIs(t, a.RecordEdit(context.Background(), EditRecord{}), ErrUnavailable)
	_, err := (&Analytics{}).RecentEdits(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecordEdit(t *testing.T) {
	a, mock := newMockAnalyticsDB(t)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO param_edits`)).
		WithArgs(ts, id.String(), "update", int32(7), "appnexus", int32(3), "top", "placementId: 1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := a.RecordEdit(context.Background(), EditRecord{
		Timestamp: ts, EditID: id, Action: "update", BidderConfigID: 7,
		Bidder: "appnexus", ProfileID: 3, Slot: "top", ParamsText: "placementId: 1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEditFillsDefaults(t *testing.T) {
	a, mock := newMockAnalyticsDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO param_edits`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "delete", int32(1), "ix", int32(0), "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, a.RecordEdit(context.Background(), EditRecord{Action: "delete", BidderConfigID: 1, Bidder: "ix"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentEdits(t *testing.T) {
	a, mock := newMockAnalyticsDB(t)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	cols := []string{"ts", "edit_id", "action", "bidder_config_id", "bidder", "profile_id", "slot", "params_text"}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM param_edits WHERE bidder = ? ORDER BY ts DESC LIMIT ?`)).
		WithArgs("appnexus", 50).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(ts, id.String(), "create", int32(9), "appnexus", int32(2), "mpu", "zone: a"))

	edits, err := a.RecentEdits(context.Background(), "appnexus", 0)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, EditRecord{
		Timestamp: ts, EditID: id, Action: "create", BidderConfigID: 9,
		Bidder: "appnexus", ProfileID: 2, Slot: "mpu", ParamsText: "zone: a",
	}, edits[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMockAnalytics(t *testing.T) {
	m := NewMockAnalytics()
	require.NoError(t, m.RecordEdit(context.Background(), EditRecord{Bidder: "a"}))
	m.Err = errors.New("boom")
	assert.Error(t, m.RecordEdit(context.Background(), EditRecord{Bidder: "b"}))
	edits := m.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "a", edits[0].Bidder)
}
