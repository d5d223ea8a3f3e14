package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPageView_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2025, 5, 2, 23, 30, 0, 0, time.Local)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `page_views`") + ".*" +
		regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `count`=page_views.count + 1")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, RecordPageView(db, "/api/v1/recipes/sup", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayOf(t *testing.T) {
	at := time.Date(2025, 5, 2, 23, 30, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, 5, 2, 0, 0, 0, 0, time.Local), dayOf(at))
}

func TestDailyViews(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(count),0) FROM `page_views` WHERE date = ?")).
		WithArgs("2025-05-02").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(42))

	n, err := DailyViews(db, time.Date(2025, 5, 2, 8, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
