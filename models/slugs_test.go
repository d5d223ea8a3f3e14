package models

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/weightloss/slug"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

func TestSlugLookup(t *testing.T) {
	db, mock := newMockDB(t)
	countSQL := regexp.QuoteMeta("SELECT count(*) FROM `posts` WHERE slug = ?")
	excludeSQL := regexp.QuoteMeta("SELECT count(*) FROM `posts` WHERE slug = ? AND id <> ?")

	mock.ExpectQuery(countSQL).WithArgs("sup").WillReturnRows(countRows(1))
	mock.ExpectQuery(excludeSQL).WithArgs("sup", 7).WillReturnRows(countRows(0))

	lookup := SlugLookup(db, &Post{})
	taken, err := lookup.Exists(context.Background(), "sup", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = lookup.Exists(context.Background(), "sup", 7)
	require.NoError(t, err)
	assert.False(t, taken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlugUnique_CounterAgainstTable(t *testing.T) {
	db, mock := newMockDB(t)
	countSQL := regexp.QuoteMeta("SELECT count(*) FROM `recipes` WHERE slug = ?")

	mock.ExpectQuery(countSQL).WithArgs("sup").WillReturnRows(countRows(1))
	mock.ExpectQuery(countSQL).WithArgs("sup-1").WillReturnRows(countRows(1))
	mock.ExpectQuery(countSQL).WithArgs("sup-2").WillReturnRows(countRows(0))

	got, err := slug.New("recipe").Unique(context.Background(), SlugLookup(db, &Recipe{}), "  Суп ", 0)
	require.NoError(t, err)
	assert.Equal(t, "sup-2", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithSlug_RetriesOnDuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	countSQL := regexp.QuoteMeta("SELECT count(*) FROM `food_categories` WHERE slug = ?")
	insertSQL := regexp.QuoteMeta("INSERT INTO `food_categories`")

	// first attempt: the pre-check passes but a concurrent writer won
	mock.ExpectBegin()
	mock.ExpectQuery(countSQL).WithArgs("supy").WillReturnRows(countRows(0))
	mock.ExpectExec(insertSQL).
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry 'supy'"})
	mock.ExpectRollback()

	// regenerated slug with a random tail
	mock.ExpectQuery(countSQL).WithArgs(sqlmock.AnyArg()).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	fc := &FoodCategory{Name: "Супы"}
	require.NoError(t, CreateWithSlug(db, fc, 3))
	assert.Equal(t, uint(11), fc.ID)
	assert.True(t, strings.HasPrefix(fc.Slug, "supy-"), fc.Slug)
	assert.Len(t, fc.Slug, len("supy-")+slug.SuffixLen)
	assert.True(t, slug.Valid(fc.Slug))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithSlug_GivesUpAfterRetries(t *testing.T) {
	db, mock := newMockDB(t)
	countSQL := regexp.QuoteMeta("SELECT count(*) FROM `food_categories` WHERE slug = ?")
	insertSQL := regexp.QuoteMeta("INSERT INTO `food_categories`")
	dup := &mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"}

	mock.ExpectBegin()
	mock.ExpectQuery(countSQL).WithArgs("ovoschi").WillReturnRows(countRows(0))
	mock.ExpectExec(insertSQL).WillReturnError(dup)
	mock.ExpectRollback()
	mock.ExpectQuery(countSQL).WithArgs(sqlmock.AnyArg()).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).WillReturnError(dup)
	mock.ExpectRollback()

	err := CreateWithSlug(db, &FoodCategory{Name: "Овощи"}, 1)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFixSlug(t *testing.T) {
	db, mock := newMockDB(t)
	excludeSQL := regexp.QuoteMeta("SELECT count(*) FROM `posts` WHERE slug = ? AND id <> ?")
	mock.ExpectQuery(excludeSQL).WithArgs("post-123", 4).WillReturnRows(countRows(0))

	p := &Post{ID: 4, Title: "Post 123", Slug: "-123"}
	changed, err := FixSlug(context.Background(), db, p, p.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "post-123", p.Slug)

	ok := &Post{ID: 5, Title: "ignored", Slug: "already-fine"}
	changed, err = FixSlug(context.Background(), db, ok, ok.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
