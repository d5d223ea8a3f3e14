package maintenance

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/weightloss/models"
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

func TestFixTable(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `categories` WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).
			AddRow(1, "Healthy eating", "-healthy-eating").
			AddRow(2, "Workouts", "workouts"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `categories` WHERE slug = ? AND id <> ?")).
		WithArgs("healthy-eating", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `categories` SET `slug`=?")).
		WithArgs("healthy-eating", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run := fixTable[models.Category](func(m *models.Category) uint { return m.ID })
	n, err := run(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFixTable_Challenges(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `challenges` WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug"}).
			AddRow(3, "Без сахара", ""))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `challenges` WHERE slug = ? AND id <> ?")).
		WithArgs("bez-sahara", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `challenges` SET `slug`=?")).
		WithArgs("bez-sahara", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run := fixTable[models.Challenge](func(m *models.Challenge) uint { return m.ID })
	n, err := run(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlugReportTotal(t *testing.T) {
	assert.Equal(t, 0, SlugReport{}.Total())
	assert.Equal(t, 5, SlugReport{"posts": 2, "recipes": 3}.Total())
}

func TestFixPostStatuses(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`,`status` FROM `posts` WHERE status NOT IN")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(3, "Published ").
			AddRow(4, "archived"))
	update := regexp.QuoteMeta("UPDATE `posts` SET `status`=? WHERE id = ?")
	mock.ExpectBegin()
	mock.ExpectExec(update).WithArgs("published", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(update).WithArgs("draft", 4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := FixPostStatuses(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStarterCatalogue(t *testing.T) {
	categories := map[string]bool{}
	foods := map[string]bool{}
	for _, c := range starterCatalogue {
		assert.False(t, categories[c.Name], "duplicate category %s", c.Name)
		categories[c.Name] = true
		assert.NotEmpty(t, c.Foods, c.Name)
		assert.True(t, slug.Valid(slug.New("category").Base(c.Name)), c.Name)

		for _, f := range c.Foods {
			assert.False(t, foods[f.Name], "duplicate food %s", f.Name)
			foods[f.Name] = true
			assert.GreaterOrEqual(t, f.Calories, 0.0, f.Name)
			assert.GreaterOrEqual(t, f.Protein, 0.0, f.Name)
			assert.GreaterOrEqual(t, f.Fats, 0.0, f.Name)
			assert.GreaterOrEqual(t, f.Carbs, 0.0, f.Name)
			assert.LessOrEqual(t, f.Protein+f.Fats+f.Carbs, 100.0, f.Name)
		}
	}
}
