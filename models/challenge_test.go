package models

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/weightloss/slug"
)

func TestChallenge_BeforeCreateAssignsSlug(t *testing.T) {
	db, mock := newMockDB(t)
	countSQL := regexp.QuoteMeta("SELECT count(*) FROM `challenges` WHERE slug = ?")
	insertSQL := regexp.QuoteMeta("INSERT INTO `challenges`")

	mock.ExpectBegin()
	mock.ExpectQuery(countSQL).WithArgs("mesyats-bez-sahara").WillReturnRows(countRows(1))
	mock.ExpectQuery(countSQL).WithArgs("mesyats-bez-sahara-1").WillReturnRows(countRows(0))
	mock.ExpectExec(insertSQL).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	c := &Challenge{Title: "Месяц без сахара", Description: "no sugar", DurationDays: 30, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	assert.Equal(t, uint(3), c.ID)
	assert.Equal(t, "mesyats-bez-sahara-1", c.Slug)
	assert.Equal(t, "/challenges/mesyats-bez-sahara-1", c.URL())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallenge_FallbackPrefix(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `challenges` WHERE slug = ?")).
		WithArgs(sqlmock.AnyArg()).WillReturnRows(countRows(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `challenges`")).WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	c := &Challenge{Title: "!!!", DurationDays: 7, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	assert.True(t, strings.HasPrefix(c.Slug, "challenge-"), c.Slug)
	assert.True(t, slug.Valid(c.Slug))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallenge_KeepsGivenSlug(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `challenges`")).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	c := &Challenge{Title: "Plank", Slug: "plank-30", DurationDays: 30, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	assert.Equal(t, "plank-30", c.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}
