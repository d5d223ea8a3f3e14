package models

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/weightloss/thread"
)

func idRows(ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestCountReplies_OneQueryPerLevel(t *testing.T) {
	db, mock := newMockDB(t)
	levelSQL := regexp.QuoteMeta("SELECT `id` FROM `forum_posts` WHERE parent_id IN")

	mock.ExpectQuery(levelSQL).WithArgs(1).WillReturnRows(idRows(2, 3))
	mock.ExpectQuery(levelSQL).WithArgs(2, 3).WillReturnRows(idRows(4))
	mock.ExpectQuery(levelSQL).WithArgs(4).WillReturnRows(idRows())

	n, err := CountReplies(context.Background(), db, &ForumPost{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountReplies_Cycle(t *testing.T) {
	db, mock := newMockDB(t)
	levelSQL := regexp.QuoteMeta("SELECT `id` FROM `comments` WHERE parent_id IN")

	mock.ExpectQuery(levelSQL).WithArgs(1).WillReturnRows(idRows(2))
	mock.ExpectQuery(levelSQL).WithArgs(2).WillReturnRows(idRows(1))

	_, err := CountReplies(context.Background(), db, &Comment{}, 1)
	assert.ErrorIs(t, err, thread.ErrCycle)
}

func TestCountReplies_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `vip_comments`")).WillReturnError(boom)

	_, err := CountReplies(context.Background(), db, &VIPComment{}, 9)
	assert.ErrorIs(t, err, boom)
}

func TestIndexOf(t *testing.T) {
	one, two := uint(1), uint(2)
	comments := []RecipeComment{
		{ID: 1},
		{ID: 2, ParentID: &one},
		{ID: 3, ParentID: &one},
		{ID: 4, ParentID: &two},
		{ID: 5},
	}
	ix := IndexOf(comments)
	assert.Equal(t, []uint{1, 5}, ix.Roots())

	counts, err := ix.Counts()
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 3, 2: 1}, counts)
}
