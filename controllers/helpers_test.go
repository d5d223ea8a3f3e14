package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/middleware"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "test-secret", AdminUsernames: []string{"admin"}})
	utils.SetRedis(nil)
}

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

// asUser stands in for AuthRequired in handler tests.
func asUser(id uint, username string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, id)
		ctx.Set(middleware.ContextUsernameKey, username)
		ctx.Next()
	}
}

func ptr(v uint) *uint { return &v }

func TestParsePagination(t *testing.T) {
	tests := []struct {
		page, size       string
		wantPage, wantSz int
	}{
		{"", "", 1, 10},
		{"3", "20", 3, 20},
		{"0", "0", 1, 10},
		{"-2", "101", 1, 10},
		{"x", "100", 1, 100},
	}
	for _, tt := range tests {
		page, size := parsePagination(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page, "page %q", tt.page)
		assert.Equal(t, tt.wantSz, size, "size %q", tt.size)
	}
}

func TestPaginated(t *testing.T) {
	h := paginated([]int{1, 2}, 2, 10, 21)
	p := h["pagination"].(utils.Pagination)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(21), p.Total)

	h = paginated([]int{}, 1, 10, 0)
	assert.Equal(t, 0, h["pagination"].(utils.Pagination).TotalPages)
}

func TestIDParam(t *testing.T) {
	r := gin.New()
	var got uint
	r.GET("/items/:id", func(ctx *gin.Context) {
		got = idParam(ctx, "id")
		ctx.Status(http.StatusNoContent)
	})

	tests := []struct {
		raw  string
		want uint
	}{
		{"42", 42},
		{"0", 0},
		{"-1", 0},
		{"1%20OR%201=1", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		got = 99
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+tt.raw, nil))
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestBuildThread(t *testing.T) {
	comments := []models.Comment{
		{ID: 1, Content: "root"},
		{ID: 2, ParentID: ptr(1), Content: "reply"},
		{ID: 3, ParentID: ptr(2), Content: "nested"},
		{ID: 4, Content: "second root"},
		{ID: 5, ParentID: ptr(1), Content: "another reply"},
	}
	roots, err := buildThread(comments)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	first := roots[0]
	assert.Equal(t, 3, first.ReplyCount)
	require.Len(t, first.Replies, 2)
	assert.Equal(t, uint(2), first.Replies[0].Item.(models.Comment).ID)
	assert.Equal(t, 1, first.Replies[0].ReplyCount)
	assert.Equal(t, uint(3), first.Replies[0].Replies[0].Item.(models.Comment).ID)
	assert.Empty(t, first.Replies[1].Replies)

	assert.Equal(t, 0, roots[1].ReplyCount)
	assert.NotNil(t, roots[1].Replies)
}

func TestBuildThread_Empty(t *testing.T) {
	roots, err := buildThread([]models.ForumPost{})
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestLikeContains(t *testing.T) {
	assert.Equal(t, "%oat%", likeContains("oat"))
	assert.Equal(t, `%100\%%`, likeContains("100%"))
	assert.Equal(t, `%low\_fat%`, likeContains("low_fat"))
	assert.Equal(t, `%a\\b%`, likeContains(`a\b`))
}
