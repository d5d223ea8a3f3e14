package controllers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequireVIP(t *testing.T) {
	userSQL := regexp.QuoteMeta("SELECT `id`,`is_vip`,`vip_until` FROM `users`")
	ok := func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) }

	t.Run("admin bypasses lookup", func(t *testing.T) {
		db, mock := newMockDB(t)
		r := gin.New()
		r.GET("/vip", asUser(1, "admin"), NewVIPController(db).RequireVIP(), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vip", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("member passes", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(userSQL).WillReturnRows(
			sqlmock.NewRows([]string{"id", "is_vip", "vip_until"}).AddRow(4, true, nil))
		r := gin.New()
		r.GET("/vip", asUser(4, "dana"), NewVIPController(db).RequireVIP(), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vip", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non member is refused", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(userSQL).WillReturnRows(
			sqlmock.NewRows([]string{"id", "is_vip", "vip_until"}).AddRow(4, false, nil))
		r := gin.New()
		r.GET("/vip", asUser(4, "dana"), NewVIPController(db).RequireVIP(), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vip", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"code":40350`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
