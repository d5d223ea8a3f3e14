package controllers

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestForumReply_ClosedTopic(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `forum_topics` WHERE `forum_topics`.`id` = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "is_closed"}).
			AddRow(9, "Plateau", "plateau", true))

	r := gin.New()
	r.POST("/topics/:id/posts", asUser(2, "bob"), NewForumController(db).Reply)

	w := postJSON(r, "/topics/9/posts", `{"content":"any tips?"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40340`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForumReply_EmptyContent(t *testing.T) {
	r := gin.New()
	r.POST("/topics/:id/posts", asUser(2, "bob"), NewForumController(nil).Reply)

	w := postJSON(r, "/topics/9/posts", `{"content":"<script>x</script>"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40204`)
}
