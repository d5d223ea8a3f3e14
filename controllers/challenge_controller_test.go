package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

var challengeColumns = []string{"id", "title", "slug", "description", "duration_days", "is_active", "created_at"}

func TestListChallenges(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `challenges` WHERE is_active = ?")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `challenges` WHERE is_active = ? ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(challengeColumns).
			AddRow(2, "Plank", "plank", "hold it", 30, true, now).
			AddRow(1, "No sugar", "no-sugar", "none", 21, true, now.Add(-time.Hour)))

	r := gin.New()
	r.GET("/challenges", NewChallengeController(db).ListChallenges)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/challenges", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Items      []models.Challenge `json:"items"`
			Pagination utils.Pagination   `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "plank", resp.Data.Items[0].Slug)
	assert.Equal(t, uint(30), resp.Data.Items[0].DurationDays)
	assert.Equal(t, utils.Pagination{Page: 1, PageSize: 6, Total: 7, TotalPages: 2}, resp.Data.Pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChallenge(t *testing.T) {
	activeSQL := regexp.QuoteMeta("SELECT * FROM `challenges` WHERE slug = ? AND is_active = ?")
	anySQL := regexp.QuoteMeta("SELECT * FROM `challenges` WHERE slug = ?")

	t.Run("active", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(activeSQL).
			WillReturnRows(sqlmock.NewRows(challengeColumns).AddRow(2, "Plank", "plank", "hold it", 30, true, time.Now()))
		r := gin.New()
		r.GET("/challenges/:slug", NewChallengeController(db).GetChallenge)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/challenges/plank", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"duration":30`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive is hidden from visitors", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(activeSQL).WillReturnRows(sqlmock.NewRows(challengeColumns))
		r := gin.New()
		r.GET("/challenges/:slug", asUser(4, "dana"), NewChallengeController(db).GetChallenge)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/challenges/old", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":40900`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin sees inactive", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(activeSQL).WillReturnRows(sqlmock.NewRows(challengeColumns))
		mock.ExpectQuery(anySQL).
			WillReturnRows(sqlmock.NewRows(challengeColumns).AddRow(5, "Old", "old", "archived", 10, false, time.Now()))
		r := gin.New()
		r.GET("/challenges/:slug", asUser(1, "admin"), NewChallengeController(db).GetChallenge)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/challenges/old", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":false`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateChallenge(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `challenges` WHERE slug = ?")).
		WithArgs("30-dney-planki").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `challenges`")).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	r := gin.New()
	r.POST("/admin/challenges", asUser(1, "admin"), NewChallengeController(db).CreateChallenge)

	w := postJSON(r, "/admin/challenges", `{"title":"30 дней планки","description":"<b>daily</b>","duration":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Challenge models.Challenge `json:"challenge"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(8), resp.Data.Challenge.ID)
	assert.Equal(t, "30-dney-planki", resp.Data.Challenge.Slug)
	assert.True(t, resp.Data.Challenge.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateChallenge_InvalidPayload(t *testing.T) {
	r := gin.New()
	r.POST("/admin/challenges", asUser(1, "admin"), NewChallengeController(nil).CreateChallenge)

	w := postJSON(r, "/admin/challenges", `{"title":"Plank","description":"x","duration":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40901`)
}
