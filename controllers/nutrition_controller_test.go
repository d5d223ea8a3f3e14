package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/weightloss/nutrition"
)

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCalculate(t *testing.T) {
	r := gin.New()
	r.POST("/calc", NewNutritionController(nil).Calculate)

	w := postJSON(r, "/calc", `{"gender":"male","age":30,"height":180,"weight":80,
		"activity_level":"sedentary","goal":"maintain"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Targets nutrition.Targets `json:"targets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, nutrition.Targets{
		BaseCalories:   1780,
		TargetCalories: 2136,
		ProteinDaily:   128,
		FatsDaily:      72,
		CarbsDaily:     244,
	}, resp.Data.Targets)
}

func TestCalculate_InvalidInput(t *testing.T) {
	r := gin.New()
	r.POST("/calc", NewNutritionController(nil).Calculate)

	w := postJSON(r, "/calc", `{"gender":"male"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40400`)

	w = postJSON(r, "/calc", `{"gender":"other","age":30,"height":180,"weight":80,
		"activity_level":"sedentary","goal":"maintain"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40401`)
	assert.Contains(t, w.Body.String(), "gender")

	w = postJSON(r, "/calc", `{"gender":"female","age":30,"height":170,"weight":60,
		"activity_level":"couch","goal":"maintain"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40401`)
}

func TestGetGoal_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `nutrition_goals` WHERE user_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	r := gin.New()
	r.GET("/goal", asUser(5, "eve"), NewNutritionController(db).GetGoal)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/goal", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40440`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFoods_SearchIsLiteral(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `foods` WHERE foods.user_id IS NULL AND foods.name LIKE ?")).
		WithArgs(`%50\%\_fat%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `foods` WHERE foods.user_id IS NULL AND foods.name LIKE ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	r := gin.New()
	r.GET("/foods", NewNutritionController(db).ListFoods)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/foods?q=50%25_fat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
