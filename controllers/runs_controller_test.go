package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSubmitRunUnknownChallenge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)

	rc := &RunsController{DB: db, Achievements: NoopAchievements{}}
	router := sessionRouter()
	router.POST("/auth/runs", rc.SubmitRun)
	cookies := loginCookies(t, router)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("ray@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"email", "profile_username"}).
			AddRow("ray@example.com", "raymie"))
	// No catalog row matches the submitted ids, so nothing gets written
	mock.ExpectQuery(`SELECT \* FROM "challenges" WHERE id = \$1 AND title_id = \$2 AND map_id = \$3`).
		WithArgs(99, 10, 100, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	body := `{"title_id": 10, "map_id": 100, "challenge_id": 99, "round_reached": 30}`
	req, _ := http.NewRequest("POST", "/auth/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
