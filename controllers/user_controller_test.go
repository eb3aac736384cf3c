package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gdb, mock
}

func TestGetUserPublicInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)

	router := gin.New()
	router.GET("/users/:username", GetUserPublicInfo(db))

	mock.ExpectQuery(`SELECT \* FROM "player_profiles" WHERE username = \$1`).
		WithArgs("raymie", 1).
		WillReturnRows(sqlmock.NewRows([]string{"username", "user_icon", "total_xp", "box_completions"}).
			AddRow("raymie", 5, 420, 3))

	req, _ := http.NewRequest("GET", "/users/raymie", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Equal(t, "raymie", response["username"])
	assert.Equal(t, float64(5), response["icon"])
	assert.Equal(t, float64(420), response["total_xp"])
	assert.Equal(t, float64(3), response["box_completions"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserPublicInfoNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)

	router := gin.New()
	router.GET("/users/:username", GetUserPublicInfo(db))

	mock.ExpectQuery(`SELECT \* FROM "player_profiles" WHERE username = \$1`).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"username"}))

	req, _ := http.NewRequest("GET", "/users/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
