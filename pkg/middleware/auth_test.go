package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
)

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) CurrentUser() *models.User { return f.user }

func TestRequireSession_Anonymous(t *testing.T) {
	g := gin.New()
	g.GET("/", RequireSession(&fakeUsers{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	assert.Equal(t, "not signed in", body["error"])
}

func TestRequireSession_SetsUser(t *testing.T) {
	g := gin.New()
	var got *models.User
	g.GET("/", RequireSession(&fakeUsers{user: &models.User{ID: "user-1"}}), func(c *gin.Context) {
		got = CurrentUser(c)
		c.Status(http.StatusOK)
	})

	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rw.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.ID)
}

func TestCORS_Preflight(t *testing.T) {
	g := gin.New()
	g.Use(CORS("http://localhost:5173"))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "http://localhost:5173", rw.Header().Get("Access-Control-Allow-Origin"))
}
