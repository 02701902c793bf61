package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubUsers struct {
	users map[string]models.User
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return user, nil
}

func guardRouter(users *stubUsers, guard gin.HandlerFunc, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected",
		func(c *gin.Context) { c.Set(CtxEmail, email) },
		guard,
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	return r
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	return w
}

func TestRequireActiveBlocksBlockedAccounts(t *testing.T) {
	users := &stubUsers{users: map[string]models.User{
		"blocked@x.com": {Email: "blocked@x.com", Role: models.RoleCitizen, IsBlocked: true},
		"ok@x.com":      {Email: "ok@x.com", Role: models.RoleCitizen},
	}}

	w := hit(guardRouter(users, RequireActive(users), "blocked@x.com"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "blocked")

	w = hit(guardRouter(users, RequireActive(users), "ok@x.com"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireActiveUnknownAccount(t *testing.T) {
	users := &stubUsers{users: map[string]models.User{}}
	w := hit(guardRouter(users, RequireActive(users), "ghost@x.com"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	users := &stubUsers{users: map[string]models.User{
		"ad@x.com": {Email: "ad@x.com", Role: models.RoleAdmin},
		"s@x.com":  {Email: "s@x.com", Role: models.RoleStaff},
	}}

	assert.Equal(t, http.StatusOK, hit(guardRouter(users, RequireAdmin(users), "ad@x.com")).Code)
	assert.Equal(t, http.StatusForbidden, hit(guardRouter(users, RequireAdmin(users), "s@x.com")).Code)
}

func TestRequireStaffAdmitsStaffAndAdmin(t *testing.T) {
	users := &stubUsers{users: map[string]models.User{
		"ad@x.com": {Email: "ad@x.com", Role: models.RoleAdmin},
		"s@x.com":  {Email: "s@x.com", Role: models.RoleStaff},
		"c@x.com":  {Email: "c@x.com", Role: models.RoleCitizen},
	}}

	assert.Equal(t, http.StatusOK, hit(guardRouter(users, RequireStaff(users), "s@x.com")).Code)
	assert.Equal(t, http.StatusOK, hit(guardRouter(users, RequireStaff(users), "ad@x.com")).Code)
	assert.Equal(t, http.StatusForbidden, hit(guardRouter(users, RequireStaff(users), "c@x.com")).Code)
}
