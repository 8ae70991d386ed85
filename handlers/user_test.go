package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkthreads/events"
	"talkthreads/middleware"
	"talkthreads/models"
)

func TestUpsertUserKeepsFirstWrite(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/user", gin.H{"email": "a@x.com", "userName": "Ann", "role": "user"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decode[models.InsertResult](t, w).InsertedID)

	w = ts.do(t, http.MethodPut, "/user", gin.H{"email": "a@x.com", "userName": "Mallory", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"user already exists","insertedId":null}`, w.Body.String())

	user := decode[models.User](t, ts.do(t, http.MethodGet, "/user/a@x.com", nil))
	assert.Equal(t, "Ann", user.UserName)
	assert.Equal(t, "user", user.Role)

	assert.Equal(t, []events.Type{events.UserCreated}, ts.events.types())
}

func TestUpsertUserIgnoresPrivilegedFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/user", gin.H{
		"email":       "mallory@x.com",
		"userName":    "Mallory",
		"premiumUser": true,
		"role":        "admin",
		"badge":       "gold",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	user := decode[models.User](t, ts.do(t, http.MethodGet, "/user/mallory@x.com", nil))
	assert.Equal(t, "Mallory", user.UserName)
	assert.False(t, user.PremiumUser)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.Badge)
	assert.JSONEq(t, `{"admin":false}`, ts.do(t, http.MethodGet, "/users/admin/mallory@x.com", nil).Body.String())
}

func TestUpsertUserRequiresEmail(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/user", gin.H{"userName": "Ann"}).Code)
}

func TestUpdateRoleMergesAndUpserts(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPut, "/user", gin.H{"email": "a@x.com", "userName": "Ann"})

	w := ts.do(t, http.MethodPatch, "/update-role/a@x.com", gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[models.UpdateResult](t, w).MatchedCount)

	user := decode[models.User](t, ts.do(t, http.MethodGet, "/user/a@x.com", nil))
	assert.Equal(t, "admin", user.Role)
	assert.Equal(t, "Ann", user.UserName)

	w = ts.do(t, http.MethodPatch, "/update-role/new@x.com", gin.H{"badge": "gold"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[models.UpdateResult](t, w).UpsertedCount)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPatch, "/update-role/a@x.com", gin.H{}).Code)
}

func TestUsersListingAndCount(t *testing.T) {
	ts := newTestServer(t)
	for _, name := range []string{"Ann", "Annabel", "Bob"} {
		ts.do(t, http.MethodPut, "/user", gin.H{"email": name + "@x.com", "userName": name})
	}

	users := decode[[]models.User](t, ts.do(t, http.MethodGet, "/users?search=ann", nil))
	assert.Len(t, users, 2)

	users = decode[[]models.User](t, ts.do(t, http.MethodGet, "/users?size=2&page=2", nil))
	assert.Len(t, users, 1)

	assert.JSONEq(t, `{"count":3}`, ts.do(t, http.MethodGet, "/users-count", nil).Body.String())
	assert.JSONEq(t, `{"count":2}`, ts.do(t, http.MethodGet, "/users-count?search=ANN", nil).Body.String())
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/user/ghost@x.com", nil).Code)
}

func TestIsAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPatch, "/update-role/boss@x.com", gin.H{"role": "admin"})
	ts.do(t, http.MethodPut, "/user", gin.H{"email": "a@x.com"})

	assert.JSONEq(t, `{"admin":true}`, ts.do(t, http.MethodGet, "/users/admin/boss@x.com", nil).Body.String())
	assert.JSONEq(t, `{"admin":false}`, ts.do(t, http.MethodGet, "/users/admin/a@x.com", nil).Body.String())
	assert.JSONEq(t, `{"admin":false}`, ts.do(t, http.MethodGet, "/users/admin/ghost@x.com", nil).Body.String())
}

func TestIssueTokenNeedsVerifiedIdentity(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPatch, "/update-role/boss@x.com", gin.H{"role": "admin"})

	// naming an admin is not enough
	w := ts.do(t, http.MethodPost, "/jwt", gin.H{"email": "boss@x.com"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := middleware.IssueToken("guessed", "boss@x.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/jwt", gin.H{"idToken": forged}).Code)

	// a session token cannot be replayed as an identity token
	session, err := middleware.IssueToken(testJWTSecret, "boss@x.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/jwt", gin.H{"idToken": session}).Code)

	expired, err := middleware.IssueToken(testIdentitySecret, "boss@x.com", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/jwt", gin.H{"idToken": expired}).Code)
}

func TestIssueTokenForVerifiedIdentity(t *testing.T) {
	ts := newTestServer(t)

	idToken, err := middleware.IssueToken(testIdentitySecret, "a@x.com", time.Hour)
	require.NoError(t, err)

	w := ts.do(t, http.MethodPost, "/jwt", gin.H{"idToken": idToken, "email": "boss@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["token"]

	claims := &middleware.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email, "the body email is ignored")
}
