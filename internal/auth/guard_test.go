package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSessionAnonymous(t *testing.T) {
	g := &Guard{Sessions: NewSessionManager("test-secret")}

	rec := httptest.NewRecorder()
	user, ok := g.RequireSession(rec, httptest.NewRequest(http.MethodGet, "/exams", nil))
	assert.False(t, ok)
	assert.Nil(t, user)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRequireSessionValid(t *testing.T) {
	m := NewSessionManager("test-secret")
	g := &Guard{Sessions: m}
	cookies := signInCookies(t, m, &User{ID: 3, Email: "s@inst.domain", Role: RoleStudent, FullName: "S"}, false)

	rec := httptest.NewRecorder()
	user, ok := g.RequireSession(rec, requestWithCookies(cookies))
	require.True(t, ok)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, http.StatusOK, rec.Code, "no redirect for a valid session")
}

func TestRequireSessionExpired(t *testing.T) {
	m := NewSessionManager("test-secret")
	g := &Guard{Sessions: m}
	base := time.Now()
	m.now = func() time.Time { return base }
	cookies := signInCookies(t, m, &User{ID: 3, Email: "s@inst.domain", Role: RoleStudent, FullName: "S"}, false)

	m.now = func() time.Time { return base.Add(25 * time.Hour) }
	rec := httptest.NewRecorder()
	_, ok := g.RequireSession(rec, requestWithCookies(cookies))
	assert.False(t, ok)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	m := NewSessionManager("test-secret")
	g := &Guard{Sessions: m}
	cookies := signInCookies(t, m, &User{ID: 4, Email: "s@inst.domain", Role: RoleStaff, FullName: "S"}, false)

	rec := httptest.NewRecorder()
	user, ok := g.RequireAdmin(rec, requestWithCookies(cookies))
	assert.False(t, ok)
	assert.Nil(t, user)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))

	// The rejection must not invalidate the session itself.
	rec2 := httptest.NewRecorder()
	_, ok = g.RequireSession(rec2, requestWithCookies(cookies))
	assert.True(t, ok)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	m := NewSessionManager("test-secret")
	g := &Guard{Sessions: m}
	cookies := signInCookies(t, m, &User{ID: 1, Email: "a@inst.domain", Role: RoleAdmin, FullName: "A"}, false)

	rec := httptest.NewRecorder()
	user, ok := g.RequireAdmin(rec, requestWithCookies(cookies))
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, user.Role)
}
