package auth

import "net/http"

// Guard enforces session and role preconditions. Handlers call a guard
// method first and return immediately when it reports false; the guard has
// already written the redirect. Guards never mutate session state beyond the
// lazy expiry clear in Current, and never write audit rows.
type Guard struct {
	Sessions *SessionManager
}

// RequireSession returns the current user, or redirects to the login page
// with an informational message and returns false.
func (g *Guard) RequireSession(w http.ResponseWriter, r *http.Request) (*SessionUser, bool) {
	user, ok := g.Sessions.Current(w, r)
	if !ok {
		g.Sessions.AddFlash(w, r, "error", "Please log in first")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

// RequireAdmin applies RequireSession, then requires the admin role. A valid
// non-admin session is redirected to the home page with an access-denied
// message.
func (g *Guard) RequireAdmin(w http.ResponseWriter, r *http.Request) (*SessionUser, bool) {
	user, ok := g.RequireSession(w, r)
	if !ok {
		return nil, false
	}
	if user.Role != RoleAdmin {
		g.Sessions.AddFlash(w, r, "error", "Administrator privileges required")
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}
