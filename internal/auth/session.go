package auth

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const sessionName = "examhub_session"

const (
	// ShortLifetime applies to ordinary logins.
	ShortLifetime = 24 * time.Hour
	// LongLifetime applies when the user asked to be remembered.
	LongLifetime = 30 * 24 * time.Hour
)

// SessionUser is the identity carried in the cookie session.
type SessionUser struct {
	ID       int64
	Email    string
	Role     Role
	FullName string
	LoginAt  time.Time
	Remember bool
}

func (u *SessionUser) Lifetime() time.Duration {
	if u.Remember {
		return LongLifetime
	}
	return ShortLifetime
}

// Flash is a one-shot status message rendered on the next page.
type Flash struct {
	Severity string // success, error, warning, info
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// SessionManager owns the signed-cookie session. All state is request
// scoped: the manager loads and saves the cookie per request and keeps
// nothing in process memory beyond the signing key.
type SessionManager struct {
	store *sessions.CookieStore
	now   func() time.Time
}

func NewSessionManager(secret string) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, now: time.Now}
}

func (m *SessionManager) get(r *http.Request) *sessions.Session {
	// A stale or tampered cookie decodes to an error plus a fresh session;
	// the fresh session is all we need.
	s, _ := m.store.Get(r, sessionName)
	return s
}

// Current returns the authenticated user for this request, if any. Expiry is
// checked lazily here: a session older than its configured lifetime is
// cleared and the request proceeds as anonymous.
func (m *SessionManager) Current(w http.ResponseWriter, r *http.Request) (*SessionUser, bool) {
	s := m.get(r)
	id, ok := s.Values["user_id"].(int64)
	if !ok {
		return nil, false
	}
	loginAtStr, _ := s.Values["login_time"].(string)
	loginAt, err := time.Parse(time.RFC3339, loginAtStr)
	if err != nil {
		m.clear(w, r, s)
		return nil, false
	}
	remember, _ := s.Values["remember"].(bool)
	u := &SessionUser{
		ID:       id,
		Email:    stringValue(s, "email"),
		Role:     Role(stringValue(s, "role")),
		FullName: stringValue(s, "full_name"),
		LoginAt:  loginAt,
		Remember: remember,
	}
	if m.now().Sub(u.LoginAt) > u.Lifetime() {
		m.clear(w, r, s)
		return nil, false
	}
	return u, true
}

// SignIn discards any prior session state and binds the session to user.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, user *User, remember bool) error {
	s := m.get(r)
	s.Values = map[interface{}]interface{}{}
	s.Values["user_id"] = user.ID
	s.Values["email"] = user.Email
	s.Values["role"] = string(user.Role)
	s.Values["full_name"] = user.FullName
	s.Values["login_time"] = m.now().UTC().Format(time.RFC3339)
	s.Values["remember"] = remember
	if remember {
		s.Options.MaxAge = int(LongLifetime.Seconds())
	} else {
		s.Options.MaxAge = int(ShortLifetime.Seconds())
	}
	return s.Save(r, w)
}

func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	return m.clear(w, r, s)
}

func (m *SessionManager) clear(w http.ResponseWriter, r *http.Request, s *sessions.Session) error {
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// Present reports whether the request's cookie carries an identity at all,
// expired or not. Pages that only need to know a user was here, like the
// logout farewell, key on this instead of Current.
func (m *SessionManager) Present(r *http.Request) bool {
	_, ok := m.get(r).Values["user_id"].(int64)
	return ok
}

// restoreMaxAge re-derives the cookie lifetime before a save. The store
// hands every request a session with the default options, so a flash save
// on an authenticated session would otherwise downgrade a remembered
// 30-day cookie to a browser-session one.
func restoreMaxAge(s *sessions.Session) {
	if _, ok := s.Values["user_id"].(int64); ok {
		if remember, _ := s.Values["remember"].(bool); remember {
			s.Options.MaxAge = int(LongLifetime.Seconds())
		} else {
			s.Options.MaxAge = int(ShortLifetime.Seconds())
		}
		return
	}
	if s.Options.MaxAge < 0 {
		// Flash added right after a sign-out; keep the cookie for one
		// browser session so the message still shows.
		s.Options.MaxAge = 0
	}
}

// AddFlash queues a status message for the next rendered page.
func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, severity, message string) {
	s := m.get(r)
	restoreMaxAge(s)
	s.AddFlash(Flash{Severity: severity, Message: message})
	_ = s.Save(r, w)
}

// TakeFlashes drains and returns queued messages.
func (m *SessionManager) TakeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := m.get(r)
	raw := s.Flashes()
	if len(raw) > 0 {
		restoreMaxAge(s)
		_ = s.Save(r, w)
	}
	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

func stringValue(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}
