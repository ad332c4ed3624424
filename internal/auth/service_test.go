package auth

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examhub/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, filepath.Join(t.TempDir(), "examhub_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn, filepath.Join("..", "..", "sql")))
	return conn
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRegistrar struct {
	names   []string
	userIDs []int64
	err     error
}

func (f *fakeRegistrar) CreateProfessorForUser(ctx context.Context, name string, userID int64) error {
	if f.err != nil {
		return f.err
	}
	f.names = append(f.names, name)
	f.userIDs = append(f.userIDs, userID)
	return nil
}

func newTestService(t *testing.T, conn *sql.DB, registrar ProfessorRegistrar, autoVerify bool) (*Service, *Store, *AuditStore) {
	t.Helper()
	logger := discardLogger()
	users := NewStore(conn)
	audit := NewAuditStore(conn, logger)
	svc := NewService(users, audit, Validator{Domain: "inst.domain"}, registrar, logger, autoVerify)
	return svc, users, audit
}

func createUser(t *testing.T, users *Store, email, password string, role Role, active, verified bool) *User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	u, err := users.Create(context.Background(), email, hash, role, "Test User", verified)
	require.NoError(t, err)
	if !active {
		require.NoError(t, users.SetActive(context.Background(), u.ID, false))
		u.Active = false
	}
	return u
}

func lastAttempt(t *testing.T, audit *AuditStore, email string) LoginAttempt {
	t.Helper()
	attempts, err := audit.RecentByEmail(context.Background(), email, 1)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	return attempts[0]
}

func TestAuthenticateUnknownUser(t *testing.T) {
	conn := newTestDB(t)
	svc, _, audit := newTestService(t, conn, nil, false)

	user, denial := svc.Authenticate(context.Background(), "x@inst.domain", "secret1234", "127.0.0.1")
	assert.Nil(t, user)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonUserNotFound, denial.Reason)
	assert.Equal(t, genericCredentialsMsg, denial.Message)

	at := lastAttempt(t, audit, "x@inst.domain")
	assert.False(t, at.Success)
	require.NotNil(t, at.FailureReason)
	assert.Equal(t, ReasonUserNotFound, *at.FailureReason)
	assert.Nil(t, at.UserID)
	assert.Equal(t, "127.0.0.1", at.RemoteAddr)
}

func TestAuthenticateUnverified(t *testing.T) {
	conn := newTestDB(t)
	svc, users, audit := newTestService(t, conn, nil, false)
	u := createUser(t, users, "new@inst.domain", "secret1234", RoleStudent, true, false)

	user, denial := svc.Authenticate(context.Background(), "new@inst.domain", "secret1234", "127.0.0.1")
	assert.Nil(t, user)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonUnverified, denial.Reason)
	assert.Equal(t, "warning", denial.Severity)

	at := lastAttempt(t, audit, "new@inst.domain")
	require.NotNil(t, at.UserID)
	assert.Equal(t, u.ID, *at.UserID)
}

func TestAuthenticateInactive(t *testing.T) {
	conn := newTestDB(t)
	svc, users, _ := newTestService(t, conn, nil, false)
	createUser(t, users, "off@inst.domain", "secret1234", RoleStudent, false, true)

	_, denial := svc.Authenticate(context.Background(), "off@inst.domain", "secret1234", "127.0.0.1")
	require.NotNil(t, denial)
	assert.Equal(t, ReasonInactive, denial.Reason)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	conn := newTestDB(t)
	svc, users, _ := newTestService(t, conn, nil, false)
	createUser(t, users, "u@inst.domain", "secret1234", RoleStudent, true, true)

	_, denial := svc.Authenticate(context.Background(), "u@inst.domain", "not-the-password1", "127.0.0.1")
	require.NotNil(t, denial)
	assert.Equal(t, ReasonWrongPassword, denial.Reason)
	// Same message as an unknown user, so the form does not reveal which
	// emails exist.
	assert.Equal(t, genericCredentialsMsg, denial.Message)
}

func TestAuthenticateCheckOrder(t *testing.T) {
	conn := newTestDB(t)
	svc, _, _ := newTestService(t, conn, nil, false)

	// Domain is checked before control characters.
	_, denial := svc.Authenticate(context.Background(), "user@evil.com", "pw\x00word1", "127.0.0.1")
	require.NotNil(t, denial)
	assert.Equal(t, ReasonInvalidDomain, denial.Reason)

	// Control characters are checked before user existence.
	_, denial = svc.Authenticate(context.Background(), "ghost@inst.domain", "pw\x00word1", "127.0.0.1")
	require.NotNil(t, denial)
	assert.Equal(t, ReasonControlChars, denial.Reason)
}

func TestAuthenticateSuccess(t *testing.T) {
	conn := newTestDB(t)
	svc, users, audit := newTestService(t, conn, nil, false)
	createUser(t, users, "ok@inst.domain", "secret1234", RoleFaculty, true, true)

	user, denial := svc.Authenticate(context.Background(), "OK@Inst.Domain", "secret1234", "10.0.0.1")
	require.Nil(t, denial)
	require.NotNil(t, user)
	assert.Equal(t, "ok@inst.domain", user.Email)

	stored, err := users.GetByEmail(context.Background(), "ok@inst.domain")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt, "last login must be persisted")

	at := lastAttempt(t, audit, "ok@inst.domain")
	assert.True(t, at.Success)
	assert.Nil(t, at.FailureReason)
}

func TestRegisterValidation(t *testing.T) {
	conn := newTestDB(t)
	svc, _, _ := newTestService(t, conn, nil, false)

	valid := Registration{
		Email:           "new@inst.domain",
		Password:        "secret1234",
		ConfirmPassword: "secret1234",
		FullName:        "New Student",
		Role:            RoleStudent,
		TermsAgreed:     true,
	}

	cases := map[string]func(r *Registration){
		"missing email":       func(r *Registration) { r.Email = "" },
		"terms not agreed":    func(r *Registration) { r.TermsAgreed = false },
		"wrong domain":        func(r *Registration) { r.Email = "new@other.domain" },
		"password mismatch":   func(r *Registration) { r.ConfirmPassword = "different1" },
		"password too short":  func(r *Registration) { r.Password = "ab1"; r.ConfirmPassword = "ab1" },
		"password no digits":  func(r *Registration) { r.Password = "onlyletters"; r.ConfirmPassword = "onlyletters" },
		"password no letters": func(r *Registration) { r.Password = "12345678"; r.ConfirmPassword = "12345678" },
		"control characters":  func(r *Registration) { r.FullName = "New\x00Student" },
		"admin role":          func(r *Registration) { r.Role = RoleAdmin },
		"unknown role":        func(r *Registration) { r.Role = Role("wizard") },
		"name too short":      func(r *Registration) { r.FullName = "X" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			reg := valid
			mutate(&reg)
			_, err := svc.Register(context.Background(), reg)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	user, err := svc.Register(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, user.Role)
	assert.True(t, user.Active)
	assert.False(t, user.EmailVerified)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	conn := newTestDB(t)
	svc, _, _ := newTestService(t, conn, nil, false)

	reg := Registration{
		Email:           "dup@inst.domain",
		Password:        "secret1234",
		ConfirmPassword: "secret1234",
		FullName:        "First In",
		Role:            RoleStudent,
		TermsAgreed:     true,
	}
	_, err := svc.Register(context.Background(), reg)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), reg)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUniqueConstraintRace(t *testing.T) {
	conn := newTestDB(t)
	users := NewStore(conn)
	ctx := context.Background()

	hash, err := HashPassword("secret1234")
	require.NoError(t, err)

	// Two registrations that both passed the existence pre-check; the
	// unique index decides the winner.
	_, err = users.Create(ctx, "race@inst.domain", hash, RoleStudent, "Racer One", false)
	require.NoError(t, err)
	_, err = users.Create(ctx, "race@inst.domain", hash, RoleStudent, "Racer Two", false)
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, "race@inst.domain").Scan(&count))
	assert.Equal(t, 1, count, "no duplicate user row may exist")
}

func TestRegisterFacultyJoinsRoster(t *testing.T) {
	conn := newTestDB(t)
	registrar := &fakeRegistrar{}
	svc, _, _ := newTestService(t, conn, registrar, false)

	user, err := svc.Register(context.Background(), Registration{
		Email:           "prof@inst.domain",
		Password:        "secret1234",
		ConfirmPassword: "secret1234",
		FullName:        "Prof Example",
		Role:            RoleFaculty,
		TermsAgreed:     true,
	})
	require.NoError(t, err)
	require.Len(t, registrar.names, 1)
	assert.Equal(t, "Prof Example", registrar.names[0])
	assert.Equal(t, user.ID, registrar.userIDs[0])
}

func TestRegisterAutoVerify(t *testing.T) {
	conn := newTestDB(t)
	svc, _, _ := newTestService(t, conn, nil, true)

	user, err := svc.Register(context.Background(), Registration{
		Email:           "dev@inst.domain",
		Password:        "secret1234",
		ConfirmPassword: "secret1234",
		FullName:        "Dev User",
		Role:            RoleStudent,
		TermsAgreed:     true,
	})
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
}
