package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"
)

// Denial explains a refused login: the audited reason plus the message shown
// to the user. Unknown-user and wrong-password share a generic message so
// the login form does not leak which emails exist.
type Denial struct {
	Reason   FailureReason
	Severity string
	Message  string
}

// ValidationError marks user-correctable input problems. These surface as
// flash messages and are never logged as system faults.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErr(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ProfessorRegistrar links a newly registered faculty user to the professor
// roster.
type ProfessorRegistrar interface {
	CreateProfessorForUser(ctx context.Context, name string, userID int64) error
}

type Service struct {
	users      *Store
	audit      *AuditStore
	validator  Validator
	professors ProfessorRegistrar
	logger     *slog.Logger
	autoVerify bool
}

func NewService(users *Store, audit *AuditStore, validator Validator, professors ProfessorRegistrar, logger *slog.Logger, autoVerify bool) *Service {
	return &Service{
		users:      users,
		audit:      audit,
		validator:  validator,
		professors: professors,
		logger:     logger,
		autoVerify: autoVerify,
	}
}

const genericCredentialsMsg = "Email or password is incorrect"

// Authenticate runs the login checks in fixed order: domain, control
// characters, existence, active, verified, password. The first failing check
// determines the audited reason and no later check runs. Exactly one audit
// row is written per call.
func (s *Service) Authenticate(ctx context.Context, email, password, remoteAddr string) (*User, *Denial) {
	email = NormalizeEmail(email)

	deny := func(userID *int64, reason FailureReason, severity, message string) *Denial {
		r := reason
		s.audit.Record(ctx, email, false, userID, &r, remoteAddr)
		return &Denial{Reason: reason, Severity: severity, Message: message}
	}

	if !s.validator.ValidEmail(email) {
		return nil, deny(nil, ReasonInvalidDomain, "error",
			fmt.Sprintf("Use your %s email address", s.validator.Domain))
	}
	if HasControlCharacter(email) || HasControlCharacter(password) {
		return nil, deny(nil, ReasonControlChars, "error", "Input contains invalid characters")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, deny(nil, ReasonUserNotFound, "error", genericCredentialsMsg)
		}
		s.logger.Error("look up user", "email", email, "err", err)
		return nil, deny(nil, ReasonDatabaseError, "error", "A system error occurred, please try again later")
	}

	if !user.Active {
		return nil, deny(&user.ID, ReasonInactive, "error",
			"This account has been deactivated, contact an administrator")
	}
	if !user.EmailVerified {
		return nil, deny(&user.ID, ReasonUnverified, "warning",
			"Email address not verified, complete verification first")
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, deny(&user.ID, ReasonWrongPassword, "error", genericCredentialsMsg)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("update last login", "user_id", user.ID, "err", err)
		return nil, deny(&user.ID, ReasonDatabaseError, "error", "A system error occurred, please try again later")
	}
	s.audit.Record(ctx, email, true, &user.ID, nil, remoteAddr)
	return user, nil
}

type Registration struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	Role            Role
	TermsAgreed     bool
}

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// Register validates and creates a new account. New users start active but
// unverified; the caller issues the verification token. Concurrent
// registrations for the same email are resolved by the unique index, so at
// most one call wins and the rest get ErrEmailTaken.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	if reg.Email == "" || reg.Password == "" || reg.ConfirmPassword == "" || reg.FullName == "" || reg.Role == "" {
		return nil, validationErr("All required fields must be filled in")
	}
	if !reg.TermsAgreed {
		return nil, validationErr("You must agree to the terms of use")
	}
	if !s.validator.ValidEmail(reg.Email) {
		return nil, validationErr("Use your %s email address", s.validator.Domain)
	}
	if reg.Password != reg.ConfirmPassword {
		return nil, validationErr("Passwords do not match")
	}
	if len(reg.Password) < 8 {
		return nil, validationErr("Password must be at least 8 characters")
	}
	if !hasLetter.MatchString(reg.Password) || !hasDigit.MatchString(reg.Password) {
		return nil, validationErr("Password must contain both letters and digits")
	}
	if HasControlCharacter(reg.Email) || HasControlCharacter(reg.Password) || HasControlCharacter(reg.FullName) {
		return nil, validationErr("Input contains invalid characters")
	}
	if !selfService(reg.Role) {
		return nil, validationErr("Select a valid account type")
	}
	if n := utf8.RuneCountInString(reg.FullName); n < 2 || n > 50 {
		return nil, validationErr("Full name must be between 2 and 50 characters")
	}

	if _, err := s.users.GetByEmail(ctx, reg.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, reg.Email, hash, reg.Role, reg.FullName, s.autoVerify)
	if err != nil {
		return nil, err
	}

	if reg.Role == RoleFaculty && s.professors != nil {
		if err := s.professors.CreateProfessorForUser(ctx, user.FullName, user.ID); err != nil {
			s.logger.Error("link faculty user to professor roster", "user_id", user.ID, "err", err)
		}
	}
	s.logger.Info("user registered", "email", user.Email, "role", user.Role)
	return user, nil
}

func selfService(r Role) bool {
	for _, allowed := range SelfServiceRoles {
		if r == allowed {
			return true
		}
	}
	return false
}
