package auth

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// AuditStore appends login attempts. Rows are immutable once written and
// recording is best-effort: a storage failure never blocks the login flow.
type AuditStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAuditStore(database *sql.DB, logger *slog.Logger) *AuditStore {
	return &AuditStore{db: database, logger: logger}
}

func (a *AuditStore) Record(ctx context.Context, email string, success bool, userID *int64, reason *FailureReason, remoteAddr string) {
	const q = `
		INSERT INTO login_attempts (email, success, user_id, failure_reason, remote_addr, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var reasonVal sql.NullString
	if reason != nil {
		reasonVal = sql.NullString{String: string(*reason), Valid: true}
	}
	var userVal sql.NullInt64
	if userID != nil {
		userVal = sql.NullInt64{Int64: *userID, Valid: true}
	}
	_, err := a.db.ExecContext(ctx, q, NormalizeEmail(email), success, userVal, reasonVal, remoteAddr, time.Now().UTC())
	if err != nil {
		a.logger.Error("record login attempt", "email", email, "err", err)
	}
}

// RecentByEmail returns the newest attempts for an email, for the profile
// page's login history.
func (a *AuditStore) RecentByEmail(ctx context.Context, email string, limit int) ([]LoginAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const q = `
		SELECT id, email, success, user_id, failure_reason, remote_addr, timestamp
		FROM login_attempts
		WHERE email = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := a.db.QueryContext(ctx, q, NormalizeEmail(email), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LoginAttempt
	for rows.Next() {
		var at LoginAttempt
		var userID sql.NullInt64
		var reason sql.NullString
		if err := rows.Scan(&at.ID, &at.Email, &at.Success, &userID, &reason, &at.RemoteAddr, &at.Timestamp); err != nil {
			return nil, err
		}
		if userID.Valid {
			id := userID.Int64
			at.UserID = &id
		}
		if reason.Valid {
			r := FailureReason(reason.String)
			at.FailureReason = &r
		}
		result = append(result, at)
	}
	return result, rows.Err()
}
