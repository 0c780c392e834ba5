package storage

import (
	"time"

	"study-tracker/internal/models"
)

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token, username string, expiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, username, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, username, expiresAt, now,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.fullname, u.password, u.security_question, u.security_answer, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.username = u.username
		WHERE s.token = ? AND s.expires_at > ?
	`, token, time.Now())

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Fullname, &u.Password, &u.SecurityQuestion, &u.SecurityAnswer, &lastActivity, &expiresAt); err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		now, newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now())
	return err
}

// CreateResetTicket stores a password reset ticket for a user.
func (db *DB) CreateResetTicket(token, username string, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO reset_tickets (token, username, expires_at) VALUES (?, ?, ?)",
		token, username, expiresAt,
	)
	return err
}

// GetResetTicket retrieves an unexpired reset ticket by token.
func (db *DB) GetResetTicket(token string) (*models.ResetTicket, error) {
	row := db.conn.QueryRow(
		"SELECT token, username, expires_at FROM reset_tickets WHERE token = ? AND expires_at > ?",
		token, time.Now(),
	)

	var t models.ResetTicket
	if err := row.Scan(&t.Token, &t.Username, &t.ExpiresAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteResetTicket removes a reset ticket by token. Tickets are single use;
// a successful password change consumes its ticket.
func (db *DB) DeleteResetTicket(token string) error {
	_, err := db.conn.Exec("DELETE FROM reset_tickets WHERE token = ?", token)
	return err
}
