package storage

import (
	"database/sql"
	"time"

	"study-tracker/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single connection keeps the foreign_keys pragma in effect everywhere
	// and serializes writes, which sqlite requires anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	// Record tables reference users(username); enforce it.
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			fullname TEXT NOT NULL,
			password TEXT NOT NULL,
			security_question TEXT NOT NULL,
			security_answer TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS study_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			course TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			time_in TEXT NOT NULL,
			time_out TEXT NOT NULL,
			date DATETIME NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (username) REFERENCES users(username)
		)`,
		`CREATE TABLE IF NOT EXISTS homework_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			course TEXT NOT NULL,
			task_name TEXT NOT NULL,
			due_date DATETIME NOT NULL,
			is_completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (username) REFERENCES users(username)
		)`,
		`CREATE TABLE IF NOT EXISTS break_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			time_in TEXT NOT NULL,
			time_out TEXT NOT NULL,
			date DATETIME NOT NULL,
			FOREIGN KEY (username) REFERENCES users(username)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS reset_tickets (
			token TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Reset drops all tables and recreates them, wiping stored data.
// The server calls this once at startup.
func (db *DB) Reset() error {
	drops := []string{
		"DROP TABLE IF EXISTS reset_tickets",
		"DROP TABLE IF EXISTS sessions",
		"DROP TABLE IF EXISTS break_entries",
		"DROP TABLE IF EXISTS homework_tasks",
		"DROP TABLE IF EXISTS study_sessions",
		"DROP TABLE IF EXISTS users",
	}
	for _, d := range drops {
		if _, err := db.conn.Exec(d); err != nil {
			return err
		}
	}
	return db.migrate()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser creates a new user. The security answer is stored as given;
// callers normalize it first.
func (db *DB) CreateUser(username, fullname, password, securityQuestion, securityAnswer string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (username, fullname, password, security_question, security_answer) VALUES (?, ?, ?, ?, ?)",
		username, fullname, password, securityQuestion, securityAnswer,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, fullname, password, security_question, security_answer FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, fullname, password, security_question, security_answer FROM users WHERE username = ?",
		username,
	)
	return scanUser(row)
}

// GetUserByCredentials retrieves the user whose username and password both
// match. Passwords are compared verbatim; there is no hashing in this schema.
func (db *DB) GetUserByCredentials(username, password string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, fullname, password, security_question, security_answer FROM users WHERE username = ? AND password = ?",
		username, password,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Fullname, &u.Password, &u.SecurityQuestion, &u.SecurityAnswer); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserPassword overwrites a user's password in place.
func (db *DB) UpdateUserPassword(username, newPassword string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET password = ? WHERE username = ?",
		newPassword, username,
	)
	return err
}

// ListUsers retrieves all users in insertion order.
func (db *DB) ListUsers() ([]models.User, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, fullname, password, security_question, security_answer FROM users ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname, &u.Password, &u.SecurityQuestion, &u.SecurityAnswer); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateStudySession inserts a new study session record.
func (db *DB) CreateStudySession(username, course, topic, timeIn, timeOut string, date time.Time, notes string) error {
	_, err := db.conn.Exec(
		"INSERT INTO study_sessions (username, course, topic, time_in, time_out, date, notes) VALUES (?, ?, ?, ?, ?, ?, ?)",
		username, course, topic, timeIn, timeOut, date, notes,
	)
	return err
}

// ListStudySessions retrieves all study sessions for a user in insertion order.
func (db *DB) ListStudySessions(username string) ([]models.StudySession, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, course, topic, time_in, time_out, date, notes FROM study_sessions WHERE username = ? ORDER BY id",
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStudySessions(rows)
}

// ListStudySessionsWithNotes retrieves the user's study sessions that carry
// a non-empty note, newest date first.
func (db *DB) ListStudySessionsWithNotes(username string) ([]models.StudySession, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, course, topic, time_in, time_out, date, notes FROM study_sessions WHERE username = ? AND notes <> '' ORDER BY date DESC",
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStudySessions(rows)
}

func scanStudySessions(rows *sql.Rows) ([]models.StudySession, error) {
	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		if err := rows.Scan(&s.ID, &s.Username, &s.Course, &s.Topic, &s.TimeIn, &s.TimeOut, &s.Date, &s.Notes); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// CreateHomeworkTask inserts a new homework task, initially incomplete.
func (db *DB) CreateHomeworkTask(username, course, taskName string, dueDate time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO homework_tasks (username, course, task_name, due_date, is_completed, created_at) VALUES (?, ?, ?, ?, 0, ?)",
		username, course, taskName, dueDate, time.Now(),
	)
	return err
}

// GetHomeworkTask retrieves a single homework task by ID.
func (db *DB) GetHomeworkTask(id int64) (*models.HomeworkTask, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, course, task_name, due_date, is_completed, created_at FROM homework_tasks WHERE id = ?",
		id,
	)

	var t models.HomeworkTask
	if err := row.Scan(&t.ID, &t.Username, &t.Course, &t.TaskName, &t.DueDate, &t.IsCompleted, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListHomeworkTasks retrieves a user's homework: incomplete tasks ordered by
// due date, then completed tasks ordered by due date. Two queries on purpose;
// the list groups by completion before due date.
func (db *DB) ListHomeworkTasks(username string) ([]models.HomeworkTask, error) {
	incomplete, err := db.queryHomeworkTasks(username, false)
	if err != nil {
		return nil, err
	}
	completed, err := db.queryHomeworkTasks(username, true)
	if err != nil {
		return nil, err
	}
	return append(incomplete, completed...), nil
}

func (db *DB) queryHomeworkTasks(username string, completed bool) ([]models.HomeworkTask, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, course, task_name, due_date, is_completed, created_at FROM homework_tasks WHERE username = ? AND is_completed = ? ORDER BY due_date",
		username, completed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.HomeworkTask
	for rows.Next() {
		var t models.HomeworkTask
		if err := rows.Scan(&t.ID, &t.Username, &t.Course, &t.TaskName, &t.DueDate, &t.IsCompleted, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ToggleHomeworkTask flips a task's completion state.
func (db *DB) ToggleHomeworkTask(id int64) error {
	_, err := db.conn.Exec(
		"UPDATE homework_tasks SET is_completed = NOT is_completed WHERE id = ?",
		id,
	)
	return err
}

// DeleteHomeworkTask removes a task by ID.
func (db *DB) DeleteHomeworkTask(id int64) error {
	_, err := db.conn.Exec("DELETE FROM homework_tasks WHERE id = ?", id)
	return err
}

// CreateBreakEntry inserts a new break record.
func (db *DB) CreateBreakEntry(username, timeIn, timeOut string, date time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO break_entries (username, time_in, time_out, date) VALUES (?, ?, ?, ?)",
		username, timeIn, timeOut, date,
	)
	return err
}

// ListBreakEntries retrieves all break entries for a user in insertion order.
func (db *DB) ListBreakEntries(username string) ([]models.BreakEntry, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, time_in, time_out, date FROM break_entries WHERE username = ? ORDER BY id",
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.BreakEntry
	for rows.Next() {
		var b models.BreakEntry
		if err := rows.Scan(&b.ID, &b.Username, &b.TimeIn, &b.TimeOut, &b.Date); err != nil {
			return nil, err
		}
		entries = append(entries, b)
	}
	return entries, rows.Err()
}
