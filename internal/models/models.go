package models

import "time"

// User represents a registered account.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Fullname         string `json:"fullname"`
	Password         string `json:"-"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"-"`
}

// StudySession represents a logged study interval.
// TimeIn and TimeOut hold zero-padded 24h clock times ("15:04").
type StudySession struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Course   string    `json:"course"`
	Topic    string    `json:"topic,omitempty"`
	TimeIn   string    `json:"time_in"`
	TimeOut  string    `json:"time_out"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes,omitempty"`
}

// HomeworkTask represents a homework item with a due date.
type HomeworkTask struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Course      string    `json:"course"`
	TaskName    string    `json:"task_name"`
	DueDate     time.Time `json:"due_date"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// BreakEntry represents a logged break interval.
type BreakEntry struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	TimeIn   string    `json:"time_in"`
	TimeOut  string    `json:"time_out"`
	Date     time.Time `json:"date"`
}

// Session represents a logged-in user session.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetTicket represents a short-lived password reset authorization.
type ResetTicket struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
