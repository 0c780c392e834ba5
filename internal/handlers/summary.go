package handlers

import (
	"log"
	"net/http"
	"time"

	"study-tracker/internal/models"
)

// SessionItem represents a study session row in the summary view.
type SessionItem struct {
	models.StudySession
	Day string
}

// BreakItem represents a break row in the summary view.
type BreakItem struct {
	models.BreakEntry
	Day string
}

// UserSummary groups one user's logged activity.
type UserSummary struct {
	Username      string
	Fullname      string
	IsCaller      bool
	StudySessions []SessionItem
	Breaks        []BreakItem
}

// SummaryViewModel holds data for the study summary page.
type SummaryViewModel struct {
	CurrentDate string
	Users       []UserSummary
}

// Summary renders the cross-user study summary. Every authenticated user
// sees every user's sessions and breaks; the caller's own summary is listed
// first, the rest keep their stored order.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	caller := GetUserFromContext(r)

	users, err := h.db.ListUsers()
	if err != nil {
		log.Printf("ListUsers error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ordered := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Username == caller.Username {
			ordered = append([]models.User{u}, ordered...)
		} else {
			ordered = append(ordered, u)
		}
	}

	summaries := make([]UserSummary, 0, len(ordered))
	for _, u := range ordered {
		sessions, err := h.db.ListStudySessions(u.Username)
		if err != nil {
			log.Printf("ListStudySessions error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		breaks, err := h.db.ListBreakEntries(u.Username)
		if err != nil {
			log.Printf("ListBreakEntries error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		summary := UserSummary{
			Username: u.Username,
			Fullname: u.Fullname,
			IsCaller: u.Username == caller.Username,
		}
		for _, s := range sessions {
			summary.StudySessions = append(summary.StudySessions, SessionItem{StudySession: s, Day: s.Date.Format("2006-01-02")})
		}
		for _, b := range breaks {
			summary.Breaks = append(summary.Breaks, BreakItem{BreakEntry: b, Day: b.Date.Format("2006-01-02")})
		}
		summaries = append(summaries, summary)
	}

	h.render(w, "study_summary.html", SummaryViewModel{
		CurrentDate: time.Now().Format("2006-01-02"),
		Users:       summaries,
	})
}
