package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"study-tracker/internal/models"
)

// FormViewModel holds data for the study session and break logging forms.
type FormViewModel struct {
	Error string
}

// StudySessionForm renders the study session logging page.
func (h *Handlers) StudySessionForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "study_session.html", FormViewModel{})
}

// SaveStudySession handles the study session form submission. The record is
// stamped with the server's current date, not a client-supplied one.
func (h *Handlers) SaveStudySession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "study_session.html", FormViewModel{Error: "Invalid form submission"})
		return
	}

	course := r.FormValue("course")
	topic := r.FormValue("topic")
	notes := r.FormValue("notes")

	timeIn, timeOut, errMsg := parseTimeRange(r.FormValue("time_in"), r.FormValue("time_out"))
	if errMsg != "" {
		h.render(w, "study_session.html", FormViewModel{Error: errMsg})
		return
	}

	user := GetUserFromContext(r)
	if err := h.db.CreateStudySession(user.Username, course, topic, timeIn, timeOut, today(), notes); err != nil {
		log.Printf("CreateStudySession error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/session", http.StatusFound)
}

// BreakForm renders the break logging page.
func (h *Handlers) BreakForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "break_time.html", FormViewModel{})
}

// SaveBreak handles the break form submission.
func (h *Handlers) SaveBreak(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "break_time.html", FormViewModel{Error: "Invalid form submission"})
		return
	}

	timeIn, timeOut, errMsg := parseTimeRange(r.FormValue("time_in"), r.FormValue("time_out"))
	if errMsg != "" {
		h.render(w, "break_time.html", FormViewModel{Error: errMsg})
		return
	}

	user := GetUserFromContext(r)
	if err := h.db.CreateBreakEntry(user.Username, timeIn, timeOut, today()); err != nil {
		log.Printf("CreateBreakEntry error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/break", http.StatusFound)
}

// TaskItem represents a homework task in the list view.
type TaskItem struct {
	models.HomeworkTask
	Due     string
	Overdue bool
}

// HomeworkViewModel holds data for the homework page.
type HomeworkViewModel struct {
	Error       string
	Tasks       []TaskItem
	CurrentDate string
}

// Homework renders the homework list: incomplete tasks by due date, then
// completed tasks by due date.
func (h *Handlers) Homework(w http.ResponseWriter, r *http.Request) {
	h.renderHomework(w, r, "")
}

func (h *Handlers) renderHomework(w http.ResponseWriter, r *http.Request, errMsg string) {
	user := GetUserFromContext(r)
	tasks, err := h.db.ListHomeworkTasks(user.Username)
	if err != nil {
		log.Printf("ListHomeworkTasks error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := today()
	items := make([]TaskItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, TaskItem{
			HomeworkTask: t,
			Due:          t.DueDate.Format("2006-01-02"),
			Overdue:      !t.IsCompleted && t.DueDate.Before(now),
		})
	}

	h.render(w, "homework.html", HomeworkViewModel{
		Error:       errMsg,
		Tasks:       items,
		CurrentDate: now.Format("2006-01-02"),
	})
}

// SaveHomework handles the homework form submission.
func (h *Handlers) SaveHomework(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderHomework(w, r, "Invalid form submission")
		return
	}

	course := r.FormValue("course")
	taskName := r.FormValue("task_name")

	dueDate, err := time.Parse("2006-01-02", strings.TrimSpace(r.FormValue("due_date")))
	if err != nil {
		h.renderHomework(w, r, "Invalid due date. Please use the YYYY-MM-DD format.")
		return
	}

	user := GetUserFromContext(r)
	if err := h.db.CreateHomeworkTask(user.Username, course, taskName, dueDate); err != nil {
		log.Printf("CreateHomeworkTask error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/homework", http.StatusFound)
}

// CompleteTask toggles a task's completion state. Tasks owned by another
// user are left untouched, but the caller is redirected as if the toggle
// succeeded.
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.lookupTask(w, r)
	if !ok {
		return
	}

	user := GetUserFromContext(r)
	if task.Username == user.Username {
		if err := h.db.ToggleHomeworkTask(task.ID); err != nil {
			log.Printf("ToggleHomeworkTask error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/homework", http.StatusFound)
}

// DeleteTask deletes a task. Same ownership rule as CompleteTask.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.lookupTask(w, r)
	if !ok {
		return
	}

	user := GetUserFromContext(r)
	if task.Username == user.Username {
		if err := h.db.DeleteHomeworkTask(task.ID); err != nil {
			log.Printf("DeleteHomeworkTask error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/homework", http.StatusFound)
}

func (h *Handlers) lookupTask(w http.ResponseWriter, r *http.Request) (*models.HomeworkTask, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return nil, false
	}

	task, err := h.db.GetHomeworkTask(id)
	if err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return nil, false
	}
	return task, true
}

// NoteItem represents a study session note in the notes view.
type NoteItem struct {
	models.StudySession
	Day string
}

// NotesViewModel holds data for the notes page.
type NotesViewModel struct {
	Notes []NoteItem
}

// Notes renders the caller's study session notes, newest date first.
func (h *Handlers) Notes(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	sessions, err := h.db.ListStudySessionsWithNotes(user.Username)
	if err != nil {
		log.Printf("ListStudySessionsWithNotes error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]NoteItem, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, NoteItem{StudySession: s, Day: s.Date.Format("2006-01-02")})
	}

	h.render(w, "notes.html", NotesViewModel{Notes: items})
}

// parseTimeRange validates a pair of HH:MM clock times and returns them
// normalized. The start must be strictly before the end.
func parseTimeRange(timeInStr, timeOutStr string) (timeIn, timeOut, errMsg string) {
	in, err := time.Parse("15:04", strings.TrimSpace(timeInStr))
	if err != nil {
		return "", "", "Invalid time. Please use the HH:MM format."
	}
	out, err := time.Parse("15:04", strings.TrimSpace(timeOutStr))
	if err != nil {
		return "", "", "Invalid time. Please use the HH:MM format."
	}
	if !in.Before(out) {
		return "", "", "The start time must be before the end time."
	}
	return in.Format("15:04"), out.Format("15:04"), ""
}

// today returns the server's current date with the time stripped.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
