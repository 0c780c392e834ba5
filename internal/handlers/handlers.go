package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"study-tracker/internal/auth"
	"study-tracker/internal/models"
	"study-tracker/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
	// ResetTicketDuration is how long a password reset ticket stays valid.
	ResetTicketDuration = 15 * time.Minute
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	templateDir  string
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, templateDir string, secureCookie bool) *Handlers {
	return &Handlers{db: db, templateDir: templateDir, secureCookie: secureCookie}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication. Unauthenticated
// callers are redirected to the login page.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		// Rolling session: renew if past halfway point
		// This keeps active users logged in while still expiring inactive sessions
		now := time.Now()
		timeUntilExpiry := sessionInfo.ExpiresAt.Sub(now)
		halfSessionDuration := SessionDuration / 2

		if timeUntilExpiry < halfSessionDuration {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginViewModel holds data for the login page, which doubles as the
// multi-step password reset form.
type LoginViewModel struct {
	Error            string
	Success          string
	ShowResetForm    bool
	Username         string
	SecurityQuestion string
	ShowPasswordStep bool
	ResetToken       string
}

// LoginForm renders the login page. The forgot=1 query flag switches it to
// the password reset form; reset=1 shows the reset success notice.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	vm := LoginViewModel{
		ShowResetForm: r.URL.Query().Get("forgot") == "1",
	}
	if r.URL.Query().Get("reset") == "1" {
		vm.Success = "Password reset successful! You can now login with your new password."
	}
	h.render(w, "login.html", vm)
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	// One lookup matching both fields; an unknown user and a wrong password
	// are indistinguishable to the caller.
	user, err := h.db.GetUserByCredentials(username, password)
	if err != nil {
		h.render(w, "login.html", LoginViewModel{Error: "Invalid login credentials. Please try again."})
		return
	}

	if err := h.establishSession(w, user.Username); err != nil {
		log.Printf("Failed to establish session: %v", err)
		h.render(w, "login.html", LoginViewModel{Error: "An error occurred. Please try again."})
		return
	}

	http.Redirect(w, r, "/home", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterViewModel holds data for the registration page.
type RegisterViewModel struct {
	Error string
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", RegisterViewModel{})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "register.html", RegisterViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	fullname := r.FormValue("fullname")
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")
	securityQuestion := r.FormValue("security_question")
	securityAnswer := r.FormValue("security_answer")

	if password != confirmPassword {
		h.render(w, "register.html", RegisterViewModel{Error: "Passwords do not match. Please try again."})
		return
	}

	if auth.NormalizeAnswer(securityAnswer) == "" {
		h.render(w, "register.html", RegisterViewModel{Error: "Please provide a security answer."})
		return
	}

	if _, err := h.db.GetUserByUsername(username); err == nil {
		h.render(w, "register.html", RegisterViewModel{Error: "Username is already taken. Please choose a different username."})
		return
	}

	user, err := h.db.CreateUser(username, fullname, password, securityQuestion, auth.NormalizeAnswer(securityAnswer))
	if err != nil {
		// The UNIQUE constraint backs the pre-check against concurrent registrations
		log.Printf("Failed to create user: %v", err)
		h.render(w, "register.html", RegisterViewModel{Error: "Username is already taken. Please choose a different username."})
		return
	}

	if err := h.establishSession(w, user.Username); err != nil {
		log.Printf("Failed to establish session: %v", err)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// ResetPassword drives the multi-step password reset form. The step is
// determined by which fields the request carries:
//
//  1. username only: display the user's security question.
//  2. username + security_answer: verify the answer and issue a short-lived
//     reset ticket carried by the form.
//  3. reset ticket + new passwords: change the password and consume the
//     ticket. Without a valid ticket this step is refused, so submitting all
//     fields at once cannot skip the answer check.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", LoginViewModel{ShowResetForm: true, Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	securityAnswer := r.FormValue("security_answer")
	resetToken := r.FormValue("reset_token")
	newPassword := r.FormValue("new_password")
	confirmPassword := r.FormValue("confirm_password")

	user, err := h.db.GetUserByUsername(username)
	if err != nil {
		h.render(w, "login.html", LoginViewModel{
			ShowResetForm: true,
			Error:         "Username not found.",
			Username:      username,
		})
		return
	}

	questionStep := LoginViewModel{
		ShowResetForm:    true,
		Username:         username,
		SecurityQuestion: user.SecurityQuestion,
	}

	// An answer is verified whenever it is present, regardless of step.
	if securityAnswer != "" && auth.NormalizeAnswer(securityAnswer) != user.SecurityAnswer {
		questionStep.Error = "Incorrect security answer. Please try again."
		h.render(w, "login.html", questionStep)
		return
	}

	if newPassword == "" && confirmPassword == "" {
		if securityAnswer == "" {
			// Step 1: show the security question.
			h.render(w, "login.html", questionStep)
			return
		}
		// Step 2: answer verified above; issue a reset ticket.
		token, err := h.issueResetTicket(user.Username)
		if err != nil {
			log.Printf("Failed to issue reset ticket: %v", err)
			questionStep.Error = "An error occurred. Please try again."
			h.render(w, "login.html", questionStep)
			return
		}
		passwordStep := questionStep
		passwordStep.ShowPasswordStep = true
		passwordStep.ResetToken = token
		h.render(w, "login.html", passwordStep)
		return
	}

	// Step 3: a password change requires a valid, unexpired ticket.
	ticket, err := h.db.GetResetTicket(resetToken)
	if err != nil || ticket.Username != user.Username {
		questionStep.Error = "Reset request is invalid or has expired. Please answer the security question again."
		h.render(w, "login.html", questionStep)
		return
	}

	if newPassword != confirmPassword {
		passwordStep := questionStep
		passwordStep.ShowPasswordStep = true
		passwordStep.ResetToken = resetToken
		passwordStep.Error = "Passwords do not match."
		h.render(w, "login.html", passwordStep)
		return
	}

	if err := h.db.UpdateUserPassword(user.Username, newPassword); err != nil {
		log.Printf("Failed to update password: %v", err)
		questionStep.Error = "An error occurred. Please try again."
		h.render(w, "login.html", questionStep)
		return
	}

	if err := h.db.DeleteResetTicket(resetToken); err != nil {
		log.Printf("Failed to delete reset ticket: %v", err)
	}

	http.Redirect(w, r, "/?reset=1", http.StatusFound)
}

func (h *Handlers) issueResetTicket(username string) (string, error) {
	token, err := auth.GenerateResetToken()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(ResetTicketDuration)
	if err := h.db.CreateResetTicket(token, username, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// HomeViewModel holds data for the home page.
type HomeViewModel struct {
	Username string
	Fullname string
}

// Home renders the home page.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.render(w, "home.html", HomeViewModel{Username: user.Username, Fullname: user.Fullname})
}

func (h *Handlers) establishSession(w http.ResponseWriter, username string) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(SessionDuration)
	if err := h.db.CreateSession(token, username, expiresAt); err != nil {
		return err
	}

	h.setSessionCookie(w, token)
	return nil
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}
