package main

import (
	"log"
	"net/http"
	"os"

	"study-tracker/internal/auth"
	"study-tracker/internal/handlers"
	"study-tracker/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	dbPath := getEnv("DB_PATH", "study_tracker.db")
	port := getEnv("PORT", "8080")

	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// The store starts empty on every run
	if err := db.Reset(); err != nil {
		log.Fatalf("Failed to reset database: %v", err)
	}

	if err := seedAdminUser(db); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	secureCookie := os.Getenv("SECURE_COOKIE") == "true"
	h := handlers.NewHandlers(db, "web/templates", secureCookie)

	mux := setupRouter(h, "web/static")

	log.Printf("Listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /{$}", h.LoginForm)
	mux.HandleFunc("POST /{$}", h.Login)
	mux.HandleFunc("POST /reset_password", h.ResetPassword)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /logout", h.Logout)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}

	mux.Handle("GET /home", protected(h.Home))
	mux.Handle("GET /session", protected(h.StudySessionForm))
	mux.Handle("POST /save_study_session", protected(h.SaveStudySession))
	mux.Handle("GET /homework", protected(h.Homework))
	mux.Handle("POST /save_homework", protected(h.SaveHomework))
	mux.Handle("GET /complete_task/{id}", protected(h.CompleteTask))
	mux.Handle("GET /delete_task/{id}", protected(h.DeleteTask))
	mux.Handle("GET /break", protected(h.BreakForm))
	mux.Handle("POST /save_break", protected(h.SaveBreak))
	mux.Handle("GET /notes", protected(h.Notes))
	mux.Handle("GET /summary", protected(h.Summary))

	return mux
}

// seedAdminUser creates an initial account from ADMIN_USER/ADMIN_PASSWORD.
// The store is wiped on startup, so deployments need a way back in without
// the registration form.
func seedAdminUser(db *storage.DB) error {
	username := os.Getenv("ADMIN_USER")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	fullname := getEnv("ADMIN_FULLNAME", username)
	question := getEnv("ADMIN_SECURITY_QUESTION", "What is your username?")
	answer := getEnv("ADMIN_SECURITY_ANSWER", username)

	_, err := db.CreateUser(username, fullname, password, question, auth.NormalizeAnswer(answer))
	if err != nil {
		return err
	}
	log.Printf("Seeded admin user %s", username)
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
