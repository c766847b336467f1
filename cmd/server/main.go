package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"planbook/internal/activity"
	"planbook/internal/auth"
	"planbook/internal/config"
	"planbook/internal/database"
	"planbook/internal/entity"
	"planbook/internal/handler"
	"planbook/internal/mailer"
	"planbook/internal/middleware"
	"planbook/internal/repository"
	"planbook/internal/session"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewLessonPlanRepository(db)
	tokenRepo := repository.NewResetTokenRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	sessions := session.NewManager([]byte(cfg.SessionHashKey), []byte(cfg.SessionBlockKey), cfg.SecureCookies)
	authSvc := auth.NewService(userRepo)
	resetSvc := auth.NewPasswordResetService(userRepo, tokenRepo)
	recorder := activity.NewRecorder(activityRepo)

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}

	gate := middleware.NewGate(authSvc, sessions)

	index := handler.NewIndexHandler(cfg.TemplatesDir, authSvc, sessions)
	login := handler.NewLoginHandler(cfg.TemplatesDir, authSvc, sessions, recorder)
	logout := handler.NewLogoutHandler(authSvc, sessions, recorder)
	register := handler.NewRegistrationHandler(cfg.TemplatesDir, userRepo, sessions, recorder)
	reset := handler.NewPasswordResetHandler(cfg.TemplatesDir, resetSvc, sessions, recorder, mail, cfg.BaseURL)
	plans := handler.NewPlanHandler(cfg.TemplatesDir, planRepo, authSvc, sessions, recorder)
	admin := handler.NewAdminHandler(cfg.TemplatesDir, userRepo, planRepo, activityRepo, sessions, recorder)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/", index.Index)
	r.Get("/login", login.LoginPage)
	r.Post("/login", login.Login)
	r.Get("/logout", logout.Logout)
	r.Get("/register", register.RegisterPage)
	r.Post("/register", register.Register)
	r.Get("/forgot-password", reset.ForgotPage)
	r.Post("/forgot-password", reset.Forgot)
	r.Get("/reset-password", reset.ResetPage)
	r.Post("/reset-password", reset.Reset)
	r.Get("/forbidden", handler.Forbidden)

	r.Route("/plans", func(r chi.Router) {
		r.Use(gate.RequireRole(entity.RoleTeacher))
		r.Get("/", plans.List)
		r.Get("/new", plans.NewForm)
		r.Post("/", plans.Create)
		r.Get("/export", plans.ExportCSV)
		r.Get("/{id}", plans.Show)
		r.Get("/{id}/edit", plans.EditForm)
		r.Post("/{id}", plans.Update)
		r.Post("/{id}/delete", plans.Delete)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(gate.RequireRole(entity.RoleAdmin))
		r.Get("/", admin.Dashboard)
		r.Get("/users", admin.Users)
		r.Get("/plans", admin.Plans)
		r.Get("/users/new", admin.UserForm)
		r.Post("/users", admin.CreateUser)
		r.Post("/users/{id}/status", admin.SetStatus)
		r.Get("/import", admin.ImportPage)
		r.Post("/import", admin.Import)
		r.Get("/activity", admin.Activity)
	})

	log.Printf("listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
