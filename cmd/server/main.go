package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/edulab/elearn-backend/internal/api/http"
	"github.com/edulab/elearn-backend/internal/auth"
	"github.com/edulab/elearn-backend/internal/config"
	"github.com/edulab/elearn-backend/internal/content"
	"github.com/edulab/elearn-backend/internal/db"
	"github.com/edulab/elearn-backend/internal/exam"
	"github.com/edulab/elearn-backend/internal/grading"
	"github.com/edulab/elearn-backend/internal/logger"
	"github.com/edulab/elearn-backend/internal/progress"
	"github.com/edulab/elearn-backend/internal/rbac"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		zlog.Fatal("db open failed", zap.Error(err))
	}
	if err := db.EnsureAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		zlog.Fatal("seed admin failed", zap.Error(err))
	}

	// --- Stores and services ---
	examStore := exam.NewSQLStore(dbh, cfg.DBDriver)
	contentStore := content.NewSQLStore(dbh)
	tracker := progress.NewPropagator(dbh, zlog)
	engine := grading.NewEngine(cfg.PassThresholdPct)
	examSvc := exam.NewService(examStore, engine, tracker, zlog)
	checker := rbac.Default()

	authSvc := auth.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(api.RequestLogger(zlog))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	// Protected API (JWT → authoritative role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh))

		pr.Get("/auth/me", api.MeHandler(dbh))

		pr.Route("/categories", func(cr chi.Router) {
			cr.With(rbac.Require("content:view")).Get("/", api.ListCategoriesHandler(contentStore))
			cr.With(rbac.Require("content:view")).Get("/{categoryID}", api.GetCategoryHandler(contentStore))
			cr.With(rbac.Require("content:view")).Get("/{categoryID}/children", api.ListChildCategoriesHandler(contentStore))
			cr.With(rbac.Require("content:edit")).Post("/", api.CreateCategoryHandler(contentStore))
			cr.With(rbac.Require("content:edit")).Put("/{categoryID}", api.UpdateCategoryHandler(contentStore))
			cr.With(rbac.Require("content:edit")).Delete("/{categoryID}", api.DeleteCategoryHandler(contentStore))
		})

		pr.Route("/articles", func(ar chi.Router) {
			ar.With(rbac.Require("content:view")).Get("/", api.ListArticlesHandler(contentStore))
			ar.With(rbac.Require("content:view")).Get("/category/{categoryID}", api.ListArticlesByCategoryHandler(contentStore))
			ar.With(rbac.Require("content:view")).Get("/{articleID}", api.GetArticleHandler(contentStore, tracker, zlog))
			ar.With(rbac.Require("content:edit")).Post("/", api.CreateArticleHandler(contentStore))
			ar.With(rbac.Require("content:edit")).Put("/{articleID}", api.UpdateArticleHandler(contentStore))
			ar.With(rbac.Require("content:edit")).Delete("/{articleID}", api.DeleteArticleHandler(contentStore))
		})

		pr.Route("/media", func(mr chi.Router) {
			mr.With(rbac.Require("content:view")).Get("/article/{articleID}", api.ListMediaByArticleHandler(contentStore))
			mr.With(rbac.Require("content:edit")).Post("/", api.CreateMediaHandler(contentStore))
			mr.With(rbac.Require("content:edit")).Delete("/{mediaID}", api.DeleteMediaHandler(contentStore))
		})

		pr.Route("/tests", func(tr chi.Router) {
			tr.With(rbac.Require("content:view")).Get("/", api.ListTestsHandler(examStore))
			tr.With(rbac.Require("content:view")).Get("/category/{categoryID}", api.ListTestsByCategoryHandler(examStore))
			tr.With(rbac.Require("content:view")).Get("/full/{testID}", api.GetTestFullHandler(examStore, checker))
			tr.With(rbac.Require("content:view")).Get("/{testID}", api.GetTestHandler(examStore))
			tr.With(rbac.Require("test:edit")).Post("/", api.CreateTestHandler(examStore))
			tr.With(rbac.Require("test:edit")).Post("/full", api.CreateTestFullHandler(examStore))
			tr.With(rbac.Require("test:edit")).Put("/{testID}", api.UpdateTestHandler(examStore))
			tr.With(rbac.Require("test:edit")).Delete("/{testID}", api.DeleteTestHandler(examStore))
		})

		pr.Route("/questions", func(qr chi.Router) {
			qr.With(rbac.Require("test:edit")).Get("/test/{testID}", api.ListQuestionsByTestHandler(examStore))
			qr.With(rbac.Require("test:edit")).Get("/{questionID}", api.GetQuestionHandler(examStore))
			qr.With(rbac.Require("test:edit")).Post("/", api.CreateQuestionHandler(examStore))
			qr.With(rbac.Require("test:edit")).Put("/{questionID}", api.UpdateQuestionHandler(examStore))
			qr.With(rbac.Require("test:edit")).Delete("/{questionID}", api.DeleteQuestionHandler(examStore))
		})

		pr.Route("/options", func(or chi.Router) {
			or.With(rbac.Require("test:edit")).Get("/question/{questionID}", api.ListOptionsByQuestionHandler(examStore))
			or.With(rbac.Require("test:edit")).Post("/", api.CreateOptionHandler(examStore))
			or.With(rbac.Require("test:edit")).Put("/{optionID}", api.UpdateOptionHandler(examStore))
			or.With(rbac.Require("test:edit")).Delete("/{optionID}", api.DeleteOptionHandler(examStore))
		})

		pr.Route("/test-results", func(rr chi.Router) {
			rr.With(rbac.Require("result:submit")).Post("/", api.SubmitResultHandler(examSvc))
			rr.With(rbac.RequireAny("result:view-own", "result:view-all")).Get("/", api.ListResultsHandler(examSvc))
			rr.With(rbac.RequireAny("result:view-own", "result:view-all")).Get("/{resultID}", api.GetResultHandler(examSvc))
			rr.With(rbac.RequireAny("result:view-own", "result:view-all")).Get("/{resultID}/answers", api.ListResultAnswersHandler(examSvc))
			rr.With(rbac.Require("result:delete")).Delete("/{resultID}", api.DeleteResultHandler(examSvc))
		})

		pr.Route("/progress", func(gr chi.Router) {
			gr.With(rbac.Require("progress:view-own")).Get("/", api.ListProgressHandler(tracker))
			gr.With(rbac.Require("progress:update-own")).Put("/", api.UpsertProgressHandler(tracker))
			gr.With(rbac.Require("progress:delete")).Delete("/{progressID}", api.DeleteProgressHandler(tracker))
		})

		pr.Route("/assignments", func(ar chi.Router) {
			ar.With(rbac.RequireAny("assignment:view-own", "assignment:view-all")).Get("/", api.ListAssignmentsHandler(contentStore, checker))
			ar.With(rbac.Require("assignment:manage")).Post("/", api.CreateAssignmentHandler(contentStore))
			ar.With(rbac.Require("assignment:manage")).Delete("/{assignmentID}", api.DeleteAssignmentHandler(contentStore))
		})

		pr.Route("/groups", func(gr chi.Router) {
			gr.With(rbac.Require("group:manage")).Get("/", api.ListGroupsHandler(contentStore))
			gr.With(rbac.Require("group:manage")).Post("/", api.CreateGroupHandler(contentStore))
			gr.With(rbac.Require("group:manage")).Post("/{groupID}/members", api.AddGroupMemberHandler(contentStore))
			gr.With(rbac.Require("group:manage")).Delete("/{groupID}/members/{userID}", api.RemoveGroupMemberHandler(contentStore))
		})

		pr.Route("/users", func(ur chi.Router) {
			ur.With(rbac.Require("user:list")).Get("/", api.ListUsersHandler(dbh))
			ur.With(rbac.Require("user:create")).Post("/", api.CreateUserHandler(dbh))
			ur.With(rbac.Require("user:change_password")).Post("/change-password", api.ChangePasswordHandler(dbh))
		})
	})

	zlog.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("env", cfg.Env),
		zap.String("db", cfg.DBDriver),
	)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
