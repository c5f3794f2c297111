package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/studyhall/studyhall-lms/internal/api/http"
	"github.com/studyhall/studyhall-lms/internal/attempt"
	auth "github.com/studyhall/studyhall-lms/internal/auth/middleware"
	"github.com/studyhall/studyhall-lms/internal/config"
	"github.com/studyhall/studyhall-lms/internal/db"
	"github.com/studyhall/studyhall-lms/internal/generate"
	"github.com/studyhall/studyhall-lms/internal/rbac"
	"github.com/studyhall/studyhall-lms/internal/store"
	syncx "github.com/studyhall/studyhall-lms/internal/sync"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found")
	}
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	docs := store.NewSQLDocStore(dbh)

	gwOpts := []store.GatewayOption{
		store.WithEventLog(syncx.NewEventRepo(dbh)),
	}
	if cfg.RedisAddr != "" {
		gwOpts = append(gwOpts, store.WithQuizCache(store.NewQuizCache(cfg.RedisAddr)))
	}
	gw := store.NewGateway(docs, gwOpts...)

	// --- Quiz generation ---
	var ai generate.Completer
	if cfg.OpenAIKey != "" {
		ai = generate.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
	} else {
		log.Printf("OPENAI_API_KEY not set; quiz generation uses the offline template bank")
	}
	genSvc := generate.NewService(ai,
		generate.WithTimeout(time.Duration(cfg.GenerationTimeoutSec)*time.Second))

	// --- Attempt sessions ---
	mgr := attempt.NewManager(gw)

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	creds := auth.Credentials{
		Hashes: map[string]string{
			cfg.AdminUser:   cfg.AdminPassHash,
			cfg.LearnerUser: cfg.LearnerPassHash,
		},
		Roles: map[string]string{
			cfg.AdminUser:   "teacher",
			cfg.LearnerUser: "learner",
		},
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute)) // generation may run up to the AI deadline

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, creds))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Authoring boundary (teachers)
		pr.With(rbac.Require("quiz:generate")).Post("/quizzes/generate", api.GenerateQuizHandler(genSvc))
		pr.With(rbac.Require("quiz:publish")).Post("/quizzes/publish", api.PublishQuizHandler(gw))
		pr.With(rbac.Require("quiz:view")).Get("/quizzes/{quizID}", api.GetQuizHandler(gw))

		// Administration boundary (learners)
		pr.With(rbac.Require("attempt:create")).Post("/attempts", api.StartAttemptHandler(mgr))
		pr.Route("/attempts/{attemptID}", func(ar chi.Router) {
			ar.Get("/question", api.CurrentQuestionHandler(mgr))
			ar.With(rbac.Require("attempt:answer")).Post("/answer", api.SubmitAnswerHandler(mgr))
			ar.Post("/advance", api.AdvanceHandler(mgr))
			ar.With(rbac.Require("attempt:submit")).Post("/finalize", api.FinalizeAttemptHandler(mgr))
			ar.Get("/remaining", api.RemainingTimeHandler(mgr))
		})
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/attempts", api.ListMyAttemptsHandler(gw))
	})

	log.Printf("gateway listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
