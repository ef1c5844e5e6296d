package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/rccm-prep/backend/internal/auth"
	"github.com/rccm-prep/backend/internal/bank"
	"github.com/rccm-prep/backend/internal/catalog"
	"github.com/rccm-prep/backend/internal/database"
	"github.com/rccm-prep/backend/internal/middleware"
	"github.com/rccm-prep/backend/internal/review"
	"github.com/rccm-prep/backend/internal/selection"
	"github.com/rccm-prep/backend/internal/session"
)

func main() {
	// .env is optional; real deployments use the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Subject catalog: built-in reference set unless a table is provided
	cat := catalog.Default()
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		cat, err = catalog.LoadFile(path)
		if err != nil {
			log.Fatalf("Failed to load subject catalog: %v", err)
		}
	}

	// Question bank
	repo := bank.NewRepository(cat)
	dataDir := getEnv("DATA_DIR", "data")
	if _, err := repo.LoadDir(dataDir); err != nil {
		log.Fatalf("Failed to load question bank: %v", err)
	}
	if repo.Count() == 0 {
		log.Fatalf("Question bank at %s is empty", dataDir)
	}

	// Engines
	selector := selection.NewEngine(cat, repo)
	scheduler := review.NewScheduler(review.NewPGStore(db))

	var sessionStore session.Store = session.NewMemoryStore()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		sessionStore = session.NewRedisStore(client, retentionFromEnv())
		log.Printf("Session store: redis at %s", addr)
	} else {
		log.Println("Session store: in-memory")
	}

	engine := session.NewEngine(sessionStore, selector, repo, scheduler)
	engine.SetArchiver(session.NewPGArchiver(db))

	// Initialize handlers
	authHandler := auth.NewHandler(db)
	bankHandler := bank.NewHandler(repo)
	selectionHandler := selection.NewHandler(selector)
	sessionHandler := session.NewHandler(engine)
	reviewHandler := review.NewHandler(scheduler)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/subjects", bankHandler.ListSubjects).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/questions/select", selectionHandler.Select).Methods("POST")

	protected.HandleFunc("/sessions", sessionHandler.Start).Methods("POST")
	protected.HandleFunc("/sessions/review", sessionHandler.StartReview).Methods("POST")
	protected.HandleFunc("/sessions/{id}/current", sessionHandler.CurrentQuestion).Methods("GET")
	protected.HandleFunc("/sessions/{id}/answer", sessionHandler.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/sessions/{id}/advance", sessionHandler.Advance).Methods("POST")
	protected.HandleFunc("/sessions/{id}/result", sessionHandler.Result).Methods("GET")

	protected.HandleFunc("/review/due", reviewHandler.DueSet).Methods("GET")
	protected.HandleFunc("/review/reset", reviewHandler.Reset).Methods("POST")
	protected.HandleFunc("/review/summary", reviewHandler.Summary).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := getEnv("PORT", "8080")
	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func retentionFromEnv() time.Duration {
	raw := os.Getenv("SESSION_RETENTION")
	if raw == "" {
		return session.DefaultRetention
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("WARN: invalid SESSION_RETENTION %q, using default", raw)
		return session.DefaultRetention
	}
	return d
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
