package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"taskman/config"
	"taskman/handlers"
	"taskman/mailer"
	"taskman/store"
	"taskman/token"
)

func main() {
	// Load environment variables
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, continuing..")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("environment:", cfg.AppEnv)

	ctx := context.Background()

	// Initialize the database connection pool
	dbPool, err := store.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	if err := store.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	tokens := token.New(token.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
	})

	auth := &handlers.Auth{
		Users:  store.NewUsers(dbPool),
		Tokens: tokens,
	}

	// The reset flow needs both Redis and SendGrid; without them the
	// endpoints report the feature as unavailable.
	if cfg.RedisURL != "" && cfg.SendgridAPIKey != "" {
		redisClient, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		auth.Resets = store.NewResetCodes(redisClient)
		auth.Mail = mailer.NewSendgrid(cfg.SendgridAPIKey, cfg.ResetFromEmail)
	} else {
		log.Println("Password reset disabled: REDIS_URL or SENDGRID_API_KEY not set")
	}

	tasks := &handlers.Tasks{Store: store.NewTasks(dbPool)}

	mux := handlers.Routes(auth, tasks, tokens)

	// Start the server
	log.Println("Starting server on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, cors(mux)))
}

// cors mirrors the permissive defaults the frontend was built against:
// any origin, credentials never needed because auth rides in a header.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
