package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-keeper/internal/cache"
	"github.com/iliyamo/notes-keeper/internal/config"
	"github.com/iliyamo/notes-keeper/internal/database"
	"github.com/iliyamo/notes-keeper/internal/handler"
	"github.com/iliyamo/notes-keeper/internal/middleware"
	"github.com/iliyamo/notes-keeper/internal/queue"
	"github.com/iliyamo/notes-keeper/internal/repository"
	"github.com/iliyamo/notes-keeper/internal/router"
	"github.com/iliyamo/notes-keeper/internal/store"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the note cache and the rate limiter. A nil client means
	// both run disabled and every request goes straight to MySQL.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; note cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	notes := repository.NewNoteRepo(db)
	noteCache := cache.NewRedisNoteCache(config.LoadCacheConfig(), rdb)
	noteStore := store.NewNoteStore(notes, noteCache)

	e := echo.New()
	e.Use(middleware.Authenticate(cfg.JWTSecret, users, tokens))
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens))
	router.RegisterNotes(e, handler.NewNoteHandler(noteStore))
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users))

	// Audit trail consumer; reconnects forever in the background.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
