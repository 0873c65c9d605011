package main

import (
	"log"
	"net/http"

	"driveassist/internal/cache"
	"driveassist/internal/config"
	"driveassist/internal/controllers"
	"driveassist/internal/logger"
	"driveassist/internal/middleware"
	"driveassist/internal/repository"
	"driveassist/internal/routes"
	"driveassist/internal/score"
	"driveassist/internal/trips"
)

func main() {
	cfg := config.Load()

	// Structured logging to a rotating file
	logger.Setup(cfg.LogFile)

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	repo := repository.New(db)
	scores := cache.New(cfg.RedisAddr)

	aggregator := trips.NewAggregator(repo)
	engine := score.NewEngine(repo, scores)
	hub := controllers.NewLiveHub()
	tokens := middleware.NewTokenManager(cfg.JWTSecret)

	r := routes.SetupRouter(routes.Deps{
		Auth:      controllers.NewAuthController(repo, tokens),
		Telemetry: controllers.NewTelemetryController(repo, aggregator, engine, hub),
		Query:     controllers.NewQueryController(repo),
		Live:      controllers.NewLiveController(hub, repo, scores),
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	log.Printf("🚀 Server running at %s", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, handler))
}
