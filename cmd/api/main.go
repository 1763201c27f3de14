package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iwanturequity/proctoring-service/internal/config"
	"github.com/iwanturequity/proctoring-service/internal/httpserver"
	"github.com/iwanturequity/proctoring-service/internal/metrics"
	"github.com/iwanturequity/proctoring-service/internal/store"
)

// main boots the service: config → DB → schema → HTTP server.
// An unreachable store at boot is fatal; per-request failures are not.
func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := store.NewPostgresStore(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure required tables/indexes exist so a fresh database just works.
	if err := db.EnsureSchema(); err != nil {
		log.Fatal(err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	router := httpserver.NewRouter(db, m)

	log.Printf("server started on :%s", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
