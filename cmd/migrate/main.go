package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/wayfinder/internal/adapters/postgres"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
	"github.com/samirrijal/wayfinder/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|seed>")
	}

	cfg, err := config.Load("wayfinder-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		files, err := postgres.Migrate(ctx, db)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		for _, f := range files {
			fmt.Printf("OK  %s\n", f)
		}
		log.Println("all migrations applied")
	case "seed":
		places := usecases.DefaultPlaces()
		if err := postgres.NewGazetteerRepo(db).UpsertBatch(ctx, places); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seeded %d places", len(places))
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
