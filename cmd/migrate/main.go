package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/billmint/billmint/internal/config"
	"github.com/billmint/billmint/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Applies every migrations/*.sql file in lexical order. The statements are
// written to be re-runnable, so there is no schema version bookkeeping yet.
func main() {
	log := logger.GetLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatalf("failed to list migrations: %v", err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		log.Fatalf("no migration files found under migrations/")
	}

	for _, file := range files {
		contents, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		log.Infow("applying migration", "file", file)
		if _, err := db.Exec(string(contents)); err != nil {
			log.Fatalf("failed to apply %s: %v", file, err)
		}
	}

	log.Infow("migrations applied", "count", len(files))
}
