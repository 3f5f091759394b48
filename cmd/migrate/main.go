package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/dropDatabas3/taskboard/internal/config"
	"github.com/dropDatabas3/taskboard/internal/store/pg"
)

// Herramienta de migraciones: `migrate [up|down]` aplica los *_up.sql en
// orden lexicográfico o los *_down.sql en orden inverso.
func main() {
	var (
		configPath = flag.String("config", "configs/config.example.yaml", "Path al config YAML")
		dir        = flag.String("dir", "migrations/postgres", "Directorio con *_up.sql y *_down.sql")
	)
	flag.Parse()

	action := "up"
	if args := flag.Args(); len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("storage driver %q: las migraciones sólo aplican a postgres", cfg.Storage.Driver)
	}

	ctx := context.Background()
	st, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer st.Close()

	switch action {
	case "up":
		if err := st.RunMigrations(ctx, *dir); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("Up migrations completed.")
	case "down":
		if err := st.RunMigrationsDown(ctx, *dir); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("Down migrations completed.")
	default:
		log.Fatalf("acción desconocida %q. Usar: up | down", action)
	}
}
