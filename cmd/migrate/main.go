package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type runner struct {
	*database.MigrationRunner
}

var cli struct {
	Up     upCmd     `cmd:"" help:"Apply all pending migrations."`
	Down   downCmd   `cmd:"" help:"Roll back the last migration."`
	Status statusCmd `cmd:"" help:"Print the current migration version."`
	Seed   seedCmd   `cmd:"" help:"Load the SQL seed files."`
}

type upCmd struct{}

func (upCmd) Run(r *runner) error {
	return r.RunMigrations()
}

type downCmd struct{}

func (downCmd) Run(r *runner) error {
	return r.RollbackLast()
}

type statusCmd struct{}

func (statusCmd) Run(r *runner) error {
	version, dirty, err := r.GetMigrationStatus()
	if err != nil {
		return err
	}
	fmt.Printf("version=%d dirty=%t\n", version, dirty)
	return nil
}

type seedCmd struct{}

func (seedCmd) Run(r *runner) error {
	return r.LoadSeeds(context.Background())
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&cli)
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	r := &runner{database.NewMigrationRunner(db, &cfg.Database)}
	if err := r.WaitForDatabase(context.Background()); err != nil {
		log.Fatalf("Database not ready: %v", err)
	}

	ctx.FatalIfErrorf(ctx.Run(r))
}
