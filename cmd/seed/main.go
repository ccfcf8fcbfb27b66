// Command main seeds a demo catalog or exports the current catalog as YAML.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"librarium/internal/config"
	"librarium/internal/database"
	"librarium/internal/seed"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "export" {
		runExport(cfg, os.Args[2:])
		return
	}
	runSeed(cfg, os.Args[1:])
}

func runSeed(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	numUsers := fs.Int("users", 20, "Number of users to create")
	numBooks := fs.Int("books", 50, "Number of books to create")
	shouldClean := fs.Bool("clean", true, "Clean database before seeding")
	dryRun := fs.Bool("dry-run", false, "Generate entities without writing them")
	_ = fs.Parse(args)

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d books, clean=%v, dry-run=%v", *numUsers, *numBooks, *shouldClean, *dryRun)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:    *numUsers,
		NumBooks:    *numBooks,
		ShouldClean: *shouldClean && !*dryRun,
		Factory:     seed.FactoryOptions{DryRun: *dryRun},
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done! Every seeded user has the password: %s", seed.DemoPassword)
}

func runExport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "-", "Output file, - for stdout")
	_ = fs.Parse(args)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var w io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *output, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := seed.Export(context.Background(), db, w); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
}
