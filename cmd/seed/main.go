// Command main runs the database seeder for Mesto.
package main

import (
	"flag"
	"log"

	"mesto/internal/config"
	"mesto/internal/database"
	"mesto/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numCards := flag.Int("cards", 60, "Number of cards to create")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Store the plain password instead of a bcrypt hash (sign-in will not work)")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	log.Printf("Seeding %d users, %d cards, clean=%v", *numUsers, *numCards, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	summary, err := seed.Seed(db, seed.Options{
		Users:      *numUsers,
		Cards:      *numCards,
		Clean:      *shouldClean,
		SkipBcrypt: *fast,
		RandSeed:   *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d cards, %d likes", summary.Users, summary.Cards, summary.Likes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
