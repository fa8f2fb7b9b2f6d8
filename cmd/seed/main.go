// Command main runs the database seeder for CampusWell.
package main

import (
	"flag"
	"log"

	"campuswell/internal/config"
	"campuswell/internal/database"
	"campuswell/internal/seed"
)

func main() {
	students := flag.Int("students", 40, "Number of student accounts to create")
	psychologists := flag.Int("psychologists", 4, "Number of psychologist accounts to create")
	posts := flag.Int("posts", 80, "Number of board posts to create")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if err := s.Run(seed.Options{
		Students:      *students,
		Psychologists: *psychologists,
		Posts:         *posts,
		Clean:         *clean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Done. All seeded accounts use the password: password123")
}
