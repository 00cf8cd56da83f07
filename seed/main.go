package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/Fababum/portfolio/seed/seeders"
	"github.com/Fababum/portfolio/services"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "admin", "Type of seeding: admin, visitors, all")
		username = flag.String("username", os.Getenv("ADMIN_USERNAME"), "Admin username")
		password = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password (min 8 characters)")
		driver   = flag.String("driver", "", "Database driver (overrides DB_DRIVER env var)")
		dbPath   = flag.String("db", "", "Database path or DSN (overrides DB_DATABASE / DATABASE_URL)")
		visitors = flag.Int("visitors", 10, "Number of demo visitors")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *driver != "" {
		os.Setenv("DB_DRIVER", *driver)
	}
	dbDriver, database, err := services.DatabaseFromEnv()
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	if *dbPath != "" {
		database = *dbPath
	}

	db, err := gorm.Open(services.Dialector(dbDriver, database), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Connected to %s database", dbDriver)

	ctx := context.Background()
	needsAdmin := *seedType == "admin" || *seedType == "all"
	if needsAdmin && (*username == "" || len(*password) < 8) {
		log.Fatal("Admin seeding needs -username and a -password of at least 8 characters")
	}

	switch *seedType {
	case "admin":
		err = seeders.NewAdminSeeder(db).SeedAdmin(ctx, *username, *password)
	case "visitors":
		err = seeders.NewVisitorSeeder(db).SeedVisitors(ctx, *visitors)
	case "all":
		err = seeders.NewMainSeeder(db).SeedAll(ctx, *username, *password, *visitors)
	default:
		log.Fatalf("Unknown seed type: %s. Use 'admin', 'visitors' or 'all'", *seedType)
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding operation completed successfully!")
}

func showHelp() {
	log.Println(`
Database Seeding Tool for the portfolio API

Usage: go run ./seed [flags]

Flags:
  -type string       admin, visitors or all (default "admin")
  -username string   Admin username (default $ADMIN_USERNAME)
  -password string   Admin password (default $ADMIN_PASSWORD)
  -driver string     sqlite or postgres (default $DB_DRIVER, then sqlite)
  -db string         sqlite path or postgres DSN
  -visitors int      Number of demo visitors (default 10)
  -help              Show this help message

Examples:
  # Create the admin user
  go run ./seed -username=fabian -password='a long password'

  # Demo dashboard data in a local sqlite file
  go run ./seed -type=visitors -db=./dev.db
`)
}
