package seeders

import (
	"context"
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll creates the admin user and then the demo visitors.
func (s *MainSeeder) SeedAll(ctx context.Context, username, password string, demoVisitors int) error {
	log.Println("Starting database seeding...")

	if err := NewAdminSeeder(s.db).SeedAdmin(ctx, username, password); err != nil {
		log.Printf("Admin seeding failed: %v", err)
		return err
	}

	if err := NewVisitorSeeder(s.db).SeedVisitors(ctx, demoVisitors); err != nil {
		log.Printf("Visitor seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}
