package seeders

import (
	"context"
	"errors"
	"log"

	"github.com/Fababum/portfolio/services"
	"gorm.io/gorm"
)

// AdminSeeder handles seeding admin users
type AdminSeeder struct {
	admins *services.AdminService
}

// NewAdminSeeder creates a new admin seeder
func NewAdminSeeder(db *gorm.DB) *AdminSeeder {
	return &AdminSeeder{admins: services.NewAdminService(db, nil, "")}
}

// SeedAdmin creates an admin user. An existing username is skipped, not an error.
func (s *AdminSeeder) SeedAdmin(ctx context.Context, username, password string) error {
	admin, err := s.admins.CreateAdmin(ctx, username, password)
	if errors.Is(err, services.ErrAdminExists) {
		log.Printf("Admin user %q already exists, skipping admin seeding", username)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Created admin user: %s", admin.Username)
	return nil
}
