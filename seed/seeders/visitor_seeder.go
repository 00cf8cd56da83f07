package seeders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Fababum/portfolio/services/repositories"
	"github.com/Fababum/portfolio/shared"
	"gorm.io/gorm"
)

// VisitorSeeder fills the visitor tables with demo traffic for local dashboards.
type VisitorSeeder struct {
	visitors *repositories.VisitorRepository
}

func NewVisitorSeeder(db *gorm.DB) *VisitorSeeder {
	return &VisitorSeeder{visitors: repositories.NewVisitorRepository(db)}
}

// SeedVisitors records count visitors with a few visits each and blacklists
// the last one so the dashboard shows every status.
func (s *VisitorSeeder) SeedVisitors(ctx context.Context, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		userID := fmt.Sprintf("demo_user_%03d", i+1)
		visits := i%3 + 1
		for v := 0; v < visits; v++ {
			at := now.Add(-time.Duration(count-i) * time.Hour).Add(time.Duration(v) * time.Minute)
			if err := s.visitors.RecordVisit(ctx, userID, v > 0, "127.0.0.1", at); err != nil {
				return fmt.Errorf("record visit for %s: %w", userID, err)
			}
		}
	}

	if count > 0 {
		last := fmt.Sprintf("demo_user_%03d", count)
		if _, err := s.visitors.UpdateStatus(ctx, last, shared.StatusBlacklisted); err != nil {
			return err
		}
	}

	log.Printf("Seeded %d demo visitors", count)
	return nil
}
