package db

import (
	"brand-builder/internal/document"
	"brand-builder/internal/domain"
	"brand-builder/internal/storage"
	"brand-builder/internal/user"
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns. Both document
// tables share one row shape.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &storage.Blob{}); err != nil {
		return err
	}
	for _, table := range []string{document.TableCaseStudies, document.TablePresentations} {
		if err := db.Table(table).AutoMigrate(&document.Record{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

// SeedData seeds the database with initial data (for development only)
func SeedData(ctx context.Context, db *gorm.DB, zl *zap.Logger) {
	userRepo := user.NewRepository(db)

	testUser := &domain.User{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
		IsActive: true,
	}

	if _, err := userRepo.FindByEmail(ctx, testUser.Email); err == nil {
		zl.Info("test user already exists", zap.String("email", testUser.Email))
		return
	}

	userService := user.NewService(userRepo)
	if err := userService.Register(ctx, testUser); err != nil {
		zl.Warn("error creating test user", zap.Error(err))
		return
	}
	zl.Info("created test user", zap.String("email", testUser.Email))
}
