package db

import (
	"brand-builder/internal/config"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var AppDb *gorm.DB

func ConnectDb(zl *zap.Logger) error {
	dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
	)

	level := logger.Info
	if config.AppConfig.Environment == "production" {
		level = logger.Error
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  config.AppConfig.Environment != "production",
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	AppDb = db
	zl.Info("connected to db", zap.String("host", config.AppConfig.DBHost), zap.String("name", config.AppConfig.DBName))

	return nil
}

func CloseDb(zl *zap.Logger) {
	if AppDb == nil {
		return
	}
	sqlDB, err := AppDb.DB()
	if err != nil {
		zl.Error("get sql db", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		zl.Error("failed to close db", zap.Error(err))
		return
	}
	zl.Info("db closed")
}
