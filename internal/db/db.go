// Package db opens the assistant's database and manages schema migration
// and seeding.
package db

import (
	"fmt"

	"github.com/banktrust/bankbot/internal/config"
	"github.com/banktrust/bankbot/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from DB config.
func DSN(cfg config.DBConfig) string {
	cred := cfg.User
	if cfg.Password != "" {
		cred += ":" + cfg.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", cred, cfg.Host, cfg.Port, cfg.Database)
}

// Open opens a GORM connection for the configured backend: sqlite (file or
// :memory:) or mysql.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", cfg.Path, err)
		}
		return db, nil
	case "mysql":
		db, err := gorm.Open(mysql.Open(DSN(cfg)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.Driver)
	}
}

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.ChatLog{},
		&models.FAQ{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// demoUsers are the accounts created by SeedUsers for local development.
var demoUsers = []models.User{
	{AccountNumber: "100001", Password: "alice@123", Name: "Alice Fernandes", Email: "alice@example.com", Phone: "9876500001", Balance: 58000},
	{AccountNumber: "100002", Password: "bob@123", Name: "Bob Iyer", Email: "bob@example.com", Phone: "9876500002", Balance: 23500},
	{AccountNumber: "100003", Password: "charu@123", Name: "Charu Mehta", Email: "charu@example.com", Phone: "9876500003", Balance: 104000},
}

// SeedUsers upserts the demo user accounts, keyed by account number.
func SeedUsers(db *gorm.DB) error {
	for _, u := range demoUsers {
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone"}),
		}).Create(&u)
		if result.Error != nil {
			return fmt.Errorf("db: seed user %q: %w", u.AccountNumber, result.Error)
		}
	}
	return nil
}
