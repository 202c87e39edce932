package db

import (
	"testing"

	"github.com/banktrust/bankbot/internal/config"
	"github.com/banktrust/bankbot/internal/models"
)

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{User: "root", Host: "127.0.0.1", Port: 3306, Database: "bankbot"}
	want := "root@tcp(127.0.0.1:3306)/bankbot?parseTime=true"
	if got := DSN(cfg); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	cfg.Password = "pw"
	want = "root:pw@tcp(127.0.0.1:3306)/bankbot?parseTime=true"
	if got := DSN(cfg); got != want {
		t.Errorf("DSN with password = %q, want %q", got, want)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DBConfig{Driver: "postgres"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenMigrateSeed(t *testing.T) {
	gdb, err := Open(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := SeedUsers(gdb); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var count int64
	if err := gdb.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != int64(len(demoUsers)) {
		t.Errorf("user count = %d, want %d", count, len(demoUsers))
	}

	// Seeding again must not duplicate accounts.
	if err := SeedUsers(gdb); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if err := gdb.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != int64(len(demoUsers)) {
		t.Errorf("user count after re-seed = %d, want %d", count, len(demoUsers))
	}
}
