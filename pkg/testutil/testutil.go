package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"farmportal/database"
)

// OpenDB returns a migrated SQLite database in a per-test directory.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
