// Package databasetest opens throwaway migrated databases for tests.
package databasetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pokepocketdata/ppdd/internal/database"
)

// New returns a migrated in-memory SQLite database private to the test
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open("sqlite", dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// NewStore is New wrapped in a database.Store
func NewStore(t testing.TB) *database.Store {
	t.Helper()
	return database.NewStore(New(t))
}
