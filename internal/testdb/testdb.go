// Package testdb opens isolated, migrated in-memory databases for tests.
package testdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
	pkgdb "github.com/levelupgamer/levelup_shop/pkg/db"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := pkgdb.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.WithContext(context.Background()).AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// BeforeFirstUpdate runs fn once, inside the caller's transaction, just before
// the first UPDATE on table. Tests use it to land a competing write between a
// read and the write that depends on it.
func BeforeFirstUpdate(t testing.TB, db *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()

	var once sync.Once
	err := db.Callback().Update().Before("gorm:update").Register("testdb:before_first_update", func(d *gorm.DB) {
		if d.Statement.Table != table {
			return
		}
		once.Do(func() {
			fn(d.Session(&gorm.Session{NewDB: true}))
		})
	})
	if err != nil {
		t.Fatalf("register update callback: %v", err)
	}
}
