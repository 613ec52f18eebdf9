// Package dbtest provides throwaway in-memory databases for package tests.
package dbtest

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"match-predictor/internal/clock"
	"match-predictor/internal/db"
	"match-predictor/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// New opens a migrated in-memory sqlite database private to the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", seq.Add(1))
	DB, err := db.Open(sqlite.Open(dsn), Logger(), logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return DB
}

func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Base returns a handler base on a fresh database, a fixed clock at now
// and the Africa/Cairo zone.
func Base(t testing.TB, now time.Time) (models.Handler, *clock.Fixed) {
	t.Helper()
	c := clock.NewFixed(now)
	return models.Handler{
		DB:    New(t),
		Log:   logrus.NewEntry(Logger()),
		Clock: c,
		Zone:  clock.MustZone("Africa/Cairo"),
		Rules: models.DefaultRules(),
	}, c
}
