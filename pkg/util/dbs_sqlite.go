//go:build !mysql && !pg

package util

import (
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func createDatabaseInstance(cfg *gorm.Config, driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "pg", "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	if dsn == "" {
		dsn = "file::memory:"
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

// OpenDatabase opens the configured database. Empty DSN falls back to an
// in-memory sqlite instance so the escalation path stays alive even when
// no durable storage is configured.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	return createDatabaseInstance(&gorm.Config{}, driver, dsn)
}
