package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens a GORM connection for the given URL. Supported forms are
// "postgres://..." (passed through as the DSN) and "sqlite://<path>".
func Init(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"):
		dialector = postgres.Open(strings.TrimPrefix(databaseURL, "postgres://"))
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("db: DATABASE_URL must start with postgres:// or sqlite://, got %q", prefixOf(databaseURL))
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Surfaces duplicate-key violations as gorm.ErrDuplicatedKey on
		// both drivers.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return gdb, nil
}

// prefixOf keeps credentials embedded in a malformed URL out of error text.
func prefixOf(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i+3]
	}
	if len(url) > 8 {
		return url[:8]
	}
	return url
}
