package database

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations executes database migrations from the given directory of
// versioned .sql files.
func RunMigrations(migrationsPath string) error {
	log.Printf("Running migrations from path: %s", migrationsPath)

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	return runMigrateInstance(sqlDB, migrationsPath)
}

// runMigrateInstance creates and runs a migrate instance
func runMigrateInstance(db *sql.DB, migrationsPath string) error {
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 driver: %w", err)
	}

	sourceURL := fmt.Sprintf("file://%s", absPath)
	m, err := migrate.NewWithDatabaseInstance(
		sourceURL,
		"sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("No migrations to run")
	} else {
		log.Println("Migrations completed successfully")
	}

	return nil
}

// GetMigrationVersion returns the current migration version
func GetMigrationVersion() (int, bool, error) {
	var exists bool
	err := DB.Raw(`SELECT EXISTS (
		SELECT 1 FROM sqlite_master WHERE type='table' AND name='schema_migrations'
	)`).Scan(&exists).Error
	if err != nil {
		return 0, false, err
	}

	if !exists {
		return 0, false, nil
	}

	var version int
	var dirty bool
	err = DB.Raw(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Row().Scan(&version, &dirty)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}

	return version, dirty, nil
}
