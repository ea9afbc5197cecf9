// Package migration holds the ordered schema migrations applied at startup.
package migration

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
)

var options = &gormigrate.Options{
	TableName:                 "schema_migrations",
	IDColumnName:              "id",
	IDColumnSize:              255,
	UseTransaction:            true,
	ValidateUnknownMigrations: false,
}

// Migrations returns every migration step in application order. IDs are never reused.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202401010900_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(
					&entity.Project{},
					&entity.FilamentColor{},
					&entity.FilamentRoll{},
					&entity.ProjectColor{},
					&entity.ProjectFilamentUsage{},
				); err != nil {
					return err
				}
				for _, table := range []string{entity.TableManufacturers, entity.TableMaterials} {
					if err := tx.Table(table).AutoMigrate(&entity.Lookup{}); err != nil {
						return fmt.Errorf("%s: %w", table, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"project_filament_usage",
					"project_colors",
					"filament_rolls",
					entity.TableMaterials,
					entity.TableManufacturers,
					"filament_colors",
					"projects",
				)
			},
		},
		{
			// Case-insensitive identity of colors and lookup names. Expression indexes work on
			// both SQLite and PostgreSQL.
			ID: "202401011000_case_insensitive_unique_names",
			Migrate: func(tx *gorm.DB) error {
				return execAll(tx,
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_filament_colors_identity
						ON filament_colors (LOWER(name), LOWER(COALESCE(manufacturer, '')))`,
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_filament_manufacturers_name
						ON filament_manufacturers (LOWER(name))`,
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_filament_materials_name
						ON filament_materials (LOWER(name))`,
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return execAll(tx,
					"DROP INDEX IF EXISTS idx_filament_colors_identity",
					"DROP INDEX IF EXISTS idx_filament_manufacturers_name",
					"DROP INDEX IF EXISTS idx_filament_materials_name",
				)
			},
		},
		{
			ID: "202402151200_usage_created_at_index",
			Migrate: func(tx *gorm.DB) error {
				return execAll(tx,
					"CREATE INDEX IF NOT EXISTS idx_project_filament_usage_created_at ON project_filament_usage (created_at)",
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return execAll(tx, "DROP INDEX IF EXISTS idx_project_filament_usage_created_at")
			},
		},
	}
}

// Run applies all pending migrations
func Run(db *gorm.DB) error {
	m := gormigrate.New(db, options, Migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func execAll(tx *gorm.DB, statements ...string) error {
	for _, sql := range statements {
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("exec %q: %w", sql, err)
		}
	}
	return nil
}
