package infra

import (
	"fmt"

	"pastel24h/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, then applies the
// idempotent SQL patches that GORM cannot express (partial indexes).
// The schema itself is owned by the SQL migrations in migrations/.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique/FK violations surface as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// schemaPatches are idempotent DDL statements valid on both PostgreSQL and
// SQLite. Each uses IF NOT EXISTS so re-running on a patched DB is a no-op.
var schemaPatches = []string{
	// At most one open shift across the whole business.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_shifts_single_open ON shifts (status) WHERE status = 'open'`,
	// Closed-shift lookups (predecessor, payroll, stats) scan by status + time.
	`CREATE INDEX IF NOT EXISTS idx_shifts_status_end_time ON shifts (status, end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_cash_adjustments_shift_type ON cash_adjustments (shift_id, type)`,
}

// applySchemaPatches runs schemaPatches in order.
func applySchemaPatches(db *gorm.DB) error {
	for _, sql := range schemaPatches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&model.TransportMode{},
		&model.User{},
		&model.Product{},
		&model.ProductPriceHistory{},
		&model.Shift{},
		&model.ShiftRecord{},
		&model.ShiftPayment{},
		&model.ShiftSnapshot{},
		&model.CashAdjustment{},
		&model.Timeline{},
		&model.WeeklyReport{},
	}
}

// RunMigrations builds the schema with AutoMigrate and applies the schema
// patches. Used by tests against SQLite or throwaway Postgres containers;
// production schemas come from the SQL migrations.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}
