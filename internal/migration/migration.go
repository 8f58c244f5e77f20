package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	auditdomain "github.com/microbooks/microbooks/internal/audit/domain"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Run brings the schema up to date. Postgres goes through versioned SQL
// migrations; other dialects auto-migrate from the models so local and test
// setups need no external tooling.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return runVersioned(sqlDB)
	}
	return AutoMigrate(conn)
}

// AutoMigrate creates the schema from the domain models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&entitydomain.Entity{},
		&entitydomain.Currency{},
		&accountdomain.Account{},
		&accountdomain.Balance{},
		&perioddomain.ReportingPeriod{},
		&taxdomain.Tax{},
		&txndomain.Transaction{},
		&txndomain.LineItem{},
		&ledgerdomain.LedgerEntry{},
		&assigndomain.Assignment{},
		&auditdomain.AuditLog{},
	)
}

func runVersioned(db *sql.DB) error {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
