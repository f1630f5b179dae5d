package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teresa-solution/tenant-order-service/internal/config"
)

// Table names created by migrations/
const (
	schemaTenantsTable = "tenants"
	schemaOrdersTable  = "orders"
)

var dbOptions = []config.Opt{
	{Flag: "db-host", Default: "localhost", Desc: "Database host"},
	{Flag: "db-port", Default: 5432, Desc: "Database port"},
	{Flag: "db-user", Default: "admin", Desc: "Database user"},
	{Flag: "db-pass", Default: "securepassword", Desc: "Database password"},
	{Flag: "db-name", Default: "tenant_registry", Desc: "Database name"},
	{Flag: "db-sslmode", Default: "disable", Desc: "Database sslmode"},
	{Flag: "tenants-table", Default: schemaTenantsTable, Desc: "tenants table the server is configured with"},
	{Flag: "orders-table", Default: schemaOrdersTable, Desc: "orders table the server is configured with"},
	{Flag: "source", Default: "file://migrations", Desc: "Migration source URL"},
	{Flag: "log-level", Default: "info", Desc: "log level"},
}

func main() {
	v := config.NewViper()
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the tenants and orders schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(*cobra.Command, []string) error {
			return withMigrator(v, func(m *migrate.Migrate) error {
				log.Info().Msg("Applying migrations...")
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("failed to apply migrations: %w", err)
				}
				log.Info().Msg("Migrations applied successfully")
				return nil
			})
		},
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		RunE: func(*cobra.Command, []string) error {
			return withMigrator(v, func(m *migrate.Migrate) error {
				log.Info().Msg("Reverting migrations...")
				if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("failed to revert migrations: %w", err)
				}
				log.Info().Msg("Migrations reverted successfully")
				return nil
			})
		},
	}
	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(v, func(m *migrate.Migrate) error {
				log.Info().Int("version", version).Msg("Forcing migration version...")
				if err := m.Force(version); err != nil {
					return fmt.Errorf("failed to force migration version: %w", err)
				}
				log.Info().Msg("Migration version forced successfully")
				return nil
			})
		},
	}

	config.BindOptions(root.PersistentFlags(), v, dbOptions)
	root.AddCommand(up, down, force)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}

func withMigrator(v *viper.Viper, fn func(*migrate.Migrate) error) error {
	if err := config.SetupLogging(v.GetString("log-level"), "console"); err != nil {
		return err
	}
	config.ApplyLegacyEnv(v)
	if err := checkTableNames(v.GetString("tenants-table"), v.GetString("orders-table")); err != nil {
		return err
	}

	cfg := config.Config{
		DBHost:    v.GetString("db-host"),
		DBPort:    v.GetInt("db-port"),
		DBUser:    v.GetString("db-user"),
		DBPass:    v.GetString("db-pass"),
		DBName:    v.GetString("db-name"),
		DBSSLMode: v.GetString("db-sslmode"),
	}

	pgcfg, err := pgx.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}
	db := stdlib.OpenDB(*pgcfg)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(v.GetString("source"), "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	return fn(m)
}

// checkTableNames refuses to run when the configured tables are not the ones
// the migration files create. Custom names must be provisioned separately.
func checkTableNames(tenants, orders string) error {
	if tenants != schemaTenantsTable || orders != schemaOrdersTable {
		return fmt.Errorf("migrations create tables %q and %q, but %q and %q are configured; create custom tables from migrations/*.sql by hand",
			schemaTenantsTable, schemaOrdersTable, tenants, orders)
	}
	return nil
}
