package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/billfold/billfold/pkg/observability"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all billing schema migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create customers table",
			SQL: `
				CREATE TABLE IF NOT EXISTS customers (
					customer_id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL UNIQUE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_customers_email ON customers(email);
			`,
		},
		{
			Version:     2,
			Description: "Create plans table",
			SQL: `
				CREATE TABLE IF NOT EXISTS plans (
					plan_id BIGSERIAL PRIMARY KEY,
					plan_name VARCHAR(255) NOT NULL,
					monthly_price NUMERIC(10,2) NOT NULL,
					billing_cycle VARCHAR(20) NOT NULL DEFAULT 'MONTHLY',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_plans_is_active ON plans(is_active);
			`,
		},
		{
			Version:     3,
			Description: "Create subscriptions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS subscriptions (
					subscription_id BIGSERIAL PRIMARY KEY,
					customer_id BIGINT NOT NULL REFERENCES customers(customer_id) ON DELETE CASCADE,
					plan_id BIGINT NOT NULL REFERENCES plans(plan_id),
					status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
					start_date DATE NOT NULL,
					end_date DATE,
					next_billing_date DATE,
					payment_method_token VARCHAR(255),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_subscriptions_customer_id ON subscriptions(customer_id);
				CREATE INDEX idx_subscriptions_plan_id ON subscriptions(plan_id);
				CREATE INDEX idx_subscriptions_status ON subscriptions(status);
			`,
		},
		{
			Version:     4,
			Description: "Create invoices table",
			SQL: `
				CREATE TABLE IF NOT EXISTS invoices (
					invoice_id BIGSERIAL PRIMARY KEY,
					subscription_id BIGINT NOT NULL REFERENCES subscriptions(subscription_id) ON DELETE CASCADE,
					customer_id BIGINT NOT NULL REFERENCES customers(customer_id) ON DELETE CASCADE,
					billing_month VARCHAR(7) NOT NULL,
					amount NUMERIC(10,2) NOT NULL,
					payment_status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
					payment_date TIMESTAMP,
					due_date DATE,
					payment_method_token VARCHAR(255),
					issued_at TIMESTAMP NOT NULL DEFAULT NOW(),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_invoices_subscription_id ON invoices(subscription_id);
				CREATE INDEX idx_invoices_customer_id ON invoices(customer_id);
				CREATE INDEX idx_invoices_billing_month ON invoices(billing_month);
				CREATE INDEX idx_invoices_payment_status ON invoices(payment_status);
				CREATE INDEX idx_invoices_issued_at ON invoices(issued_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	// Create migration tracking table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS billing_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get applied migrations
	rows, err := db.QueryContext(ctx, "SELECT version FROM billing_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	// Run pending migrations
	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		logger.Infof("Running migration %d: %s", migration.Version, migration.Description)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO billing_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		logger.Infof("Migration %d completed successfully", migration.Version)
	}

	return nil
}
