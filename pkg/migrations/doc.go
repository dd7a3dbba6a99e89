// Package migrations defines and applies the billing database schema.
//
// Migrations are versioned SQL statements applied in order inside their own
// transactions, with applied versions recorded in the billing_migrations
// table so that startup is idempotent.
package migrations
