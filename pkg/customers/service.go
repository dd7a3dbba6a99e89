package customers

import (
	"context"
	"database/sql"
	"fmt"
)

// ErrNotFound is returned when a customer does not exist
var ErrNotFound = fmt.Errorf("customer not found")

// Service defines customer lookup operations
type Service interface {
	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

// PostgresService implements the customers Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// ListCustomers returns all customers ordered by name
func (s *PostgresService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	query := `
		SELECT customer_id, name, email, created_at
		FROM customers
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*Customer, 0)
	for rows.Next() {
		c := &Customer{}
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, nil
}

// GetCustomer retrieves a single customer by ID
func (s *PostgresService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	query := `
		SELECT customer_id, name, email, created_at
		FROM customers
		WHERE customer_id = $1
	`
	c := &Customer{}
	err := s.db.QueryRowContext(ctx, query, customerID).Scan(
		&c.CustomerID, &c.Name, &c.Email, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return c, nil
}
