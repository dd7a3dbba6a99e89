package customers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCustomers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"customer_id", "name", "email", "created_at"}).
		AddRow(2, "Acme Corp", "billing@acme.example", now).
		AddRow(1, "Zenith LLC", "ap@zenith.example", now)

	mock.ExpectQuery("SELECT customer_id, name, email, created_at").
		WillReturnRows(rows)

	svc := NewPostgresService(db)
	customers, err := svc.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Acme Corp", customers[0].Name)
	assert.Equal(t, int64(1), customers[1].CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCustomersEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT customer_id, name, email, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "name", "email", "created_at"}))

	svc := NewPostgresService(db)
	customers, err := svc.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, customers)
	assert.Empty(t, customers)
}

func TestGetCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT customer_id, name, email, created_at").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "name", "email", "created_at"}).
			AddRow(7, "Acme Corp", "billing@acme.example", now))

	svc := NewPostgresService(db)
	customer, err := svc.GetCustomer(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), customer.CustomerID)
	assert.Equal(t, "billing@acme.example", customer.Email)
}

func TestGetCustomerNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT customer_id, name, email, created_at").
		WithArgs(int64(404)).
		WillReturnError(errors.New("sql: no rows in result set"))

	svc := NewPostgresService(db)
	_, err = svc.GetCustomer(context.Background(), 404)
	require.Error(t, err)
}

func TestGetCustomerNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT customer_id, name, email, created_at").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "name", "email", "created_at"}))

	svc := NewPostgresService(db)
	_, err = svc.GetCustomer(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
