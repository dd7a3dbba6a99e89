package billing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"invoice_id", "subscription_id", "customer_id", "name", "email",
		"plan_name", "billing_month", "amount", "payment_status", "payment_date",
		"payment_method_token", "due_date", "issued_at", "created_at", "status",
	})
}

func newListService(t *testing.T) (*PostgresService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// data and count queries run concurrently
	mock.MatchExpectationsInOrder(false)
	return NewPostgresService(db, db, nil), mock
}

func TestListInvoicesDefaults(t *testing.T) {
	svc, mock := newListService(t)

	now := time.Now()
	mock.ExpectQuery(`ORDER BY i\.issued_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(invoiceDetailRows().
			AddRow(1, 10, 7, "Acme Corp", "billing@acme.example", "Pro",
				"2024-03", 29.99, "PENDING", nil, nil, now, now, now, "ACTIVE"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices i`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	resp, err := svc.ListInvoices(context.Background(), &InvoiceListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, "Acme Corp", resp.Invoices[0].Customer.Name)
	assert.Equal(t, "Pro", resp.Invoices[0].Plan.PlanName)
	assert.Equal(t, SubscriptionStatusActive, resp.Invoices[0].SubscriptionStatus)
	assert.Equal(t, 1, resp.Pagination.CurrentPage)
	assert.Equal(t, 1, resp.Pagination.TotalItems)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.Equal(t, 20, resp.Pagination.ItemsPerPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvoicesFiltersAndCombined(t *testing.T) {
	svc, mock := newListService(t)

	customerID := int64(7)
	mock.ExpectQuery(`WHERE i\.billing_month = \$1 AND i\.payment_status = \$2 AND i\.customer_id = \$3`).
		WithArgs("2024-03", "PAID", customerID, 20, 0).
		WillReturnRows(invoiceDetailRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices i WHERE i\.billing_month = \$1 AND i\.payment_status = \$2 AND i\.customer_id = \$3`).
		WithArgs("2024-03", "PAID", customerID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	resp, err := svc.ListInvoices(context.Background(), &InvoiceListRequest{
		BillingMonth:  "2024-03",
		PaymentStatus: "PAID",
		CustomerID:    &customerID,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvoicesSortAllowList(t *testing.T) {
	svc, mock := newListService(t)

	mock.ExpectQuery(`ORDER BY c\.name ASC`).
		WithArgs(20, 0).
		WillReturnRows(invoiceDetailRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices i`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := svc.ListInvoices(context.Background(), &InvoiceListRequest{
		SortBy:    "customer_name",
		SortOrder: "ASC",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvoicesUnknownSortFallsBack(t *testing.T) {
	svc, mock := newListService(t)

	// an unrecognized field can never reach ORDER BY
	mock.ExpectQuery(`ORDER BY i\.issued_at DESC`).
		WithArgs(20, 0).
		WillReturnRows(invoiceDetailRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices i`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := svc.ListInvoices(context.Background(), &InvoiceListRequest{
		SortBy:    "amount; DROP TABLE invoices",
		SortOrder: "sideways",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvoicesPaginationMath(t *testing.T) {
	svc, mock := newListService(t)

	// page 4 of 45 items at limit 20 is past the end: empty, not an error
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 60).
		WillReturnRows(invoiceDetailRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices i`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))

	resp, err := svc.ListInvoices(context.Background(), &InvoiceListRequest{
		Page:  4,
		Limit: 20,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
	assert.Equal(t, 45, resp.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, 4, resp.Pagination.CurrentPage)
}

func TestListInvoicesClampsLimit(t *testing.T) {
	svc, mock := newListService(t)

	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(100, 0).
		WillReturnRows(invoiceDetailRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices i`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	resp, err := svc.ListInvoices(context.Background(), &InvoiceListRequest{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Pagination.ItemsPerPage)
}

func TestListSubscriptions(t *testing.T) {
	svc, mock := newListService(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"subscription_id", "customer_id", "plan_id", "status", "start_date",
		"end_date", "next_billing_date", "payment_method_token",
		"created_at", "updated_at", "name", "plan_name",
	}).
		AddRow(11, 8, 2, "ACTIVE", start, nil, start.AddDate(0, 1, 0), nil, now, now, "Zenith LLC", "Basic").
		AddRow(10, 7, 4, "PAUSED", start, nil, start.AddDate(0, 1, 0), nil, now, now, "Acme Corp", "Pro")

	mock.ExpectQuery(`ORDER BY s\.created_at DESC`).WillReturnRows(rows)

	summaries, err := svc.ListSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Zenith LLC", summaries[0].CustomerName)
	assert.Equal(t, SubscriptionStatusPaused, summaries[1].Status)
}
