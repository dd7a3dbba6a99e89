package billing

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// List defaults and bounds
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// invoiceSortColumns is the allow-list of sortable fields mapped to their
// qualified columns. Anything else falls back to issued_at.
var invoiceSortColumns = map[string]string{
	"issued_at":      "i.issued_at",
	"billing_month":  "i.billing_month",
	"due_date":       "i.due_date",
	"payment_date":   "i.payment_date",
	"customer_name":  "c.name",
	"plan_name":      "p.plan_name",
	"payment_status": "i.payment_status",
	"amount":         "i.amount",
}

// ListInvoices returns invoices joined with customer, plan, and subscription
// data, filtered, sorted, and paginated. The data and count queries run
// concurrently; a transient mismatch between them from a concurrent insert
// is tolerated.
func (s *PostgresService) ListInvoices(ctx context.Context, req *InvoiceListRequest) (*InvoiceListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	filters := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	argCount := 1

	if req.BillingMonth != "" {
		filters = append(filters, fmt.Sprintf("i.billing_month = $%d", argCount))
		args = append(args, req.BillingMonth)
		argCount++
	}
	if req.PaymentStatus != "" {
		filters = append(filters, fmt.Sprintf("i.payment_status = $%d", argCount))
		args = append(args, req.PaymentStatus)
		argCount++
	}
	if req.CustomerID != nil {
		filters = append(filters, fmt.Sprintf("i.customer_id = $%d", argCount))
		args = append(args, *req.CustomerID)
		argCount++
	}

	whereClause := ""
	if len(filters) > 0 {
		whereClause = " WHERE " + strings.Join(filters, " AND ")
	}

	sortColumn, ok := invoiceSortColumns[req.SortBy]
	if !ok {
		sortColumn = "i.issued_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(req.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	dataQuery := fmt.Sprintf(`
		SELECT i.invoice_id, i.subscription_id, i.customer_id, c.name, c.email,
		       p.plan_name, i.billing_month, i.amount, i.payment_status,
		       i.payment_date, i.payment_method_token, i.due_date, i.issued_at,
		       i.created_at, sub.status
		FROM invoices i
		JOIN customers c ON i.customer_id = c.customer_id
		JOIN subscriptions sub ON i.subscription_id = sub.subscription_id
		JOIN plans p ON sub.plan_id = p.plan_id
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortColumn, sortOrder, argCount, argCount+1)

	dataArgs := make([]interface{}, 0, len(args)+2)
	dataArgs = append(dataArgs, args...)
	dataArgs = append(dataArgs, limit, offset)

	// Count applies the same filters without the joins; none of the
	// filterable columns live outside the invoices table.
	countQuery := "SELECT COUNT(*) FROM invoices i" + whereClause

	var invoices []*InvoiceDetail
	var totalItems int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.replica.QueryContext(gctx, dataQuery, dataArgs...)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		defer rows.Close()

		result := make([]*InvoiceDetail, 0, limit)
		for rows.Next() {
			d := &InvoiceDetail{}
			err := rows.Scan(&d.InvoiceID, &d.SubscriptionID, &d.Customer.CustomerID,
				&d.Customer.Name, &d.Customer.Email, &d.Plan.PlanName, &d.BillingMonth,
				&d.Amount, &d.PaymentStatus, &d.PaymentDate, &d.PaymentMethodToken,
				&d.DueDate, &d.IssuedAt, &d.CreatedAt, &d.SubscriptionStatus)
			if err != nil {
				return fmt.Errorf("failed to scan invoice: %w", err)
			}
			result = append(result, d)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate invoices: %w", err)
		}
		invoices = result
		return nil
	})
	g.Go(func() error {
		if err := s.replica.QueryRowContext(gctx, countQuery, args...).Scan(&totalItems); err != nil {
			return fmt.Errorf("failed to count invoices: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}

	return &InvoiceListResponse{
		Invoices: invoices,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   totalItems,
			ItemsPerPage: limit,
		},
	}, nil
}

// ListSubscriptions returns all subscriptions joined with customer and plan
// names, newest first.
func (s *PostgresService) ListSubscriptions(ctx context.Context) ([]*SubscriptionSummary, error) {
	query := `
		SELECT s.subscription_id, s.customer_id, s.plan_id, s.status, s.start_date,
		       s.end_date, s.next_billing_date, s.payment_method_token,
		       s.created_at, s.updated_at, c.name, p.plan_name
		FROM subscriptions s
		JOIN customers c ON s.customer_id = c.customer_id
		JOIN plans p ON s.plan_id = p.plan_id
		ORDER BY s.created_at DESC
	`
	rows, err := s.replica.QueryContext(ctx, query)
	if err != nil {
		return nil, s.fail(NewStoreError(fmt.Errorf("failed to list subscriptions: %w", err)))
	}
	defer rows.Close()

	summaries := make([]*SubscriptionSummary, 0)
	for rows.Next() {
		sum := &SubscriptionSummary{}
		err := rows.Scan(&sum.SubscriptionID, &sum.CustomerID, &sum.PlanID, &sum.Status,
			&sum.StartDate, &sum.EndDate, &sum.NextBillingDate, &sum.PaymentMethodToken,
			&sum.CreatedAt, &sum.UpdatedAt, &sum.CustomerName, &sum.PlanName)
		if err != nil {
			return nil, s.fail(NewStoreError(fmt.Errorf("failed to scan subscription: %w", err)))
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(NewStoreError(fmt.Errorf("failed to iterate subscriptions: %w", err)))
	}

	return summaries, nil
}
