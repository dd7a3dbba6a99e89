package billing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/billfold/billfold/pkg/observability"
	"github.com/billfold/billfold/pkg/plans"
)

// PostgresService implements the billing Service interface using PostgreSQL
type PostgresService struct {
	db      *sql.DB
	replica *sql.DB
	metrics *observability.Metrics
}

// NewPostgresService creates a new PostgresService. The replica connection
// serves the read-only listing queries and may equal db; metrics may be nil.
func NewPostgresService(db, replica *sql.DB, metrics *observability.Metrics) *PostgresService {
	if replica == nil {
		replica = db
	}
	return &PostgresService{db: db, replica: replica, metrics: metrics}
}

const subscriptionColumns = "subscription_id, customer_id, plan_id, status, start_date, end_date, next_billing_date, payment_method_token, created_at, updated_at"

const invoiceColumns = "invoice_id, subscription_id, customer_id, billing_month, amount, payment_status, payment_date, due_date, payment_method_token, issued_at, created_at, updated_at"

func scanSubscription(row interface{ Scan(...interface{}) error }) (*Subscription, error) {
	sub := &Subscription{}
	err := row.Scan(&sub.SubscriptionID, &sub.CustomerID, &sub.PlanID, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.NextBillingDate, &sub.PaymentMethodToken,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func scanInvoice(row interface{ Scan(...interface{}) error }) (*Invoice, error) {
	inv := &Invoice{}
	err := row.Scan(&inv.InvoiceID, &inv.SubscriptionID, &inv.CustomerID, &inv.BillingMonth,
		&inv.Amount, &inv.PaymentStatus, &inv.PaymentDate, &inv.DueDate,
		&inv.PaymentMethodToken, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *PostgresService) fail(e *Error) *Error {
	if s.metrics != nil {
		s.metrics.BillingErrorsTotal.WithLabelValues(e.Code).Inc()
	}
	return e
}

// AddSubscription creates a subscription and, unless it starts as a trial,
// its first invoice. Both writes commit or roll back together.
func (s *PostgresService) AddSubscription(ctx context.Context, req *AddSubscriptionRequest) (*Subscription, error) {
	if req.CustomerID == 0 || req.PlanID == 0 || req.StartDate == "" {
		return nil, s.fail(NewValidationError(CodeMissingRequiredField,
			"customer_id, plan_id and start_date are required"))
	}

	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, s.fail(NewValidationError(CodeInvalidDate,
			fmt.Sprintf("start_date must be YYYY-MM-DD: %q", req.StartDate)))
	}

	status := req.Status
	if status == "" {
		status = SubscriptionStatusActive
	}
	if !status.IsValid() {
		return nil, s.fail(NewValidationError(CodeInvalidStatus,
			fmt.Sprintf("unknown subscription status %q", status)))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}
	defer tx.Rollback()

	var monthlyPrice float64
	var cycle plans.BillingCycle
	var isActive bool
	err = tx.QueryRowContext(ctx,
		"SELECT monthly_price, billing_cycle, is_active FROM plans WHERE plan_id = $1",
		req.PlanID).Scan(&monthlyPrice, &cycle, &isActive)
	if err == sql.ErrNoRows {
		return nil, s.fail(NewNotFoundError(CodePlanNotFound, "plan not found"))
	}
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}
	if !isActive {
		return nil, s.fail(NewInvalidStateError(CodePlanNotActive, "plan is not active"))
	}

	nextBilling := NextBillingDate(start, cycle)

	insertSub := fmt.Sprintf(`
		INSERT INTO subscriptions (customer_id, plan_id, start_date, next_billing_date, status, payment_method_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, subscriptionColumns)

	sub, err := scanSubscription(tx.QueryRowContext(ctx, insertSub,
		req.CustomerID, req.PlanID, start, nextBilling, status, req.PaymentMethodToken))
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	if status != SubscriptionStatusTrial {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoices (subscription_id, customer_id, billing_month, amount, payment_status, due_date, payment_method_token)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, sub.SubscriptionID, req.CustomerID, BillingMonth(start), monthlyPrice,
			InvoiceStatusPending, FirstInvoiceDueDate(start), req.PaymentMethodToken)
		if err != nil {
			return nil, s.fail(NewStoreError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	if s.metrics != nil {
		s.metrics.SubscriptionsCreatedTotal.WithLabelValues(string(status)).Inc()
		if status != SubscriptionStatusTrial {
			s.metrics.InvoicesCreatedTotal.WithLabelValues("initial").Inc()
		}
	}

	return sub, nil
}

// ModifySubscription applies a partial update to a subscription. Canceling
// forces next_billing_date to null and requires an end date; switching to a
// more expensive plan creates a pro-rated invoice for the price difference.
// Downgrades create nothing: the credit is deliberately dropped.
func (s *PostgresService) ModifySubscription(ctx context.Context, req *ModifySubscriptionRequest) (*ModifyResult, error) {
	if req.SubscriptionID == 0 {
		return nil, s.fail(NewValidationError(CodeMissingRequiredField, "subscription_id is required"))
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, s.fail(NewValidationError(CodeInvalidStatus,
			fmt.Sprintf("unknown subscription status %q", *req.Status)))
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := ParseDate(*req.EndDate)
		if err != nil {
			return nil, s.fail(NewValidationError(CodeInvalidDate,
				fmt.Sprintf("end_date must be YYYY-MM-DD: %q", *req.EndDate)))
		}
		endDate = &parsed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}
	defer tx.Rollback()

	current, err := scanSubscription(tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM subscriptions WHERE subscription_id = $1", subscriptionColumns),
		req.SubscriptionID))
	if err == sql.ErrNoRows {
		return nil, s.fail(NewNotFoundError(CodeSubscriptionNotFound, "subscription not found"))
	}
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	if current.Status == SubscriptionStatusCanceled {
		return nil, s.fail(NewInvalidStateError(CodeSubscriptionAlreadyCanceled,
			"a canceled subscription cannot be modified"))
	}

	canceling := req.Status != nil && *req.Status == SubscriptionStatusCanceled
	if canceling && req.EndDate == nil {
		return nil, s.fail(NewInvalidStateError(CodeEndDateRequired,
			"end_date is required when canceling a subscription"))
	}

	setClauses := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	argCount := 1

	if req.PlanID != nil {
		setClauses = append(setClauses, fmt.Sprintf("plan_id = $%d", argCount))
		args = append(args, *req.PlanID)
		argCount++
	}
	if req.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *req.Status)
		argCount++
		if canceling {
			setClauses = append(setClauses, "next_billing_date = NULL")
			// endDate is always set here given the check above; the
			// fallback mirrors long-standing behavior and stays.
			effectiveEnd := time.Now()
			if endDate != nil {
				effectiveEnd = *endDate
			}
			setClauses = append(setClauses, fmt.Sprintf("end_date = $%d", argCount))
			args = append(args, effectiveEnd)
			argCount++
		}
	}
	if req.PaymentMethodToken != nil {
		setClauses = append(setClauses, fmt.Sprintf("payment_method_token = $%d", argCount))
		args = append(args, *req.PaymentMethodToken)
		argCount++
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, req.SubscriptionID)

	updateQuery := fmt.Sprintf("UPDATE subscriptions SET %s WHERE subscription_id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argCount, subscriptionColumns)

	updated, err := scanSubscription(tx.QueryRowContext(ctx, updateQuery, args...))
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	var changes *PlanChange
	prorated := false
	if req.PlanID != nil && *req.PlanID != current.PlanID {
		var oldName, newName string
		var oldPrice, newPrice float64

		err = tx.QueryRowContext(ctx,
			"SELECT plan_name, monthly_price FROM plans WHERE plan_id = $1",
			current.PlanID).Scan(&oldName, &oldPrice)
		if err != nil {
			return nil, s.fail(NewStoreError(err))
		}
		err = tx.QueryRowContext(ctx,
			"SELECT plan_name, monthly_price FROM plans WHERE plan_id = $1",
			*req.PlanID).Scan(&newName, &newPrice)
		if err != nil {
			return nil, s.fail(NewStoreError(err))
		}

		priceDiff := newPrice - oldPrice
		if priceDiff > 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO invoices (subscription_id, customer_id, billing_month, amount, payment_status, due_date, payment_method_token)
				VALUES ($1, $2, $3, $4, $5, CURRENT_DATE + 7, $6)
			`, updated.SubscriptionID, updated.CustomerID, BillingMonth(time.Now()),
				priceDiff, InvoiceStatusPending, updated.PaymentMethodToken)
			if err != nil {
				return nil, s.fail(NewStoreError(err))
			}
			prorated = true
		}

		changes = &PlanChange{
			PlanChanged:     true,
			PreviousPlan:    oldName,
			NewPlan:         newName,
			PriceDifference: priceDiff,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	if s.metrics != nil {
		kind := "update"
		switch {
		case canceling:
			kind = "cancel"
		case changes != nil:
			kind = "plan_change"
		}
		s.metrics.SubscriptionsModifiedTotal.WithLabelValues(kind).Inc()
		if prorated {
			s.metrics.InvoicesCreatedTotal.WithLabelValues("proration").Inc()
		}
	}

	return &ModifyResult{Subscription: updated, Changes: changes}, nil
}

// UpdateInvoiceStatus sets an invoice's payment status. Moving to PAID
// stamps payment_date; moving away from PAID leaves any prior payment_date
// in place. That quirk is load-bearing for reporting, do not clear it.
func (s *PostgresService) UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status InvoiceStatus) (*Invoice, error) {
	if invoiceID == 0 || status == "" {
		return nil, s.fail(NewValidationError(CodeMissingField,
			"invoice_id and payment_status are required"))
	}
	if !status.IsValid() {
		return nil, s.fail(NewValidationError(CodeInvalidStatus,
			fmt.Sprintf("unknown payment status %q", status)))
	}

	query := fmt.Sprintf(`
		UPDATE invoices
		SET payment_status = $1::varchar,
		    payment_date = CASE WHEN $1 = 'PAID' THEN CURRENT_TIMESTAMP ELSE payment_date END,
		    updated_at = NOW()
		WHERE invoice_id = $2
		RETURNING %s
	`, invoiceColumns)

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, status, invoiceID))
	if err == sql.ErrNoRows {
		return nil, s.fail(NewNotFoundError(CodeInvoiceNotFound, "invoice not found"))
	}
	if err != nil {
		return nil, s.fail(NewStoreError(err))
	}

	if s.metrics != nil {
		s.metrics.InvoiceStatusUpdatesTotal.WithLabelValues(string(status)).Inc()
	}

	return inv, nil
}
