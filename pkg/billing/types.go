package billing

import (
	"context"
	"time"
)

// SubscriptionStatus is the lifecycle state of a subscription
type SubscriptionStatus string

// Subscription statuses. CANCELED is terminal.
const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusTrial    SubscriptionStatus = "TRIAL"
	SubscriptionStatusPaused   SubscriptionStatus = "PAUSED"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// IsValid reports whether the status is a known value
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusTrial,
		SubscriptionStatusPaused, SubscriptionStatusCanceled:
		return true
	}
	return false
}

// InvoiceStatus is the payment state of an invoice
type InvoiceStatus string

// Invoice payment statuses
const (
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusPending  InvoiceStatus = "PENDING"
	InvoiceStatusFailed   InvoiceStatus = "FAILED"
	InvoiceStatusRefunded InvoiceStatus = "REFUNDED"
)

// IsValid reports whether the status is a known value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusPending, InvoiceStatusFailed, InvoiceStatusRefunded:
		return true
	}
	return false
}

// Subscription represents a customer's subscription to a plan
type Subscription struct {
	SubscriptionID     int64              `json:"subscription_id"`
	CustomerID         int64              `json:"customer_id"`
	PlanID             int64              `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            *time.Time         `json:"end_date"`
	NextBillingDate    *time.Time         `json:"next_billing_date"`
	PaymentMethodToken *string            `json:"payment_method_token"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Invoice represents a charge attributed to a billing month
type Invoice struct {
	InvoiceID          int64         `json:"invoice_id"`
	SubscriptionID     int64         `json:"subscription_id"`
	CustomerID         int64         `json:"customer_id"`
	BillingMonth       string        `json:"billing_month"`
	Amount             float64       `json:"amount"`
	PaymentStatus      InvoiceStatus `json:"payment_status"`
	PaymentDate        *time.Time    `json:"payment_date"`
	DueDate            *time.Time    `json:"due_date"`
	PaymentMethodToken *string       `json:"payment_method_token"`
	IssuedAt           time.Time     `json:"issued_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// AddSubscriptionRequest is the payload for creating a subscription.
// StartDate is a "YYYY-MM-DD" string; Status defaults to ACTIVE.
type AddSubscriptionRequest struct {
	CustomerID         int64              `json:"customer_id"`
	PlanID             int64              `json:"plan_id"`
	StartDate          string             `json:"start_date"`
	PaymentMethodToken *string            `json:"payment_method_token"`
	Status             SubscriptionStatus `json:"status"`
}

// ModifySubscriptionRequest carries optional subscription fields for a
// partial update. Nil fields are left unchanged.
type ModifySubscriptionRequest struct {
	SubscriptionID     int64               `json:"subscription_id"`
	PlanID             *int64              `json:"plan_id"`
	Status             *SubscriptionStatus `json:"status"`
	PaymentMethodToken *string             `json:"payment_method_token"`
	EndDate            *string             `json:"end_date"`
}

// PlanChange summarizes a plan switch performed by ModifySubscription
type PlanChange struct {
	PlanChanged     bool    `json:"plan_changed"`
	PreviousPlan    string  `json:"previous_plan"`
	NewPlan         string  `json:"new_plan"`
	PriceDifference float64 `json:"price_difference"`
}

// ModifyResult is the outcome of ModifySubscription. Changes is nil when
// the plan did not change.
type ModifyResult struct {
	Subscription *Subscription `json:"subscription"`
	Changes      *PlanChange   `json:"changes,omitempty"`
}

// InvoiceCustomer is the customer slice embedded in an invoice listing row
type InvoiceCustomer struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// InvoicePlan is the plan slice embedded in an invoice listing row
type InvoicePlan struct {
	PlanName string `json:"plan_name"`
}

// InvoiceDetail is an invoice joined with its customer, plan, and
// subscription status for the listing endpoint
type InvoiceDetail struct {
	InvoiceID          int64              `json:"invoice_id"`
	SubscriptionID     int64              `json:"subscription_id"`
	Customer           InvoiceCustomer    `json:"customer"`
	Plan               InvoicePlan        `json:"plan"`
	BillingMonth       string             `json:"billing_month"`
	Amount             float64            `json:"amount"`
	PaymentStatus      InvoiceStatus      `json:"payment_status"`
	PaymentDate        *time.Time         `json:"payment_date"`
	PaymentMethodToken *string            `json:"payment_method_token"`
	DueDate            *time.Time         `json:"due_date"`
	IssuedAt           time.Time          `json:"issued_at"`
	CreatedAt          time.Time          `json:"created_at"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
}

// InvoiceListRequest holds listing parameters. Zero-valued filters are
// not applied.
type InvoiceListRequest struct {
	Page          int
	Limit         int
	BillingMonth  string
	PaymentStatus string
	CustomerID    *int64
	SortBy        string
	SortOrder     string
}

// Pagination describes the page window of a listing response
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// InvoiceListResponse is the result of ListInvoices
type InvoiceListResponse struct {
	Invoices   []*InvoiceDetail `json:"invoices"`
	Pagination Pagination       `json:"pagination"`
}

// SubscriptionSummary is a subscription joined with customer and plan names
type SubscriptionSummary struct {
	Subscription
	CustomerName string `json:"customer_name"`
	PlanName     string `json:"plan_name"`
}

// Service defines the subscription lifecycle operations
type Service interface {
	AddSubscription(ctx context.Context, req *AddSubscriptionRequest) (*Subscription, error)
	ModifySubscription(ctx context.Context, req *ModifySubscriptionRequest) (*ModifyResult, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status InvoiceStatus) (*Invoice, error)
	ListInvoices(ctx context.Context, req *InvoiceListRequest) (*InvoiceListResponse, error)
	ListSubscriptions(ctx context.Context) ([]*SubscriptionSummary, error)
}
