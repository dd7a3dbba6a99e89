package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/billfold/billfold/pkg/billing"
	"github.com/billfold/billfold/pkg/httputil"
)

// BillingHandlers handles subscription and invoice HTTP requests
type BillingHandlers struct {
	billingService billing.Service
}

// NewBillingHandlers creates a new BillingHandlers
func NewBillingHandlers(billingService billing.Service) *BillingHandlers {
	return &BillingHandlers{
		billingService: billingService,
	}
}

// RegisterRoutes registers billing routes
func (h *BillingHandlers) RegisterRoutes(router *mux.Router) {
	// Subscriptions
	router.HandleFunc("/subscriptions/add", h.AddSubscription).Methods("POST")
	router.HandleFunc("/subscriptions/modify", h.ModifySubscription).Methods("POST")
	router.HandleFunc("/subscriptions", h.ListSubscriptions).Methods("GET")

	// Invoices
	router.HandleFunc("/invoices", h.ListInvoices).Methods("GET")
	router.HandleFunc("/invoices/update-status", h.UpdateInvoiceStatus).Methods("POST")
}

// AddSubscription creates a subscription and its first invoice
func (h *BillingHandlers) AddSubscription(w http.ResponseWriter, r *http.Request) {
	var req billing.AddSubscriptionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	subscription, err := h.billingService.AddSubscription(r.Context(), &req)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"subscription": subscription,
	}, "Subscription created successfully")
}

// ModifySubscription partially updates a subscription
func (h *BillingHandlers) ModifySubscription(w http.ResponseWriter, r *http.Request) {
	var req billing.ModifySubscriptionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.billingService.ModifySubscription(r.Context(), &req)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, result, "Subscription modified successfully")
}

// ListSubscriptions lists all subscriptions with customer and plan names
func (h *BillingHandlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subscriptions, err := h.billingService.ListSubscriptions(r.Context())
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, subscriptions, "")
}

// ListInvoices lists invoices with filtering, sorting, and pagination
func (h *BillingHandlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	customerID, err := httputil.ParseQueryInt64Ptr(r, "customer_id")
	if err != nil {
		httputil.WriteValidationError(w, "INVALID_PARAMETER", err.Error())
		return
	}

	req := &billing.InvoiceListRequest{
		Page:          httputil.ParseQueryInt(r, "page", 1),
		Limit:         httputil.ParseQueryInt(r, "limit", 20),
		BillingMonth:  httputil.ParseQueryString(r, "billing_month", ""),
		PaymentStatus: httputil.ParseQueryString(r, "payment_status", ""),
		CustomerID:    customerID,
		SortBy:        httputil.ParseQueryString(r, "sort_by", "issued_at"),
		SortOrder:     httputil.ParseQueryString(r, "sort_order", "desc"),
	}

	resp, err := h.billingService.ListInvoices(r.Context(), req)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, resp, "Invoices retrieved successfully")
}

// UpdateInvoiceStatus changes an invoice's payment status
func (h *BillingHandlers) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvoiceID     int64  `json:"invoice_id"`
		PaymentStatus string `json:"payment_status"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	status := billing.InvoiceStatus(strings.ToUpper(req.PaymentStatus))
	invoice, err := h.billingService.UpdateInvoiceStatus(r.Context(), req.InvoiceID, status)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"invoice": invoice,
	}, "Invoice status updated successfully")
}
