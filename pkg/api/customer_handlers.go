package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/billfold/billfold/pkg/customers"
	"github.com/billfold/billfold/pkg/httputil"
)

// CustomerHandlers handles customer HTTP requests
type CustomerHandlers struct {
	customerService customers.Service
}

// NewCustomerHandlers creates a new CustomerHandlers
func NewCustomerHandlers(customerService customers.Service) *CustomerHandlers {
	return &CustomerHandlers{
		customerService: customerService,
	}
}

// RegisterRoutes registers customer routes
func (h *CustomerHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/customers", h.ListCustomers).Methods("GET")
	router.HandleFunc("/customers/{id:[0-9]+}", h.GetCustomer).Methods("GET")
}

// ListCustomers lists all customers ordered by name
func (h *CustomerHandlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customerList, err := h.customerService.ListCustomers(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, customerList, "")
}

// GetCustomer retrieves a single customer by ID
func (h *CustomerHandlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			httputil.WriteNotFoundError(w, "CUSTOMER_NOT_FOUND", "Customer not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, customer, "")
}
