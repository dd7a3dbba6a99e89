package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billfold/billfold/pkg/customers"
)

// mockCustomerService implements customers.Service for testing
type mockCustomerService struct {
	listCustomersFunc func(ctx context.Context) ([]*customers.Customer, error)
	getCustomerFunc   func(ctx context.Context, customerID int64) (*customers.Customer, error)
}

func (m *mockCustomerService) ListCustomers(ctx context.Context) ([]*customers.Customer, error) {
	if m.listCustomersFunc != nil {
		return m.listCustomersFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customers.Customer, error) {
	if m.getCustomerFunc != nil {
		return m.getCustomerFunc(ctx, customerID)
	}
	return nil, errors.New("not implemented")
}

// TestListCustomers_Success tests the customer listing
func TestListCustomers_Success(t *testing.T) {
	mockService := &mockCustomerService{
		listCustomersFunc: func(ctx context.Context) ([]*customers.Customer, error) {
			return []*customers.Customer{
				{CustomerID: 1, Name: "Acme Corp", Email: "billing@acme.example"},
				{CustomerID: 2, Name: "Globex", Email: "ap@globex.example"},
			}, nil
		},
	}
	handlers := NewCustomerHandlers(mockService)

	req := httptest.NewRequest("GET", "/customers", nil)
	w := httptest.NewRecorder()

	handlers.ListCustomers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var customerList []*customers.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customerList))
	require.Len(t, customerList, 2)
	assert.Equal(t, "Acme Corp", customerList[0].Name)
}

// TestListCustomers_StoreError tests 500 mapping
func TestListCustomers_StoreError(t *testing.T) {
	mockService := &mockCustomerService{
		listCustomersFunc: func(ctx context.Context) ([]*customers.Customer, error) {
			return nil, errors.New("connection refused")
		},
	}
	handlers := NewCustomerHandlers(mockService)

	req := httptest.NewRequest("GET", "/customers", nil)
	w := httptest.NewRecorder()

	handlers.ListCustomers(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "DATABASE_ERROR", env.Error.Code)
}

// TestGetCustomer_Success tests single customer retrieval
func TestGetCustomer_Success(t *testing.T) {
	mockService := &mockCustomerService{
		getCustomerFunc: func(ctx context.Context, customerID int64) (*customers.Customer, error) {
			return &customers.Customer{CustomerID: customerID, Name: "Acme Corp"}, nil
		},
	}
	handlers := NewCustomerHandlers(mockService)

	req := httptest.NewRequest("GET", "/customers/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	w := httptest.NewRecorder()

	handlers.GetCustomer(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var customer customers.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customer))
	assert.Equal(t, int64(1), customer.CustomerID)
}

// TestGetCustomer_NotFound tests 404 mapping
func TestGetCustomer_NotFound(t *testing.T) {
	mockService := &mockCustomerService{
		getCustomerFunc: func(ctx context.Context, customerID int64) (*customers.Customer, error) {
			return nil, customers.ErrNotFound
		},
	}
	handlers := NewCustomerHandlers(mockService)

	req := httptest.NewRequest("GET", "/customers/99", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	w := httptest.NewRecorder()

	handlers.GetCustomer(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", env.Error.Code)
}
