package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billfold/billfold/pkg/plans"
)

// mockPlanService implements plans.Service for testing
type mockPlanService struct {
	listPlansFunc  func(ctx context.Context, includeInactive bool) ([]*plans.Plan, error)
	getPlanFunc    func(ctx context.Context, planID int64) (*plans.Plan, error)
	createPlanFunc func(ctx context.Context, req *plans.CreatePlanRequest) (*plans.Plan, error)
	updatePlanFunc func(ctx context.Context, planID int64, patch *plans.PlanPatch) (*plans.Plan, error)
}

func (m *mockPlanService) ListPlans(ctx context.Context, includeInactive bool) ([]*plans.Plan, error) {
	if m.listPlansFunc != nil {
		return m.listPlansFunc(ctx, includeInactive)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPlanService) GetPlan(ctx context.Context, planID int64) (*plans.Plan, error) {
	if m.getPlanFunc != nil {
		return m.getPlanFunc(ctx, planID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPlanService) CreatePlan(ctx context.Context, req *plans.CreatePlanRequest) (*plans.Plan, error) {
	if m.createPlanFunc != nil {
		return m.createPlanFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPlanService) UpdatePlan(ctx context.Context, planID int64, patch *plans.PlanPatch) (*plans.Plan, error) {
	if m.updatePlanFunc != nil {
		return m.updatePlanFunc(ctx, planID, patch)
	}
	return nil, errors.New("not implemented")
}

// TestPlanHandlers_RegisterRoutes verifies all routes are registered
func TestPlanHandlers_RegisterRoutes(t *testing.T) {
	handlers := NewPlanHandlers(&mockPlanService{})
	router := mux.NewRouter()
	handlers.RegisterRoutes(router)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/plans"},
		{"POST", "/plans"},
		{"PUT", "/plans/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			var match mux.RouteMatch
			matched := router.Match(req, &match)
			assert.True(t, matched, "Route %s %s should be registered", tt.method, tt.path)
		})
	}
}

// TestListPlans_ActiveOnly tests that inactive plans are excluded by default
func TestListPlans_ActiveOnly(t *testing.T) {
	var gotIncludeInactive bool
	mockService := &mockPlanService{
		listPlansFunc: func(ctx context.Context, includeInactive bool) ([]*plans.Plan, error) {
			gotIncludeInactive = includeInactive
			return []*plans.Plan{{PlanID: 1, PlanName: "Basic", MonthlyPrice: 9.99}}, nil
		},
	}
	handlers := NewPlanHandlers(mockService)

	req := httptest.NewRequest("GET", "/plans", nil)
	w := httptest.NewRecorder()

	handlers.ListPlans(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotIncludeInactive)

	env := decodeEnvelope(t, w)
	var planList []*plans.Plan
	require.NoError(t, json.Unmarshal(env.Data, &planList))
	require.Len(t, planList, 1)
	assert.Equal(t, "Basic", planList[0].PlanName)
}

// TestListPlans_All tests the all=true switch
func TestListPlans_All(t *testing.T) {
	var gotIncludeInactive bool
	mockService := &mockPlanService{
		listPlansFunc: func(ctx context.Context, includeInactive bool) ([]*plans.Plan, error) {
			gotIncludeInactive = includeInactive
			return []*plans.Plan{}, nil
		},
	}
	handlers := NewPlanHandlers(mockService)

	req := httptest.NewRequest("GET", "/plans?all=true", nil)
	w := httptest.NewRecorder()

	handlers.ListPlans(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotIncludeInactive)
}

// TestCreatePlan_Success tests plan creation
func TestCreatePlan_Success(t *testing.T) {
	mockService := &mockPlanService{
		createPlanFunc: func(ctx context.Context, req *plans.CreatePlanRequest) (*plans.Plan, error) {
			return &plans.Plan{
				PlanID:       3,
				PlanName:     req.PlanName,
				MonthlyPrice: *req.MonthlyPrice,
				BillingCycle: plans.BillingCycleMonthly,
				IsActive:     true,
			}, nil
		},
	}
	handlers := NewPlanHandlers(mockService)

	price := 29.99
	reqBody, _ := json.Marshal(plans.CreatePlanRequest{PlanName: "Pro", MonthlyPrice: &price})
	req := httptest.NewRequest("POST", "/plans", bytes.NewBuffer(reqBody))
	w := httptest.NewRecorder()

	handlers.CreatePlan(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
}

// TestCreatePlan_MissingFields tests required-field validation
func TestCreatePlan_MissingFields(t *testing.T) {
	handlers := NewPlanHandlers(&mockPlanService{})

	req := httptest.NewRequest("POST", "/plans", bytes.NewBufferString(`{"plan_name": "Pro"}`))
	w := httptest.NewRecorder()

	handlers.CreatePlan(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "MISSING_REQUIRED_FIELD", env.Error.Code)
}

// TestCreatePlan_InvalidCycle tests billing cycle validation
func TestCreatePlan_InvalidCycle(t *testing.T) {
	mockService := &mockPlanService{
		createPlanFunc: func(ctx context.Context, req *plans.CreatePlanRequest) (*plans.Plan, error) {
			return nil, plans.ErrInvalidCycle
		},
	}
	handlers := NewPlanHandlers(mockService)

	req := httptest.NewRequest("POST", "/plans",
		bytes.NewBufferString(`{"plan_name": "Pro", "monthly_price": 29.99, "billing_cycle": "WEEKLY"}`))
	w := httptest.NewRecorder()

	handlers.CreatePlan(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "INVALID_BILLING_CYCLE", env.Error.Code)
}

// TestUpdatePlan_Success tests a partial update
func TestUpdatePlan_Success(t *testing.T) {
	mockService := &mockPlanService{
		updatePlanFunc: func(ctx context.Context, planID int64, patch *plans.PlanPatch) (*plans.Plan, error) {
			assert.Equal(t, int64(2), planID)
			require.NotNil(t, patch.MonthlyPrice)
			return &plans.Plan{PlanID: planID, PlanName: "Pro", MonthlyPrice: *patch.MonthlyPrice}, nil
		},
	}
	handlers := NewPlanHandlers(mockService)

	req := httptest.NewRequest("PUT", "/plans/2", bytes.NewBufferString(`{"monthly_price": 39.99}`))
	req = mux.SetURLVars(req, map[string]string{"id": "2"})
	w := httptest.NewRecorder()

	handlers.UpdatePlan(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestUpdatePlan_NotFound tests 404 mapping for unknown plans
func TestUpdatePlan_NotFound(t *testing.T) {
	mockService := &mockPlanService{
		updatePlanFunc: func(ctx context.Context, planID int64, patch *plans.PlanPatch) (*plans.Plan, error) {
			return nil, plans.ErrNotFound
		},
	}
	handlers := NewPlanHandlers(mockService)

	req := httptest.NewRequest("PUT", "/plans/99", bytes.NewBufferString(`{"is_active": false}`))
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	w := httptest.NewRecorder()

	handlers.UpdatePlan(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "PLAN_NOT_FOUND", env.Error.Code)
}
