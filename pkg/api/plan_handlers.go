package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/billfold/billfold/pkg/httputil"
	"github.com/billfold/billfold/pkg/plans"
)

// PlanHandlers handles plan catalog HTTP requests
type PlanHandlers struct {
	planService plans.Service
}

// NewPlanHandlers creates a new PlanHandlers
func NewPlanHandlers(planService plans.Service) *PlanHandlers {
	return &PlanHandlers{
		planService: planService,
	}
}

// RegisterRoutes registers plan routes
func (h *PlanHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/plans", h.ListPlans).Methods("GET")
	router.HandleFunc("/plans", h.CreatePlan).Methods("POST")
	router.HandleFunc("/plans/{id:[0-9]+}", h.UpdatePlan).Methods("PUT")
}

// ListPlans lists active plans. Pass all=true to include inactive ones.
func (h *PlanHandlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	includeInactive := httputil.ParseQueryBool(r, "all", false)

	planList, err := h.planService.ListPlans(r.Context(), includeInactive)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, planList, "")
}

// CreatePlan adds a plan to the catalog
func (h *PlanHandlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req plans.CreatePlanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.PlanName == "" || req.MonthlyPrice == nil {
		httputil.WriteValidationError(w, "MISSING_REQUIRED_FIELD",
			"plan_name and monthly_price are required")
		return
	}

	plan, err := h.planService.CreatePlan(r.Context(), &req)
	if err != nil {
		if errors.Is(err, plans.ErrInvalidCycle) {
			httputil.WriteValidationError(w, "INVALID_BILLING_CYCLE", err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"plan": plan,
	}, "Plan created successfully")
}

// UpdatePlan applies a partial update to a plan
func (h *PlanHandlers) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var patch plans.PlanPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	plan, err := h.planService.UpdatePlan(r.Context(), planID, &patch)
	if err != nil {
		switch {
		case errors.Is(err, plans.ErrNotFound):
			httputil.WriteNotFoundError(w, "PLAN_NOT_FOUND", "Plan not found")
		case errors.Is(err, plans.ErrInvalidCycle):
			httputil.WriteValidationError(w, "INVALID_BILLING_CYCLE", err.Error())
		default:
			httputil.WriteInternalError(w, err)
		}
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"plan": plan,
	}, "Plan updated successfully")
}
