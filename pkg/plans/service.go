package plans

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a plan does not exist
var ErrNotFound = fmt.Errorf("plan not found")

// ErrInvalidCycle is returned for an unrecognized billing cycle value
var ErrInvalidCycle = fmt.Errorf("invalid billing cycle")

// Service defines plan catalog operations
type Service interface {
	ListPlans(ctx context.Context, includeInactive bool) ([]*Plan, error)
	GetPlan(ctx context.Context, planID int64) (*Plan, error)
	CreatePlan(ctx context.Context, req *CreatePlanRequest) (*Plan, error)
	UpdatePlan(ctx context.Context, planID int64, patch *PlanPatch) (*Plan, error)
}

// PostgresService implements the plans Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

const planColumns = "plan_id, plan_name, monthly_price, billing_cycle, is_active, created_at, updated_at"

func scanPlan(row interface{ Scan(...interface{}) error }) (*Plan, error) {
	p := &Plan{}
	err := row.Scan(&p.PlanID, &p.PlanName, &p.MonthlyPrice, &p.BillingCycle,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlans returns plans ordered by monthly price. Inactive plans are
// excluded unless includeInactive is set.
func (s *PostgresService) ListPlans(ctx context.Context, includeInactive bool) ([]*Plan, error) {
	query := fmt.Sprintf("SELECT %s FROM plans", planColumns)
	if !includeInactive {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY monthly_price"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]*Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, nil
}

// GetPlan retrieves a single plan by ID
func (s *PostgresService) GetPlan(ctx context.Context, planID int64) (*Plan, error) {
	query := fmt.Sprintf("SELECT %s FROM plans WHERE plan_id = $1", planColumns)

	p, err := scanPlan(s.db.QueryRowContext(ctx, query, planID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return p, nil
}

// CreatePlan inserts a new plan. The billing cycle defaults to MONTHLY.
func (s *PostgresService) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*Plan, error) {
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = BillingCycleMonthly
	}
	if !cycle.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCycle, cycle)
	}

	query := fmt.Sprintf(`
		INSERT INTO plans (plan_name, monthly_price, billing_cycle)
		VALUES ($1, $2, $3)
		RETURNING %s
	`, planColumns)

	p, err := scanPlan(s.db.QueryRowContext(ctx, query, req.PlanName, *req.MonthlyPrice, cycle))
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	return p, nil
}

// UpdatePlan applies a partial update, building the SET list from the
// fields present in the patch.
func (s *PostgresService) UpdatePlan(ctx context.Context, planID int64, patch *PlanPatch) (*Plan, error) {
	setClauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	argCount := 1

	if patch.PlanName != nil {
		setClauses = append(setClauses, fmt.Sprintf("plan_name = $%d", argCount))
		args = append(args, *patch.PlanName)
		argCount++
	}
	if patch.MonthlyPrice != nil {
		setClauses = append(setClauses, fmt.Sprintf("monthly_price = $%d", argCount))
		args = append(args, *patch.MonthlyPrice)
		argCount++
	}
	if patch.BillingCycle != nil {
		if !patch.BillingCycle.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCycle, *patch.BillingCycle)
		}
		setClauses = append(setClauses, fmt.Sprintf("billing_cycle = $%d", argCount))
		args = append(args, *patch.BillingCycle)
		argCount++
	}
	if patch.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argCount))
		args = append(args, *patch.IsActive)
		argCount++
	}

	if len(setClauses) == 0 {
		return s.GetPlan(ctx, planID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, planID)

	query := fmt.Sprintf("UPDATE plans SET %s WHERE plan_id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argCount, planColumns)

	p, err := scanPlan(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	return p, nil
}
