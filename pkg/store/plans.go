package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// AddPlan inserts a new Plan. Enforces I1 (at most one active Plan per
// session) by refusing the insert, with ErrConflict, when an in_progress
// Plan already exists for sess.SessionID.
func (s *Store) AddPlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	var out models.Plan
	err := withRetry(ctx, func() error {
		existing, getErr := s.GetPlanBySession(ctx, plan.SessionID)
		if getErr == nil && existing.OverallStatus == models.PlanInProgress {
			return ErrConflict
		}
		if getErr != nil && !errors.Is(getErr, ErrNotFound) {
			return getErr
		}

		row := s.pool.QueryRow(ctx, `
			INSERT INTO plans (id, session_id, user_id, initial_goal, summary,
				overall_status, human_clarification_request, human_clarification_response, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, session_id, user_id, initial_goal, summary, overall_status,
				human_clarification_request, human_clarification_response, source, ts`,
			plan.ID, plan.SessionID, plan.UserID, plan.InitialGoal, plan.Summary,
			string(plan.OverallStatus), plan.HumanClarificationRequest,
			plan.HumanClarificationResponse, plan.Source)
		var scanErr error
		out, scanErr = scanPlan(row)
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// UpdatePlan persists the mutable fields of an existing Plan.
func (s *Store) UpdatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	var out models.Plan
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			UPDATE plans SET summary = $2, overall_status = $3,
				human_clarification_request = $4, human_clarification_response = $5, ts = now()
			WHERE id = $1
			RETURNING id, session_id, user_id, initial_goal, summary, overall_status,
				human_clarification_request, human_clarification_response, source, ts`,
			plan.ID, plan.Summary, string(plan.OverallStatus),
			plan.HumanClarificationRequest, plan.HumanClarificationResponse)
		var scanErr error
		out, scanErr = scanPlan(row)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// GetPlan returns a Plan by id, or ErrNotFound.
func (s *Store) GetPlan(ctx context.Context, id string) (models.Plan, error) {
	var out models.Plan
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, session_id, user_id, initial_goal, summary, overall_status,
				human_clarification_request, human_clarification_response, source, ts
			FROM plans WHERE id = $1`, id)
		var scanErr error
		out, scanErr = scanPlan(row)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// GetPlanBySession returns the newest Plan for a session (I1: at most one is
// ever in_progress, but terminal Plans remain queryable by session).
func (s *Store) GetPlanBySession(ctx context.Context, sessionID string) (models.Plan, error) {
	var out models.Plan
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, session_id, user_id, initial_goal, summary, overall_status,
				human_clarification_request, human_clarification_response, source, ts
			FROM plans WHERE session_id = $1 ORDER BY ts DESC LIMIT 1`, sessionID)
		var scanErr error
		out, scanErr = scanPlan(row)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// ListPlans returns the newest `limit` Plans for a user (§6 "most-recent ≤5
// if no session", §9 "OFFSET 0 LIMIT 5 is a capacity cap, not a semantic
// limit" — callers pass the literal cap they need).
func (s *Store) ListPlans(ctx context.Context, userID string, limit int) ([]models.Plan, error) {
	var out []models.Plan
	err := withRetry(ctx, func() error {
		rows, qErr := s.pool.Query(ctx, `
			SELECT id, session_id, user_id, initial_goal, summary, overall_status,
				human_clarification_request, human_clarification_response, source, ts
			FROM plans WHERE user_id = $1 ORDER BY ts DESC LIMIT $2`, userID, limit)
		if qErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, qErr)
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			plan, scanErr := scanPlan(rows)
			if scanErr != nil {
				return fmt.Errorf("%w: %v", ErrTransport, scanErr)
			}
			out = append(out, plan)
		}
		return rows.Err()
	})
	return out, err
}

func scanPlan(row rowScanner) (models.Plan, error) {
	var plan models.Plan
	var status string
	err := row.Scan(&plan.ID, &plan.SessionID, &plan.UserID, &plan.InitialGoal, &plan.Summary,
		&status, &plan.HumanClarificationRequest, &plan.HumanClarificationResponse,
		&plan.Source, &plan.Ts)
	plan.OverallStatus = models.PlanStatus(status)
	return plan, err
}
