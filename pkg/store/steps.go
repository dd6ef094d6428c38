package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// AddStep inserts a new Step at the given ordinal (§9 "Step ordering" — an
// explicit ordinal column, set by the caller from the Planner's output
// slice position, not derived from ts).
func (s *Store) AddStep(ctx context.Context, step models.Step) (models.Step, error) {
	var out models.Step
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			INSERT INTO steps (id, plan_id, session_id, user_id, ordinal, action, agent,
				status, human_approval_status, human_feedback, updated_action, agent_reply)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, plan_id, session_id, user_id, ordinal, action, agent, status,
				human_approval_status, human_feedback, updated_action, agent_reply, ts`,
			step.ID, step.PlanID, step.SessionID, step.UserID, step.Ordinal, step.Action,
			string(step.Agent), string(step.Status), string(step.HumanApprovalStatus),
			step.HumanFeedback, step.UpdatedAction, step.AgentReply)
		var scanErr error
		out, scanErr = scanStep(row)
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// UpdateStep persists the mutable fields of a Step. Terminal states
// (completed, failed, rejected) are never written over by callers that obey
// §3's "Terminal states are immutable" rule; UpdateStep itself does not
// enforce this — the single writer (pkg/groupchat) does, per §3 Ownership.
func (s *Store) UpdateStep(ctx context.Context, step models.Step) (models.Step, error) {
	var out models.Step
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			UPDATE steps SET action = $2, status = $3, human_approval_status = $4,
				human_feedback = $5, updated_action = $6, agent_reply = $7, ts = now()
			WHERE id = $1
			RETURNING id, plan_id, session_id, user_id, ordinal, action, agent, status,
				human_approval_status, human_feedback, updated_action, agent_reply, ts`,
			step.ID, step.Action, string(step.Status), string(step.HumanApprovalStatus),
			step.HumanFeedback, step.UpdatedAction, step.AgentReply)
		var scanErr error
		out, scanErr = scanStep(row)
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

// GetStep returns a Step by id, scoped to sessionID (§3 Invariant I2 —
// Steps belong exclusively to one (user_id, session_id) partition).
func (s *Store) GetStep(ctx context.Context, id, sessionID string) (models.Step, error) {
	var out models.Step
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, plan_id, session_id, user_id, ordinal, action, agent, status,
				human_approval_status, human_feedback, updated_action, agent_reply, ts
			FROM steps WHERE id = $1 AND session_id = $2`, id, sessionID)
		var scanErr error
		out, scanErr = scanStep(row)
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

// ListStepsByPlan returns every Step of a Plan, in insertion order (ordinal).
func (s *Store) ListStepsByPlan(ctx context.Context, planID string) ([]models.Step, error) {
	var out []models.Step
	err := withRetry(ctx, func() error {
		rows, qErr := s.pool.Query(ctx, `
			SELECT id, plan_id, session_id, user_id, ordinal, action, agent, status,
				human_approval_status, human_feedback, updated_action, agent_reply, ts
			FROM steps WHERE plan_id = $1 ORDER BY ordinal ASC`, planID)
		if qErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, qErr)
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			step, scanErr := scanStep(rows)
			if scanErr != nil {
				return fmt.Errorf("%w: %v", ErrTransport, scanErr)
			}
			out = append(out, step)
		}
		return rows.Err()
	})
	return out, err
}

func scanStep(row rowScanner) (models.Step, error) {
	var step models.Step
	var agent, status, approval string
	err := row.Scan(&step.ID, &step.PlanID, &step.SessionID, &step.UserID, &step.Ordinal,
		&step.Action, &agent, &status, &approval, &step.HumanFeedback, &step.UpdatedAction,
		&step.AgentReply, &step.Ts)
	step.Agent = models.AgentName(agent)
	step.Status = models.StepStatus(status)
	step.HumanApprovalStatus = models.HumanApprovalStatus(approval)
	return step, err
}
