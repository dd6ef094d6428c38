package store

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// AddAgentMessage appends an Agent Message. Messages are append-only (§3):
// there is no UpdateAgentMessage.
func (s *Store) AddAgentMessage(ctx context.Context, msg models.AgentMessage) (models.AgentMessage, error) {
	var out models.AgentMessage
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			INSERT INTO agent_messages (id, session_id, user_id, plan_id, step_id, source, content)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, session_id, user_id, plan_id, step_id, source, content, ts`,
			msg.ID, msg.SessionID, msg.UserID, msg.PlanID, msg.StepID, msg.Source, msg.Content)
		var scanErr error
		out, scanErr = scanMessage(row)
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// ListMessagesBySession returns every Agent Message for a session in
// insertion order (§3 I6: observation order matches insertion order; seq
// breaks ties between messages sharing a ts).
func (s *Store) ListMessagesBySession(ctx context.Context, sessionID string) ([]models.AgentMessage, error) {
	return s.queryMessages(ctx, `
		SELECT id, session_id, user_id, plan_id, step_id, source, content, ts
		FROM agent_messages WHERE session_id = $1 ORDER BY seq ASC`, sessionID)
}

// ListMessagesByPlan returns every Agent Message tied to a Plan, in
// insertion order.
func (s *Store) ListMessagesByPlan(ctx context.Context, planID string) ([]models.AgentMessage, error) {
	return s.queryMessages(ctx, `
		SELECT id, session_id, user_id, plan_id, step_id, source, content, ts
		FROM agent_messages WHERE plan_id = $1 ORDER BY seq ASC`, planID)
}

// ListMessagesByUser returns the newest `limit` Agent Messages across every
// session owned by a user (§6 GET /messages, capped at 100).
func (s *Store) ListMessagesByUser(ctx context.Context, userID string, limit int) ([]models.AgentMessage, error) {
	return s.queryMessages(ctx, `
		SELECT id, session_id, user_id, plan_id, step_id, source, content, ts
		FROM agent_messages WHERE user_id = $1 ORDER BY seq DESC LIMIT $2`, userID, limit)
}

func (s *Store) queryMessages(ctx context.Context, sql string, args ...any) ([]models.AgentMessage, error) {
	var out []models.AgentMessage
	err := withRetry(ctx, func() error {
		rows, qErr := s.pool.Query(ctx, sql, args...)
		if qErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, qErr)
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			msg, scanErr := scanMessage(rows)
			if scanErr != nil {
				return fmt.Errorf("%w: %v", ErrTransport, scanErr)
			}
			out = append(out, msg)
		}
		return rows.Err()
	})
	return out, err
}

func scanMessage(row rowScanner) (models.AgentMessage, error) {
	var msg models.AgentMessage
	err := row.Scan(&msg.ID, &msg.SessionID, &msg.UserID, &msg.PlanID, &msg.StepID,
		&msg.Source, &msg.Content, &msg.Ts)
	return msg, err
}
