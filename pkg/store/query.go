package store

import (
	"context"
	"fmt"
)

// DocumentKind discriminates the four entity tables, mirroring the
// `data_type` column every row carries (§6 "Persisted state layout").
type DocumentKind string

const (
	KindSession DocumentKind = "session"
	KindPlan    DocumentKind = "plan"
	KindStep    DocumentKind = "step"
	KindMessage DocumentKind = "agent_message"
)

var tableNames = map[DocumentKind]string{
	KindSession: "sessions",
	KindPlan:    "plans",
	KindStep:    "steps",
	KindMessage: "agent_messages",
}

// DeleteAllOfType deletes every document of one kind belonging to userID
// (§4.1 "deleteAllOfType(type, userId)").
func (s *Store) DeleteAllOfType(ctx context.Context, kind DocumentKind, userID string) error {
	table, ok := tableNames[kind]
	if !ok {
		return fmt.Errorf("store: unknown document kind %q", kind)
	}
	return withRetry(ctx, func() error {
		sql := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, table)
		if _, err := s.pool.Exec(ctx, sql, userID); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		return nil
	})
}

// DeleteAllForUser deletes every Session, Plan, Step, and Agent Message
// owned by userID (§6 DELETE /messages). Agent Messages and Steps are
// removed before their owning Plan/Session only for tidiness — there are no
// foreign-key constraints to satisfy (§6 "no cross-partition transactions").
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	for _, kind := range []DocumentKind{KindMessage, KindStep, KindPlan, KindSession} {
		if err := s.DeleteAllOfType(ctx, kind, userID); err != nil {
			return err
		}
	}
	return nil
}

// Query is the generic partitioned-scan primitive behind §4.1's
// `query(kind, predicate)`: it filters an already-fetched, partition-scoped
// document slice (e.g. from ListPlans or ListMessagesBySession) by an
// arbitrary predicate, the same "fetch the partition, filter in process"
// shape Cosmos-style partitioned stores use for anything beyond an indexed
// lookup.
func Query[T any](docs []T, predicate func(T) bool) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		if predicate(d) {
			out = append(out, d)
		}
	}
	return out
}
