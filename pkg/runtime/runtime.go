// Package runtime implements the Session Runtime (C9): lazily constructs,
// per sessionId, the whole component graph (Planner, Group Chat Manager,
// Human Agent, Specialist Roster, cancellation token) and evicts idle
// sessions on a schedule. Grounded on the teacher's lazy per-key instance
// cache pattern combined with haasonsaas-nexus's robfig/cron/v3 scheduled
// sweep (internal/tasks/scheduler.go) — generalized from polling due task
// executions to evicting idle session graphs (see DESIGN.md).
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/codeready-toolchain/conductor/pkg/groupchat"
	"github.com/codeready-toolchain/conductor/pkg/human"
	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/planner"
	"github.com/codeready-toolchain/conductor/pkg/roster"
	"github.com/codeready-toolchain/conductor/pkg/specialist"
	"github.com/codeready-toolchain/conductor/pkg/store"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// Session is the per-sessionId component graph (§4.8). All state that
// outlives the process lives in the Store; losing a Session from memory
// never loses data, only the in-memory instance graph.
type Session struct {
	ID        string
	UserID    string
	Planner   *planner.Planner
	GroupChat *groupchat.Manager
	Human     *human.Agent
	Roster    *roster.Roster

	ctx        context.Context
	cancel     context.CancelFunc
	lastActive time.Time
}

// Context returns the cancellation-scoped context for calls issued on
// behalf of this session (§5 "every suspending call accepts a cancellation
// token rooted at the session").
func (s *Session) Context() context.Context { return s.ctx }

// Runtime implements the Session Runtime (C9).
type Runtime struct {
	store          *store.Store
	llm            *llmgateway.Gateway
	catalogs       map[models.AgentName]*tools.Registry
	systemMessages map[string]string
	maxToolIters   int
	idleTimeout    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	cron *cron.Cron
}

// New constructs a Runtime and starts its eviction sweep, running every
// sweepInterval and evicting any session idle for longer than idleTimeout.
func New(
	st *store.Store,
	llm *llmgateway.Gateway,
	catalogs map[models.AgentName]*tools.Registry,
	systemMessages map[string]string,
	maxToolIters int,
	sweepInterval, idleTimeout time.Duration,
) (*Runtime, error) {
	if st == nil || llm == nil {
		panic("runtime.New: store and llm must not be nil")
	}

	r := &Runtime{
		store:          st,
		llm:            llm,
		catalogs:       catalogs,
		systemMessages: systemMessages,
		maxToolIters:   maxToolIters,
		idleTimeout:    idleTimeout,
		sessions:       make(map[string]*Session),
		cron:           cron.New(),
	}

	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", sweepInterval), r.sweep); err != nil {
		return nil, fmt.Errorf("runtime: schedule eviction sweep: %w", err)
	}
	r.cron.Start()
	return r, nil
}

// Stop halts the eviction sweep and cancels every live session.
func (r *Runtime) Stop() {
	r.cron.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		sess.cancel()
		delete(r.sessions, id)
	}
}

// GetOrCreate returns the Session for sessionId, building its component
// graph on first use (§4.8 "lookup is lazy").
func (r *Runtime) GetOrCreate(sessionID, userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[sessionID]; ok {
		sess.lastActive = time.Now()
		return sess
	}

	sess := r.build(sessionID, userID)
	r.sessions[sessionID] = sess
	return sess
}

func (r *Runtime) build(sessionID, userID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	specialists := make(map[models.AgentName]*specialist.Base, len(roster.Names))
	for _, name := range roster.Names {
		reg := r.catalogs[name]
		if reg == nil {
			reg = tools.NewRegistry(nil)
		}
		specialists[name] = specialist.New(name, r.systemMessages[string(name)], reg, r.llm, r.store, r.maxToolIters)
	}

	rost, err := roster.New(specialists)
	if err != nil {
		// Every roster.Names entry is populated above with at worst an
		// empty registry, so this can only happen from a wiring bug.
		panic(fmt.Sprintf("runtime: build roster for session %s: %v", sessionID, err))
	}

	pl := planner.New(r.llm, r.store, rost)
	gcm := groupchat.New(r.store, pl, rost)
	ha := human.New(r.store, gcm)

	return &Session{
		ID:         sessionID,
		UserID:     userID,
		Planner:    pl,
		GroupChat:  gcm,
		Human:      ha,
		Roster:     rost,
		ctx:        ctx,
		cancel:     cancel,
		lastActive: time.Now(),
	}
}

// Evict removes a session's in-memory graph immediately, cancelling any
// in-flight work rooted at it. The Store is untouched.
func (r *Runtime) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[sessionID]; ok {
		sess.cancel()
		delete(r.sessions, sessionID)
	}
}

// sweep evicts every session idle for longer than idleTimeout (§4.8
// "Eviction is permitted on inactivity").
func (r *Runtime) sweep() {
	cutoff := time.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		if sess.lastActive.Before(cutoff) {
			sess.cancel()
			delete(r.sessions, id)
			slog.Debug("runtime: evicted idle session", "session_id", id)
		}
	}
}
