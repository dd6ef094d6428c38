package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/conductor/pkg/groupchat"
	"github.com/codeready-toolchain/conductor/pkg/human"
	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/planner"
	"github.com/codeready-toolchain/conductor/pkg/rai"
	"github.com/codeready-toolchain/conductor/pkg/runtime"
	"github.com/codeready-toolchain/conductor/pkg/store"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// plansListCap is the §9 "most-recent ≤5" capacity cap for GET /plans when
// no session_id is given.
const plansListCap = 5

// messagesListCap is §6's GET /messages cap.
const messagesListCap = 100

// Server wires the Session Runtime, durable Store, RAI gate, and static
// tool catalog into gin handlers (§6, §13).
type Server struct {
	Runtime  *runtime.Runtime
	Store    *store.Store
	RAI      *rai.Gate // nil disables the gate (fail-open by omission)
	Catalogs map[models.AgentName]*tools.Registry
}

// NewRouter builds the gin engine with every §6 route registered.
func NewRouter(srv *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	authed := r.Group("/")
	authed.Use(requireUserPrincipal())

	authed.POST("/input_task", srv.inputTask)
	authed.POST("/human_feedback", srv.humanFeedback)
	authed.POST("/human_clarification_on_plan", srv.clarification)
	authed.POST("/approve_step_or_steps", srv.approveStepOrSteps)
	authed.GET("/plans", srv.listPlans)
	authed.GET("/steps/:plan_id", srv.listSteps)
	authed.GET("/agent_messages/:session_id", srv.listAgentMessages)
	authed.GET("/messages", srv.allMessages)
	authed.DELETE("/messages", srv.deleteAllMessages)
	authed.GET("/api/agent-tools", srv.agentTools)

	return r
}

func (s *Server) inputTask(c *gin.Context) {
	var req inputTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := userPrincipal(c)
	ctx := c.Request.Context()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if _, err := s.Store.GetSession(ctx, sessionID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := s.Store.AddSession(ctx, models.Session{ID: sessionID, UserID: userID, CurrentStatus: "active"}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	if s.RAI != nil {
		allowed, err := s.RAI.Check(ctx, req.Description)
		if err != nil {
			slog.Warn("api: rai gate check errored, proceeding fail-open", "error", err)
		} else if !allowed {
			c.JSON(http.StatusOK, gin.H{"status": "Plan not created"})
			return
		}
	}

	sess := s.Runtime.GetOrCreate(sessionID, userID)
	plan, err := sess.GroupChat.HandleInputTask(sess.Context(), sessionID, userID, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "Plan created",
		"session_id":  sessionID,
		"plan_id":     plan.ID,
		"description": req.Description,
	})
}

func (s *Server) humanFeedback(c *gin.Context) {
	var req humanFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := userPrincipal(c)
	sess := s.Runtime.GetOrCreate(req.SessionID, userID)

	err := sess.Human.HandleStepFeedback(sess.Context(), human.Feedback{
		SessionID:     req.SessionID,
		StepID:        req.StepID,
		PlanID:        req.PlanID,
		Approved:      req.Approved,
		HumanFeedback: req.HumanFeedback,
		UpdatedAction: req.UpdatedAction,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Feedback recorded", "session_id": req.SessionID, "step_id": req.StepID})
}

func (s *Server) clarification(c *gin.Context) {
	var req clarificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := userPrincipal(c)
	sess := s.Runtime.GetOrCreate(req.SessionID, userID)

	err := sess.Planner.HandlePlanClarification(sess.Context(), planner.ClarificationMsg{
		SessionID:          req.SessionID,
		PlanID:             req.PlanID,
		HumanClarification: req.HumanClarification,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Clarification recorded", "session_id": req.SessionID})
}

func (s *Server) approveStepOrSteps(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := userPrincipal(c)
	sess := s.Runtime.GetOrCreate(req.SessionID, userID)

	err := sess.GroupChat.HandleHumanApproval(sess.Context(), groupchat.Feedback{
		SessionID:     req.SessionID,
		PlanID:        req.PlanID,
		StepID:        req.StepID,
		Approved:      req.Approved,
		HumanFeedback: req.HumanFeedback,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Approval recorded"})
}

func (s *Server) listPlans(c *gin.Context) {
	ctx := c.Request.Context()
	userID := userPrincipal(c)
	sessionID := c.Query("session_id")

	var plans []models.Plan
	if sessionID != "" {
		plan, err := s.Store.GetPlanBySession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusOK, []models.PlanWithSteps{})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		plans = []models.Plan{plan}
	} else {
		list, err := s.Store.ListPlans(ctx, userID, plansListCap)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		plans = list
	}

	out := make([]models.PlanWithSteps, 0, len(plans))
	for _, plan := range plans {
		steps, err := s.Store.ListStepsByPlan(ctx, plan.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out = append(out, models.NewPlanWithSteps(plan, steps))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listSteps(c *gin.Context) {
	steps, err := s.Store.ListStepsByPlan(c.Request.Context(), c.Param("plan_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (s *Server) listAgentMessages(c *gin.Context) {
	msgs, err := s.Store.ListMessagesBySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *Server) allMessages(c *gin.Context) {
	msgs, err := s.Store.ListMessagesByUser(c.Request.Context(), userPrincipal(c), messagesListCap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *Server) deleteAllMessages(c *gin.Context) {
	if err := s.Store.DeleteAllForUser(c.Request.Context(), userPrincipal(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) agentTools(c *gin.Context) {
	out := []agentToolEntry{}
	for agent, reg := range s.Catalogs {
		for _, t := range reg.List() {
			out = append(out, agentToolEntry{
				Agent:       string(agent),
				Function:    t.Name,
				Description: t.Description,
				Arguments:   t.ParameterSchema,
			})
		}
	}
	c.JSON(http.StatusOK, out)
}
