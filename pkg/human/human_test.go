package human

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

type fakeStore struct {
	steps    map[string]models.Step
	messages []models.AgentMessage
}

func newFakeStore(steps ...models.Step) *fakeStore {
	s := &fakeStore{steps: make(map[string]models.Step)}
	for _, st := range steps {
		s.steps[st.ID] = st
	}
	return s
}

func (s *fakeStore) GetStep(ctx context.Context, id, sessionID string) (models.Step, error) {
	st, ok := s.steps[id]
	if !ok {
		return models.Step{}, assert.AnError
	}
	return st, nil
}

func (s *fakeStore) UpdateStep(ctx context.Context, step models.Step) (models.Step, error) {
	s.steps[step.ID] = step
	return step, nil
}

func (s *fakeStore) AddAgentMessage(ctx context.Context, msg models.AgentMessage) (models.AgentMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

type fakeNotifier struct {
	calls []struct {
		sessionID, planID, stepID string
		approved                  bool
		feedback                  string
	}
}

func (n *fakeNotifier) ApprovalReceived(ctx context.Context, sessionID, planID, stepID string, approved bool, humanFeedback string) {
	n.calls = append(n.calls, struct {
		sessionID, planID, stepID string
		approved                  bool
		feedback                  string
	}{sessionID, planID, stepID, approved, humanFeedback})
}

func TestHandleStepFeedback_NonHumanStep_RecordsFeedbackAndNotifies(t *testing.T) {
	step := models.Step{ID: "step-1", SessionID: "sess-1", Agent: models.AgentHR, Status: models.StepPlanned}
	st := newFakeStore(step)
	notifier := &fakeNotifier{}
	agent := New(st, notifier)

	err := agent.HandleStepFeedback(context.Background(), Feedback{
		SessionID: "sess-1", StepID: "step-1", PlanID: "plan-1", Approved: true, HumanFeedback: "looks good",
	})
	require.NoError(t, err)

	updated := st.steps["step-1"]
	assert.Equal(t, "looks good", updated.HumanFeedback)
	// A non-Human step's approval/status transition is the Group Chat
	// Manager's job (§4.6 "execution precedes completion"), not the Human
	// Agent's — so it must still be left exactly as the Planner created it.
	assert.Equal(t, models.StepPlanned, updated.Status)

	require.Len(t, notifier.calls, 1)
	assert.True(t, notifier.calls[0].approved)

	require.Len(t, st.messages, 1)
	assert.Equal(t, "HumanAgent", st.messages[0].Source)
}

func TestHandleStepFeedback_HumanStep_ApprovedCompletesDirectly(t *testing.T) {
	step := models.Step{ID: "step-1", SessionID: "sess-1", Agent: models.AgentHumanReserved, Status: models.StepPlanned}
	st := newFakeStore(step)
	agent := New(st, &fakeNotifier{})

	err := agent.HandleStepFeedback(context.Background(), Feedback{
		SessionID: "sess-1", StepID: "step-1", PlanID: "plan-1", Approved: true, HumanFeedback: "here are the details",
	})
	require.NoError(t, err)

	updated := st.steps["step-1"]
	assert.Equal(t, models.StepCompleted, updated.Status)
	assert.Equal(t, models.ApprovalAccepted, updated.HumanApprovalStatus)
	assert.Equal(t, "here are the details", updated.AgentReply)
}

func TestHandleStepFeedback_HumanStep_RejectedTransitionsToRejected(t *testing.T) {
	step := models.Step{ID: "step-1", SessionID: "sess-1", Agent: models.AgentHumanReserved, Status: models.StepPlanned}
	st := newFakeStore(step)
	agent := New(st, &fakeNotifier{})

	err := agent.HandleStepFeedback(context.Background(), Feedback{
		SessionID: "sess-1", StepID: "step-1", PlanID: "plan-1", Approved: false,
	})
	require.NoError(t, err)

	updated := st.steps["step-1"]
	assert.Equal(t, models.StepRejected, updated.Status)
	assert.Equal(t, models.ApprovalRejected, updated.HumanApprovalStatus)
}

func TestHandleStepFeedback_UnknownStep_SilentlyIgnored(t *testing.T) {
	st := newFakeStore()
	agent := New(st, &fakeNotifier{})

	err := agent.HandleStepFeedback(context.Background(), Feedback{SessionID: "sess-1", StepID: "does-not-exist"})
	assert.NoError(t, err)
}

func TestHandleStepFeedback_Idempotent_SecondCallOnTerminalStepIsNoop(t *testing.T) {
	step := models.Step{ID: "step-1", SessionID: "sess-1", Agent: models.AgentHumanReserved, Status: models.StepPlanned}
	st := newFakeStore(step)
	notifier := &fakeNotifier{}
	agent := New(st, notifier)

	fb := Feedback{SessionID: "sess-1", StepID: "step-1", PlanID: "plan-1", Approved: true, HumanFeedback: "ok"}
	require.NoError(t, agent.HandleStepFeedback(context.Background(), fb))
	require.Len(t, st.messages, 1)
	require.Len(t, notifier.calls, 1)

	// §8 P10: replaying the same feedback twice leaves the Step in the same
	// terminal state and does not re-append a message or re-fire the notifier.
	require.NoError(t, agent.HandleStepFeedback(context.Background(), fb))
	assert.Len(t, st.messages, 1)
	assert.Len(t, notifier.calls, 1)
	assert.Equal(t, models.StepCompleted, st.steps["step-1"].Status)
}

func TestHandleStepFeedback_UpdatedActionIsPersisted(t *testing.T) {
	step := models.Step{ID: "step-1", SessionID: "sess-1", Agent: models.AgentHR, Status: models.StepPlanned}
	st := newFakeStore(step)
	agent := New(st, &fakeNotifier{})

	err := agent.HandleStepFeedback(context.Background(), Feedback{
		SessionID: "sess-1", StepID: "step-1", PlanID: "plan-1", Approved: true,
		UpdatedAction: "onboard_employee for Jessica Smith, start 2025-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "onboard_employee for Jessica Smith, start 2025-06-01", st.steps["step-1"].UpdatedAction)
}
