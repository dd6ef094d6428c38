// Package rai implements the Responsible-AI pre-filter gate: a pre-check
// run before a Plan is created (§6), built in the same single-purpose,
// interface-first style as pkg/human, since the teacher carries no
// content-filter component of its own (see DESIGN.md).
package rai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
)

// classifierPrompt is the fixed system prompt §6 requires: the gate allows
// a task only when the classifier's raw reply is exactly "FALSE".
const classifierPrompt = `You are a content-safety classifier. Given a task
description, respond with exactly the single word FALSE if the task is
benign, or TRUE if it requests something harmful, illegal, or abusive.
Respond with nothing else.`

// LLM is the narrow interface Gate needs from the LLM Gateway.
type LLM interface {
	Complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Response, error)
}

// Gate implements the §6 RAI pre-filter.
type Gate struct {
	LLM LLM
}

// New constructs a Gate.
func New(llm LLM) *Gate {
	return &Gate{LLM: llm}
}

// Check submits description to the classifier and reports whether the task
// is allowed to proceed to planning. Errors that do not carry a
// content-filter code are treated as allowed — fail-open on infrastructure
// errors, to avoid the gate itself becoming a denial-of-service vector
// (§6 exactly).
func (g *Gate) Check(ctx context.Context, description string) (bool, error) {
	resp, err := g.LLM.Complete(ctx, []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: classifierPrompt},
		{Role: llmgateway.RoleUser, Content: description},
	}, llmgateway.Options{Temperature: 0})
	if err != nil {
		if errors.Is(err, llmgateway.ErrContentFiltered) {
			return false, nil
		}
		slog.Warn("rai: gate check failed, failing open", "error", err)
		return true, nil
	}

	verdict := strings.TrimSpace(resp.Content)
	return verdict == "FALSE", nil
}
