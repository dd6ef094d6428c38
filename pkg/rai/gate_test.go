package rai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
)

type stubLLM struct {
	resp *llmgateway.Response
	err  error
}

func (s stubLLM) Complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Response, error) {
	return s.resp, s.err
}

func TestCheck_AllowsExactFALSE(t *testing.T) {
	g := New(stubLLM{resp: &llmgateway.Response{Content: "FALSE"}})

	allowed, err := g.Check(context.Background(), "Onboard a new employee, Jessica Smith.")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheck_AllowsFALSEWithWhitespace(t *testing.T) {
	g := New(stubLLM{resp: &llmgateway.Response{Content: "  FALSE\n"}})

	allowed, err := g.Check(context.Background(), "benign task")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheck_BlocksTRUE(t *testing.T) {
	g := New(stubLLM{resp: &llmgateway.Response{Content: "TRUE"}})

	allowed, err := g.Check(context.Background(), "something harmful")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheck_BlocksAnyNonExactFALSEVerdict(t *testing.T) {
	g := New(stubLLM{resp: &llmgateway.Response{Content: "FALSE, but concerning"}})

	allowed, err := g.Check(context.Background(), "edge case phrasing")
	require.NoError(t, err)
	assert.False(t, allowed, "only an exact FALSE verdict passes the gate")
}

func TestCheck_ContentFilteredErrorBlocks(t *testing.T) {
	g := New(stubLLM{err: llmgateway.ErrContentFiltered})

	allowed, err := g.Check(context.Background(), "blocked upstream")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheck_InfrastructureErrorFailsOpen(t *testing.T) {
	g := New(stubLLM{err: errors.New("connection reset")})

	allowed, err := g.Check(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, allowed, "a non-content-filter error must fail open, not deny service")
}

func TestCheck_WrappedContentFilteredErrorStillBlocks(t *testing.T) {
	wrapped := errors.Join(llmgateway.ErrContentFiltered, errors.New("upstream detail"))
	g := New(stubLLM{err: wrapped})

	allowed, err := g.Check(context.Background(), "blocked upstream")
	require.NoError(t, err)
	assert.False(t, allowed)
}
