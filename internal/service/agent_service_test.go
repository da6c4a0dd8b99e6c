package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pricing-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func userTurn(text string) []models.Message {
	return []models.Message{{Role: models.RoleUser, Content: text}}
}

func TestAgent_AnswersWithoutTools(t *testing.T) {
	f := newToolsetFixture(t)
	model := &scriptedModel{tools: true, responses: []*ChatResponse{{Content: "  Olá!  "}}}
	agent := NewAgentService(model, f.toolset, nil, "instruções", 5, zaptest.NewLogger(t))

	reply, err := agent.Run(context.Background(), userTurn("oi"))
	require.NoError(t, err)

	assert.Equal(t, "Olá!", reply)
	require.Len(t, model.requests, 1)
	assert.Equal(t, "instruções", model.requests[0].System)
	assert.Len(t, model.requests[0].Tools, 5)
}

func TestAgent_ToolLoop(t *testing.T) {
	f := newToolsetFixture(t)
	model := &scriptedModel{tools: true, responses: []*ChatResponse{
		{ToolCalls: []ToolCall{
			{ID: "call_1", Name: ToolRunSQL, Arguments: `{"query":"SELECT 1"}`},
			{ID: "call_2", Name: "nao_existe", Arguments: `{}`},
		}},
		{Content: "Resposta final"},
	}}
	agent := NewAgentService(model, f.toolset, nil, "sys", 5, zaptest.NewLogger(t))

	reply, err := agent.Run(context.Background(), userTurn("quanto vendemos?"))
	require.NoError(t, err)
	assert.Equal(t, "Resposta final", reply)

	require.Len(t, model.requests, 2)
	msgs := model.requests[1].Messages
	require.Len(t, msgs, 4)

	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].ToolCalls, 2)

	assert.Equal(t, ChatRoleTool, msgs[2].Role)
	assert.Equal(t, "call_1", msgs[2].ToolCallID)
	assert.JSONEq(t, `{"query":"SELECT 1","results":[{"n":1}]}`, msgs[2].Content)

	assert.Equal(t, "call_2", msgs[3].ToolCallID)
	var rejected map[string]string
	require.NoError(t, json.Unmarshal([]byte(msgs[3].Content), &rejected))
	assert.Contains(t, rejected["error"], "unknown tool")
}

func TestAgent_RoundLimitForcesFinalAnswer(t *testing.T) {
	f := newToolsetFixture(t)
	loop := &ChatResponse{ToolCalls: []ToolCall{{ID: "c", Name: ToolQueryDocuments, Arguments: `{"query":"x"}`}}}
	model := &scriptedModel{tools: true, responses: []*ChatResponse{loop, loop, {Content: "basta"}}}
	agent := NewAgentService(model, f.toolset, nil, "sys", 2, zaptest.NewLogger(t))

	reply, err := agent.Run(context.Background(), userTurn("x"))
	require.NoError(t, err)

	assert.Equal(t, "basta", reply)
	require.Len(t, model.requests, 3)
	assert.NotEmpty(t, model.requests[1].Tools)
	assert.Empty(t, model.requests[2].Tools)
}

func TestAgent_ModelError(t *testing.T) {
	f := newToolsetFixture(t)
	model := &scriptedModel{tools: true, err: errors.New("rate limited")}
	agent := NewAgentService(model, f.toolset, nil, "sys", 0, zaptest.NewLogger(t))

	_, err := agent.Run(context.Background(), userTurn("x"))
	assert.EqualError(t, err, "rate limited")
}

func TestAgent_NoModel(t *testing.T) {
	agent := NewAgentService(nil, nil, nil, "", 0, zaptest.NewLogger(t))

	_, err := agent.Run(context.Background(), userTurn("x"))
	assert.ErrorIs(t, err, ErrNoChatModel)
}

func TestAgent_ContextStuffingWithoutToolSupport(t *testing.T) {
	logger := zaptest.NewLogger(t)
	searcher := &fakeSearcher{rows: map[string][]models.Row{
		"match_documents": {{"content_plain": "AGV2508 vendeu 300 unidades"}},
	}}
	retrieval := NewRetrievalService(&fakeEmbedder{vector: []float32{1}}, searcher, testRetrievalConfig(), logger)
	model := &scriptedModel{responses: []*ChatResponse{{Content: "Com base nos dados..."}}}
	agent := NewAgentService(model, nil, NewRAGService(retrieval, logger), "sys", 5, logger)

	history := []models.Message{
		{Role: models.RoleUser, Content: "primeira"},
		{Role: models.RoleAssistant, Content: "resposta"},
		{Role: models.RoleUser, Content: "vendas AGV2508"},
	}
	reply, err := agent.Run(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Com base nos dados...", reply)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Nil(t, req.Tools)
	assert.True(t, strings.HasPrefix(req.System, "sys\n\nInformações relevantes da base:"))
	assert.Contains(t, req.System, "AGV2508 vendeu 300 unidades")
	assert.Len(t, req.Messages, 3)
	assert.Len(t, searcher.calls, 3)
}

func TestExtractReply(t *testing.T) {
	reply, err := extractReply(&ChatResponse{Content: "texto"})
	require.NoError(t, err)
	assert.Equal(t, "texto", reply)

	reply, err = extractReply(&ChatResponse{Raw: map[string]any{"answer": 42}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":42}`, reply)

	_, err = extractReply(&ChatResponse{Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyReply)
}
