package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pricing-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunSQL_ForwardsQueryVerbatim(t *testing.T) {
	querier := &fakeQuerier{execRows: []models.Row{{"produto": "AGV2508", "total": 10.0}}}
	svc := NewSQLService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

	query := "SELECT produto, SUM(receita) AS total FROM vw_vendas_internas WHERE cliente ILIKE '%ambev%' GROUP BY produto"
	result := svc.RunSQL(context.Background(), query, "")

	require.NoError(t, result.Err)
	assert.Equal(t, query, result.Query)
	assert.Len(t, result.Results, 1)
	require.Len(t, querier.executes, 1)
	assert.Equal(t, executeCall{procedure: "exec_safe_view", query: query}, querier.executes[0])
}

func TestRunSQL_ViewSelection(t *testing.T) {
	tests := []struct {
		view      string
		procedure string
	}{
		{"", "exec_safe_view"},
		{ViewSafe, "exec_safe_view"},
		{ViewDocuments, "exec_documents_view"},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			querier := &fakeQuerier{}
			svc := NewSQLService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

			svc.RunSQL(context.Background(), "SELECT 1", tt.view)

			require.Len(t, querier.executes, 1)
			assert.Equal(t, tt.procedure, querier.executes[0].procedure)
		})
	}
}

func TestRunSQL_UnknownView(t *testing.T) {
	querier := &fakeQuerier{}
	svc := NewSQLService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

	result := svc.RunSQL(context.Background(), "SELECT 1", "admin")

	assert.ErrorIs(t, result.Err, ErrUnknownView)
	assert.Empty(t, querier.executes)
}

func TestRunSQL_Failure(t *testing.T) {
	querier := &fakeQuerier{execErr: errors.New("permission denied for table users")}
	svc := NewSQLService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

	result := svc.RunSQL(context.Background(), "SELECT * FROM users", "")

	assert.ErrorIs(t, result.Err, ErrRemoteCall)
	assert.Nil(t, result.Results)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "SELECT * FROM users", payload["query"])
	assert.Contains(t, payload["error"], "permission denied")
	assert.NotContains(t, payload, "results")
}

func TestRunSQL_Unavailable(t *testing.T) {
	svc := NewSQLService(nil, testRetrievalConfig(), zaptest.NewLogger(t))

	result := svc.RunSQL(context.Background(), "SELECT 1", "")
	require.ErrorIs(t, result.Err, ErrServiceUnavailable)
	assert.Equal(t, "remote data service unavailable: database not configured", result.Err.Error())
}

func TestRunSQL_EmptyResultSerializesAsArray(t *testing.T) {
	svc := NewSQLService(&fakeQuerier{}, testRetrievalConfig(), zaptest.NewLogger(t))

	data, err := json.Marshal(svc.RunSQL(context.Background(), "SELECT 1 WHERE false", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"query": "SELECT 1 WHERE false", "results": []}`, string(data))
}
