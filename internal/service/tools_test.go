package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"pricing-agent/internal/models"
	"pricing-agent/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type toolsetFixture struct {
	toolset  *Toolset
	searcher *fakeSearcher
	querier  *fakeQuerier
}

func newToolsetFixture(t *testing.T) *toolsetFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := testRetrievalConfig()

	searcher := &fakeSearcher{rows: map[string][]models.Row{
		"match_thirdparty": {{"content": "nota da concorrência"}},
	}}
	querier := &fakeQuerier{
		byView:   map[string][]models.Row{"vw_vendas_internas": {{"produto": "AGV2508"}}},
		execRows: []models.Row{{"n": 1.0}},
	}

	retrieval := NewRetrievalService(&fakeEmbedder{vector: []float32{1}}, searcher, cfg, logger)
	return &toolsetFixture{
		toolset:  NewToolset(retrieval, NewSQLService(querier, cfg, logger), NewComparisonService(querier, cfg, logger), logger),
		searcher: searcher,
		querier:  querier,
	}
}

func TestToolset_Definitions(t *testing.T) {
	f := newToolsetFixture(t)

	var names []string
	for _, def := range f.toolset.Definitions() {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, "object", def.Parameters["type"])
		assert.Equal(t, []string{"query"}, def.Parameters["required"])
	}

	assert.Equal(t, []string{
		ToolQueryDocuments,
		ToolQueryThirdPartyDocuments,
		ToolQueryThirdPartyProposals,
		ToolQueryComparisonData,
		ToolRunSQL,
	}, names)
}

func TestToolset_CallMatch(t *testing.T) {
	f := newToolsetFixture(t)

	payload, err := f.toolset.Call(context.Background(), ToolQueryThirdPartyDocuments, `{"query":"Ambev","match_count":5}`)
	require.NoError(t, err)

	result, ok := payload.(*models.MatchResult)
	require.True(t, ok)
	assert.Equal(t, []string{"nota da concorrência"}, result.Matches)
	assert.Equal(t, matchCall{function: "match_thirdparty", count: 5, threshold: 0.1}, f.searcher.calls[0])
}

func TestToolset_CallComparison(t *testing.T) {
	f := newToolsetFixture(t)

	payload, err := f.toolset.Call(context.Background(), ToolQueryComparisonData, `{"query":"AGV"}`)
	require.NoError(t, err)

	dataset, ok := payload.(*models.ComparisonDataset)
	require.True(t, ok)
	assert.Equal(t, 1, dataset.Count)
	assert.Equal(t, 200, dataset.Limit)
}

func TestToolset_CallComparisonFailureIsPayload(t *testing.T) {
	f := newToolsetFixture(t)
	f.querier.failView = "vw_vendas_internas"

	payload, err := f.toolset.Call(context.Background(), ToolQueryComparisonData, `{"query":"AGV"}`)
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "interno", body["origem"])
	assert.Equal(t, "AGV", body["query"])
	assert.NotEmpty(t, body["error"])
}

func TestToolset_CallRunSQL(t *testing.T) {
	f := newToolsetFixture(t)

	payload, err := f.toolset.Call(context.Background(), ToolRunSQL, `{"query":"SELECT 1","view":"documents"}`)
	require.NoError(t, err)

	result, ok := payload.(*models.SQLResult)
	require.True(t, ok)
	assert.Len(t, result.Results, 1)
	assert.Equal(t, "exec_documents_view", f.querier.executes[0].procedure)
}

func TestToolset_CallErrors(t *testing.T) {
	f := newToolsetFixture(t)

	_, err := f.toolset.Call(context.Background(), "drop_tables", `{}`)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = f.toolset.Call(context.Background(), ToolRunSQL, `{"query":`)
	assert.ErrorIs(t, err, ErrInvalidToolArguments)

	_, err = f.toolset.Call(context.Background(), ToolQueryDocuments, `{"limit":"dez"}`)
	assert.ErrorIs(t, err, ErrInvalidToolArguments)
}

func TestToolset_UnknownToolsShareMetricSeries(t *testing.T) {
	f := newToolsetFixture(t)

	_, err := f.toolset.Call(context.Background(), "bogus_seed", `{}`)
	require.ErrorIs(t, err, ErrUnknownTool)
	calls := testutil.CollectAndCount(metrics.ToolCalls)
	durations := testutil.CollectAndCount(metrics.ToolDuration)
	unknown := metrics.ToolCalls.WithLabelValues(metrics.UnknownTool, metrics.OutcomeError)
	before := testutil.ToFloat64(unknown)

	for i := 0; i < 50; i++ {
		_, err := f.toolset.Call(context.Background(), fmt.Sprintf("bogus_%d", i), `{}`)
		require.ErrorIs(t, err, ErrUnknownTool)
	}

	assert.Equal(t, calls, testutil.CollectAndCount(metrics.ToolCalls))
	assert.Equal(t, durations, testutil.CollectAndCount(metrics.ToolDuration))
	assert.Equal(t, before+50, testutil.ToFloat64(unknown))
}

func TestToolset_EmptyArgumentsDecodeAsObject(t *testing.T) {
	f := newToolsetFixture(t)

	payload, err := f.toolset.Call(context.Background(), ToolQueryDocuments, "")
	require.NoError(t, err)
	assert.Equal(t, "", payload.(*models.MatchResult).Query)
}
