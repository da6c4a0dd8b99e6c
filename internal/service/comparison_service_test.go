package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pricing-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestUnifyData_Empty(t *testing.T) {
	records := UnifyData(nil, nil, nil)
	require.NotNil(t, records)
	assert.Empty(t, records)

	data, err := json.Marshal(records)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestUnifyData_OrderAndShape(t *testing.T) {
	internal := []models.Row{{
		"produto":        "AGV2508",
		"cliente":        "Ambev",
		"data_emissao":   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"preco_unitario": 12.5,
		"receita":        1250.0,
		"quantidade":     int64(100),
		"consultor":      "Ana",
		"regiao":         "Sul",
	}}
	invoices := []models.Row{{
		"produto":        "AGV2508",
		"cliente":        "Ambev",
		"data_emissao":   "2024-04-01",
		"preco_unitario": 11.0,
		"valor_total":    550.0,
		"quantidade":     int64(50),
	}}
	proposals := []models.Row{{
		"produto":        "AGV2508",
		"cliente":        "Ambev",
		"data_proposta":  "2024-05-10",
		"preco_unitario": "R$ 10,90",
		"valor_total":    "R$ 1.090,00",
	}}

	records := UnifyData(internal, invoices, proposals)
	require.Len(t, records, 3)

	assert.Equal(t, models.OriginInternal, records[0].Origem)
	assert.Equal(t, models.OriginInvoice, records[1].Origem)
	assert.Equal(t, models.OriginProposal, records[2].Origem)

	assert.Equal(t, "2024-03-15", records[0].Data)
	assert.Equal(t, 1250.0, *records[0].Receita)
	assert.Equal(t, 100.0, *records[0].Quantidade)
	assert.Equal(t, "Ana", *records[0].Consultor)

	assert.Equal(t, 550.0, *records[1].Receita)
	assert.Nil(t, records[1].Consultor)
	assert.Nil(t, records[1].Regiao)

	assert.InDelta(t, 10.90, *records[2].PrecoUnitario, 1e-9)
	assert.InDelta(t, 1090.0, *records[2].Receita, 1e-9)
	assert.Nil(t, records[2].Quantidade)
	assert.Equal(t, "2024-05-10", records[2].Data)

	data, err := json.Marshal(records[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"origem": "concorrente_proposta",
		"produto": "AGV2508",
		"cliente": "Ambev",
		"data": "2024-05-10",
		"preco_unitario": 10.9,
		"receita": 1090,
		"quantidade": null,
		"consultor": null,
		"regiao": null
	}`, string(data))
}

func TestNormalize_MissingColumnsBecomeNull(t *testing.T) {
	records := NormalizeInternal([]models.Row{{"produto": "X"}})
	require.Len(t, records, 1)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"origem": "interno",
		"produto": "X",
		"cliente": null,
		"data": null,
		"preco_unitario": null,
		"receita": null,
		"quantidade": null,
		"consultor": null,
		"regiao": null
	}`, string(data))
}

func TestNormalizeProposal_UnparseablePrice(t *testing.T) {
	records := NormalizeProposal([]models.Row{{"preco_unitario": "sob consulta", "valor_total": nil}})
	require.Len(t, records, 1)
	assert.Nil(t, records[0].PrecoUnitario)
	assert.Nil(t, records[0].Receita)
}

func TestQueryComparisonData(t *testing.T) {
	querier := &fakeQuerier{byView: map[string][]models.Row{
		"vw_vendas_internas":        {{"produto": "AGV2508", "cliente": "Ambev", "preco_unitario": 12.5}},
		"vw_notas_concorrentes":     {{"produto": "AGV2508", "cliente": "Ambev", "valor_total": 40.0}},
		"vw_propostas_concorrentes": {{"produto": "AGV2508", "cliente": "Ambev", "preco_unitario": "R$ 9,99"}},
	}}
	svc := NewComparisonService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

	dataset, err := svc.QueryComparisonData(context.Background(), "Ambev", 0)
	require.NoError(t, err)

	assert.Equal(t, "Ambev", dataset.Query)
	assert.Equal(t, 200, dataset.Limit)
	assert.Equal(t, 3, dataset.Count)
	assert.Equal(t, models.OriginInternal, dataset.Records[0].Origem)
	assert.Equal(t, models.OriginProposal, dataset.Records[2].Origem)

	require.Len(t, querier.selects, 3)
	assert.Contains(t, querier.selects[0], `"vw_vendas_internas"`)
	assert.Contains(t, querier.selects[1], `"vw_notas_concorrentes"`)
	assert.Contains(t, querier.selects[2], `"vw_propostas_concorrentes"`)
	assert.Contains(t, querier.selects[0], "cliente ILIKE $1")
	assert.Contains(t, querier.selects[0], "LIMIT 200")
	assert.Equal(t, []interface{}{"%Ambev%", "%Ambev%"}, querier.selectArg[0])
}

func TestQueryComparisonData_CustomLimit(t *testing.T) {
	querier := &fakeQuerier{}
	svc := NewComparisonService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

	dataset, err := svc.QueryComparisonData(context.Background(), "Ambev", 25)
	require.NoError(t, err)

	assert.Equal(t, 25, dataset.Limit)
	assert.Zero(t, dataset.Count)
	assert.NotNil(t, dataset.Records)
	for _, sql := range querier.selects {
		assert.Contains(t, sql, "LIMIT 25")
	}
}

func TestQueryComparisonData_FailFast(t *testing.T) {
	querier := &fakeQuerier{failView: "vw_notas_concorrentes"}
	svc := NewComparisonService(querier, testRetrievalConfig(), zaptest.NewLogger(t))

	dataset, err := svc.QueryComparisonData(context.Background(), "Ambev", 10)
	require.Error(t, err)
	assert.Nil(t, dataset)

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, models.OriginInvoice, srcErr.Origin)
	assert.Equal(t, "vw_notas_concorrentes", srcErr.View)
	assert.ErrorIs(t, err, ErrRemoteCall)

	assert.Len(t, querier.selects, 2, "proposals must not be queried after a failure")
}

func TestQueryComparisonData_Unavailable(t *testing.T) {
	svc := NewComparisonService(nil, testRetrievalConfig(), zaptest.NewLogger(t))

	_, err := svc.QueryComparisonData(context.Background(), "Ambev", 0)
	require.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotContains(t, err.Error(), "similarity")
	assert.Contains(t, err.Error(), "database not configured")
}
