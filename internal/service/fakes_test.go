package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pricing-agent/internal/models"
	"pricing-agent/pkg/config"

	"github.com/Masterminds/squirrel"
)

// ==== Test Helper Functions ====

func testRetrievalConfig() *config.RetrievalConfig {
	return &config.RetrievalConfig{
		MatchThreshold:     0.4,
		DefaultLimit:       150,
		DefaultMatchCount:  100,
		ComparisonLimit:    200,
		DocumentsFunction:  "match_documents",
		ThirdPartyFunction: "match_thirdparty",
		ProposalsFunction:  "match_proposals",
		SafeViewProcedure:  "exec_safe_view",
		DocsViewProcedure:  "exec_documents_view",
		InternalView:       "vw_vendas_internas",
		InvoiceView:        "vw_notas_concorrentes",
		ProposalView:       "vw_propostas_concorrentes",
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type matchCall struct {
	function  string
	count     int
	threshold float64
}

type fakeSearcher struct {
	rows  map[string][]models.Row
	err   error
	calls []matchCall
}

func (f *fakeSearcher) Match(_ context.Context, function string, _ []float32, count int, threshold float64) ([]models.Row, error) {
	f.calls = append(f.calls, matchCall{function: function, count: count, threshold: threshold})
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[function], nil
}

type executeCall struct {
	procedure string
	query     string
}

// fakeQuerier answers Select by view name, taken from the FROM clause.
type fakeQuerier struct {
	mu        sync.Mutex
	byView    map[string][]models.Row
	failView  string
	execRows  []models.Row
	execErr   error
	selects   []string
	selectArg [][]interface{}
	executes  []executeCall
}

func (f *fakeQuerier) Execute(_ context.Context, procedure, query string) ([]models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executes = append(f.executes, executeCall{procedure: procedure, query: query})
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.execRows, nil
}

func (f *fakeQuerier) Select(_ context.Context, q squirrel.SelectBuilder) ([]models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sql, args, err := q.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}
	f.selects = append(f.selects, sql)
	f.selectArg = append(f.selectArg, args)

	if f.failView != "" && strings.Contains(sql, `"`+f.failView+`"`) {
		return nil, errors.New("relation does not exist")
	}
	for view, rows := range f.byView {
		if strings.Contains(sql, `"`+view+`"`) {
			return rows, nil
		}
	}
	return nil, nil
}

// scriptedModel replays responses in order and records every request.
type scriptedModel struct {
	tools     bool
	responses []*ChatResponse
	err       error
	requests  []ChatRequest
}

func (m *scriptedModel) SupportsTools() bool { return m.tools }

func (m *scriptedModel) Complete(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	snapshot := *req
	snapshot.Messages = append([]ChatMessage(nil), req.Messages...)
	m.requests = append(m.requests, snapshot)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &ChatResponse{Content: "fim"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

type fakeResponder struct {
	reply   string
	err     error
	history [][]models.Message
}

func (f *fakeResponder) Run(_ context.Context, history []models.Message) (string, error) {
	f.history = append(f.history, append([]models.Message(nil), history...))
	return f.reply, f.err
}
