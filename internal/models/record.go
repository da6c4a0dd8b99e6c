package models

import "encoding/json"

type Origin string

const (
	OriginInternal Origin = "interno"
	OriginInvoice  Origin = "concorrente_nf"
	OriginProposal Origin = "concorrente_proposta"
)

// UnifiedRecord is the common shape of internal sales, third-party invoices
// and third-party proposals. Every key is always serialized; fields a source
// cannot supply are null.
type UnifiedRecord struct {
	Origem        Origin   `json:"origem"`
	Produto       any      `json:"produto"`
	Cliente       any      `json:"cliente"`
	Data          any      `json:"data"`
	PrecoUnitario *float64 `json:"preco_unitario"`
	Receita       *float64 `json:"receita"`
	Quantidade    *float64 `json:"quantidade"`
	Consultor     *string  `json:"consultor"`
	Regiao        *string  `json:"regiao"`
}

type ComparisonDataset struct {
	Query   string          `json:"query"`
	Limit   int             `json:"limit"`
	Count   int             `json:"count"`
	Records []UnifiedRecord `json:"records"`
}

// SQLResult is the outcome of a run_sql call. It serializes as either
// {query, results} or {error, query}.
type SQLResult struct {
	Query   string
	Results []Row
	Error   string
	Err     error
}

func (r SQLResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
			Query string `json:"query"`
		}{r.Error, r.Query})
	}
	results := r.Results
	if results == nil {
		results = []Row{}
	}
	return json.Marshal(struct {
		Query   string `json:"query"`
		Results []Row  `json:"results"`
	}{r.Query, results})
}
