package models

const (
	DefaultMatchThreshold = 0.4
	ShortQueryThreshold   = 0.1
	DefaultLimit          = 150
	MaxMatchCount         = 100
)

// MatchQuery is the input of a similarity-search adapter. Limit is a row cap
// hint that is echoed back but never sent to the remote function.
type MatchQuery struct {
	Query      string   `json:"query"`
	Threshold  *float64 `json:"match_threshold,omitempty"`
	Limit      *int     `json:"limit,omitempty"`
	MatchCount *int     `json:"match_count,omitempty"`
}

type ResultKind string

const (
	ResultOK            ResultKind = "ok"
	ResultUnavailable   ResultKind = "unavailable"
	ResultRemoteFailure ResultKind = "remote_failure"
)

// MatchResult is the outcome of one adapter call. Matches is empty whenever
// Error is set.
type MatchResult struct {
	Function     string     `json:"function"`
	Query        string     `json:"query"`
	Limit        int        `json:"limit,omitempty"`
	MatchCount   int        `json:"match_count,omitempty"`
	Threshold    float64    `json:"match_threshold,omitempty"`
	Matches      []string   `json:"matches"`
	ResultFields []string   `json:"result_fields,omitempty"`
	Kind         ResultKind `json:"kind"`
	Error        string     `json:"error,omitempty"`
	Err          error      `json:"-"`
}

func (r *MatchResult) Failed() bool {
	return r.Kind != ResultOK
}

// Row is one record returned by a remote function or view.
type Row map[string]any
