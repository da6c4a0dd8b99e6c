package models

import (
	"time"

	"github.com/google/uuid"
)

// Corpus identifies one of the embedded text collections behind the match
// functions.
type Corpus string

const (
	CorpusDocuments  Corpus = "documents"
	CorpusThirdParty Corpus = "thirdparty"
	CorpusProposals  Corpus = "thirdpartyproposals"
)

func (c Corpus) Valid() bool {
	switch c {
	case CorpusDocuments, CorpusThirdParty, CorpusProposals:
		return true
	}
	return false
}

// CorpusDocument is one row of a corpus table. ContentPlain is only stored
// for the documents corpus.
type CorpusDocument struct {
	ID           uuid.UUID      `db:"id"`
	Corpus       Corpus         `db:"-"`
	Content      string         `db:"content"`
	ContentPlain string         `db:"content_plain"`
	Metadata     map[string]any `db:"metadata"`
	Embedding    []float32      `db:"embedding"`
	CreatedAt    time.Time      `db:"created_at"`
}
