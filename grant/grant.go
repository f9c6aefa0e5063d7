// Package grant defines the domain model for grant announcements: the
// persisted record, its chunk embeddings, and the time-derived status.
package grant

import (
	"fmt"
	"time"
)

// Grant is a single grant announcement extracted from an uploaded
// document. Records are created once by the ingestion pipeline and never
// mutated in place; Status is always recomputed at read time, never
// trusted from storage.
type Grant struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	SupportAmount     string   `json:"supportAmount"`
	Period            string   `json:"period"`
	Deadline          string   `json:"deadline"`
	Description       string   `json:"description"`
	Region            string   `json:"region"`
	Industry          string   `json:"industry"`
	GrantType         string   `json:"grantType"`
	Eligibility       string   `json:"eligibility"`
	RequiredDocuments []string `json:"requiredDocuments"`
	RawContent        string   `json:"rawContent"`
	Status            Status   `json:"status"`
}

// ChunkEmbedding pairs one chunk of a grant's raw content with its
// embedding vector. Index is dense and 0-based; the full ordered sequence
// for a grant reconstructs the chunked document.
type ChunkEmbedding struct {
	Index     int
	Content   string
	Embedding []float32
}

// NewID returns a fresh grant id. Ids are timestamp-based so each upload
// produces a distinct record; there is no de-duplication.
func NewID(now time.Time) string {
	return fmt.Sprintf("GRANT-%d", now.UnixMilli())
}
