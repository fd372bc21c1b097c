package domain

// Metadata keys written on indexed document chunks.
const (
	MetaKind       = "kind"
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
	MetaFilename   = "filename"
	MetaCategory   = "category"
	MetaProvider   = "provider"

	KindChunk = "chunk"
)

type VectorRecord struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type ScoredRecord struct {
	Record VectorRecord `json:"record"`
	Score  float64      `json:"score"`
}

// MatchesFilters reports whether every filter key is present with an equal value.
func (r VectorRecord) MatchesFilters(filters map[string]string) bool {
	for k, v := range filters {
		if r.Metadata[k] != v {
			return false
		}
	}
	return true
}
