package domain

// Payload is the structured vector-store payload. Keys outside the known
// fields are carried opaquely in Meta.
type Payload struct {
	ID      string         `json:"id"`
	DocID   string         `json:"doc_id,omitempty"`
	ChunkID int            `json:"chunk_id"`
	Text    string         `json:"text"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload Payload
}

type VectorHit struct {
	PointID string  `json:"point_id"`
	Score   float64 `json:"score"`
	Payload Payload `json:"payload"`
}

// ExternalID prefers the application-level payload id over the store point id.
func (h VectorHit) ExternalID() string {
	if h.Payload.ID != "" {
		return h.Payload.ID
	}
	return h.PointID
}

type LexicalDoc struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type LexicalHit struct {
	Score float64    `json:"score"`
	Doc   LexicalDoc `json:"doc"`
}

type Hit struct {
	ID            string  `json:"id"`
	VectorScore   float64 `json:"vector_score"`
	LexicalScore  float64 `json:"lexical_score"`
	CombinedScore float64 `json:"combined_score"`
	Payload       Payload `json:"payload"`
}

type Embedding struct {
	Vectors  [][]float32 `json:"vectors"`
	Dim      int         `json:"dim"`
	Provider string      `json:"provider"`
}

type RetrievalMode string

const (
	ModeHybrid   RetrievalMode = "hybrid"
	ModeSemantic RetrievalMode = "semantic"
)

type SearchResult struct {
	Collection string        `json:"collection"`
	Query      string        `json:"query"`
	Mode       RetrievalMode `json:"mode"`
	Alpha      float64       `json:"alpha"`
	Hits       []Hit         `json:"hits"`
}
