package usecase

import (
	"math"
	"sort"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

const DefaultAlpha = 0.7

// FuseScores re-ranks vectorHits by alpha*vector + (1-alpha)*lexical.
// Vector hits define the candidate set: ids found only lexically are never
// returned, whatever alpha is. topk <= 0 disables truncation.
func FuseScores(vectorHits []domain.VectorHit, lexicalHits []domain.LexicalHit, alpha float64, topk int) []domain.Hit {
	alpha = ClampAlpha(alpha)

	lexical := make(map[string]float64, len(lexicalHits))
	for _, h := range lexicalHits {
		if prev, ok := lexical[h.Doc.ID]; ok && prev >= h.Score {
			continue
		}
		lexical[h.Doc.ID] = h.Score
	}

	out := make([]domain.Hit, 0, len(vectorHits))
	for _, vh := range vectorHits {
		id := vh.ExternalID()
		lex := lexical[id]
		out = append(out, domain.Hit{
			ID:            id,
			VectorScore:   vh.Score,
			LexicalScore:  lex,
			CombinedScore: alpha*vh.Score + (1-alpha)*lex,
			Payload:       vh.Payload,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	return trimHits(out, topk)
}

// ClampAlpha bounds alpha to [0,1]; NaN falls back to DefaultAlpha.
func ClampAlpha(alpha float64) float64 {
	switch {
	case math.IsNaN(alpha):
		return DefaultAlpha
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	default:
		return alpha
	}
}

func trimHits(hits []domain.Hit, limit int) []domain.Hit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}
