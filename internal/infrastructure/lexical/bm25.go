// Package lexical implements the in-process BM25 index kept per collection
// alongside the vector store.
package lexical

import (
	"math"
	"sort"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

// Index is an immutable ranking structure over a fixed document sequence.
type Index interface {
	Search(query string, topk int) []domain.LexicalHit
	Len() int
}

// Builder creates an Index from the full accumulated document sequence.
type Builder func(docs []domain.LexicalDoc) Index

type BM25Config struct {
	K1 float64
	B  float64
}

func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.5, B: 0.75}
}

// BM25Builder returns a Builder producing Okapi BM25 indexes.
func BM25Builder(cfg BM25Config) Builder {
	return func(docs []domain.LexicalDoc) Index {
		return BuildBM25(docs, cfg)
	}
}

type BM25 struct {
	cfg      BM25Config
	docs     []domain.LexicalDoc
	termFreq []map[string]int
	docLen   []float64
	avgLen   float64
	idf      map[string]float64
}

// BuildBM25 tokenizes every document and computes corpus statistics in one pass.
func BuildBM25(docs []domain.LexicalDoc, cfg BM25Config) *BM25 {
	idx := &BM25{
		cfg:      cfg,
		docs:     make([]domain.LexicalDoc, len(docs)),
		termFreq: make([]map[string]int, len(docs)),
		docLen:   make([]float64, len(docs)),
		idf:      make(map[string]float64),
	}
	copy(idx.docs, docs)

	docFreq := make(map[string]int)
	total := 0.0
	for i, doc := range docs {
		tokens := Tokenize(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			docFreq[term]++
		}
		idx.termFreq[i] = tf
		idx.docLen[i] = float64(len(tokens))
		total += float64(len(tokens))
	}

	n := float64(len(docs))
	if n > 0 {
		idx.avgLen = total / n
	}
	for term, df := range docFreq {
		idx.idf[term] = calcIDF(n, float64(df))
	}
	return idx
}

// calcIDF is the non-negative Lucene variant, so terms present in most
// documents still contribute a small positive weight.
func calcIDF(numDocs, docFreq float64) float64 {
	return math.Log(1.0 + (numDocs-docFreq+0.5)/(docFreq+0.5))
}

func (x *BM25) Len() int {
	return len(x.docs)
}

// Scores returns one BM25 score per indexed document, in insertion order.
func (x *BM25) Scores(query string) []float64 {
	scores := make([]float64, len(x.docs))
	tokens := Tokenize(query)
	if len(tokens) == 0 || len(x.docs) == 0 {
		return scores
	}

	k1, b := x.cfg.K1, x.cfg.B
	for _, term := range tokens {
		idf, ok := x.idf[term]
		if !ok {
			continue
		}
		for i, tf := range x.termFreq {
			freq := float64(tf[term])
			if freq == 0 {
				continue
			}
			norm := 1.0 - b
			if x.avgLen > 0 {
				norm += b * x.docLen[i] / x.avgLen
			}
			scores[i] += idf * (freq * (k1 + 1.0)) / (freq + k1*norm)
		}
	}
	return scores
}

// Search ranks every document by descending score. Ties keep insertion order.
func (x *BM25) Search(query string, topk int) []domain.LexicalHit {
	if topk <= 0 || len(x.docs) == 0 {
		return nil
	}
	scores := x.Scores(query)

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	if topk > len(order) {
		topk = len(order)
	}

	out := make([]domain.LexicalHit, 0, topk)
	for _, i := range order[:topk] {
		out = append(out, domain.LexicalHit{Score: scores[i], Doc: x.docs[i]})
	}
	return out
}
