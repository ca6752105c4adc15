package mcpadapter

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

type searchHit struct {
	ID            string  `json:"id"`
	DocID         string  `json:"doc_id,omitempty"`
	Text          string  `json:"text"`
	VectorScore   float64 `json:"vector_score"`
	LexicalScore  float64 `json:"lexical_score"`
	CombinedScore float64 `json:"combined_score"`
}

type searchOutput struct {
	Collection string      `json:"collection"`
	Mode       string      `json:"mode"`
	Alpha      float64     `json:"alpha"`
	Count      int         `json:"count"`
	Hits       []searchHit `json:"hits"`
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool("hybrid_search",
		mcp.WithDescription("Search a collection, fusing vector similarity with BM25 keyword score"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("collection to search")),
		mcp.WithString("query", mcp.Required(), mcp.Description("free-text query")),
		mcp.WithNumber("topk", mcp.Description("maximum number of hits (default 5)")),
		mcp.WithNumber("alpha", mcp.Description("vector weight in [0,1]; 1 is pure vector, 0 is pure keyword")),
		mcp.WithString("mode", mcp.Enum(string(domain.ModeHybrid), string(domain.ModeSemantic)), mcp.Description("retrieval mode")),
	), s.handleSearch)

	if s.ingestor == nil {
		return
	}
	s.server.AddTool(mcp.NewTool("index_text",
		mcp.WithDescription("Normalize, chunk and index a piece of text into a collection"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("target collection")),
		mcp.WithString("id", mcp.Required(), mcp.Description("stable document id; re-indexing the same id overwrites its chunks")),
		mcp.WithString("text", mcp.Required(), mcp.Description("document text")),
	), s.handleIndexText)
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	searchReq := ports.SearchRequest{
		Collection: collection,
		Query:      query,
		TopK:       req.GetInt("topk", 0),
		Mode:       domain.RetrievalMode(req.GetString("mode", "")),
	}
	if alpha, ok := req.GetArguments()["alpha"].(float64); ok {
		searchReq.Alpha = &alpha
	}

	result, err := s.searcher.Search(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := searchOutput{
		Collection: result.Collection,
		Mode:       string(result.Mode),
		Alpha:      result.Alpha,
		Count:      len(result.Hits),
		Hits:       make([]searchHit, 0, len(result.Hits)),
	}
	for _, h := range result.Hits {
		out.Hits = append(out.Hits, searchHit{
			ID:            h.ID,
			DocID:         h.Payload.DocID,
			Text:          h.Payload.Text,
			VectorScore:   h.VectorScore,
			LexicalScore:  h.LexicalScore,
			CombinedScore: h.CombinedScore,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleIndexText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is empty"), nil
	}

	report, err := s.ingestor.Ingest(ctx, ports.IngestRequest{
		Collection: collection,
		Documents:  []domain.Document{{ID: id, Text: text, Meta: map[string]any{"source": "mcp"}}},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encode result", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
