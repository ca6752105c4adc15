// Package mcpadapter exposes hybrid search and text indexing as MCP tools so
// assistants can query collections over stdio.
package mcpadapter

import (
	"context"
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

var ErrMissingSearcher = errors.New("mcp: hybrid searcher is required")

type Server struct {
	searcher ports.HybridSearcher
	ingestor ports.DocumentIngestor
	server   *server.MCPServer
}

// NewServer registers the tools. A nil ingestor leaves index_text out.
func NewServer(searcher ports.HybridSearcher, ingestor ports.DocumentIngestor, version string) (*Server, error) {
	if searcher == nil {
		return nil, ErrMissingSearcher
	}
	s := &Server{
		searcher: searcher,
		ingestor: ingestor,
		server: server.NewMCPServer(
			"hybrid-retrieval",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s, nil
}

// Serve speaks MCP over the given streams until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	return server.NewStdioServer(s.server).Listen(ctx, stdin, stdout)
}
