package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/chunking"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/extractor"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/preprocess"
)

type chunkLine struct {
	ID      string `json:"id"`
	DocID   string `json:"doc_id"`
	ChunkID int    `json:"chunk_id"`
	Chars   int    `json:"chars"`
	Text    string `json:"text"`
}

func newChunkCmd(cfg config.Config) *cobra.Command {
	var (
		strategy string
		maxChars int
		overlap  int
		minChars int
	)
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Normalize and chunk a file, printing one JSON line per chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			text, err := extractor.NewRouter().Extract(cmd.Context(), filepath.Base(path), "", data)
			if err != nil {
				return err
			}

			docs, stats := preprocess.NormalizeAndFilter([]domain.Document{{ID: filepath.Base(path), Text: text}}, minChars)
			if len(docs) == 0 {
				cmd.PrintErrf("document dropped: too_short=%d\n", stats.TooShort)
				return nil
			}

			splitter := chunking.NewSplitter(domain.ChunkStrategy(strategy), maxChars, overlap)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, c := range splitter.Chunk(docs[0].ID, docs[0].Text, splitter.Defaults()) {
				line := chunkLine{
					ID:      c.ExternalID(),
					DocID:   c.DocID,
					ChunkID: c.ChunkID,
					Chars:   len([]rune(c.Text)),
					Text:    c.Text,
				}
				if err := enc.Encode(line); err != nil {
					return fmt.Errorf("write chunk: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", cfg.ChunkStrategy, "chunking strategy: sentence or paragraph")
	cmd.Flags().IntVar(&maxChars, "max-chars", cfg.ChunkMaxChars, "maximum characters per chunk")
	cmd.Flags().IntVar(&overlap, "overlap", cfg.ChunkOverlap, "characters carried over between chunks")
	cmd.Flags().IntVar(&minChars, "min-chars", 0, "drop the document if shorter than this after cleaning")
	return cmd
}
