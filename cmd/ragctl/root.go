package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
)

func newRootCmd(cfg config.Config, newEvaluator evaluatorFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Offline tooling for the hybrid retrieval service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newChunkCmd(cfg),
		newEvaluateCmd(cfg, newEvaluator),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ragctl version %s\n", version)
		},
	}
}
