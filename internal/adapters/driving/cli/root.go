// Package cli provides the cobra command tree for ragdesk.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

var (
	version = "dev"

	ingestor        driving.Ingestor
	retriever       driving.Retriever
	collectionAdmin driving.CollectionAdmin

	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Local RAG over your documents",
	Long: `ragdesk ingests documents into a per-conversation vector collection
and answers questions against them using a local embedding model.

Requires a running Ollama server for embeddings and a Qdrant instance
for vector storage.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Services holds the driving ports the commands depend on.
type Services struct {
	Ingestor        driving.Ingestor
	Retriever       driving.Retriever
	CollectionAdmin driving.CollectionAdmin
}

// Execute wires the services into the command tree and runs it.
func Execute(ver string, svcs Services) error {
	if ver != "" {
		version = ver
	}
	ingestor = svcs.Ingestor
	retriever = svcs.Retriever
	collectionAdmin = svcs.CollectionAdmin
	return rootCmd.Execute()
}
