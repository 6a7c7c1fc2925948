package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
)

var (
	ingestConversation string
	ingestChunkSize    int
	ingestOverlap      int
	ingestModel        string
	ingestProgress     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into a conversation",
	Long: `Reads a PDF, text or Markdown file, splits it into overlapping
chunks, embeds each chunk and stores them in the conversation's vector
collection. Chunks whose embedding fails are stored without a vector.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestConversation, "conversation", "c", "", "conversation id (required)")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in characters")
	ingestCmd.Flags().IntVar(&ingestOverlap, "chunk-overlap", 0, "chunk overlap in characters")
	ingestCmd.Flags().StringVar(&ingestModel, "model", "", "embedding model override")
	ingestCmd.Flags().BoolVar(&ingestProgress, "progress", false, "print stage progress")
	_ = ingestCmd.MarkFlagRequired("conversation")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingestor not configured")
	}

	opts := driving.IngestOptions{
		ChunkSize:    ingestChunkSize,
		ChunkOverlap: ingestOverlap,
		Model:        ingestModel,
	}
	if ingestProgress {
		opts.OnProgress = func(p domain.IngestProgress) {
			cmd.Printf("  [%3.0f%%] %s %s\n", p.Percent, p.Stage, p.Detail)
		}
	}

	result := ingestor.ProcessDocument(cmd.Context(), args[0], ingestConversation, opts)
	if !result.Success {
		return fmt.Errorf("ingestion failed at %s: %w", result.Stage, result.Err)
	}

	cmd.Printf("Ingested %d chunks into conversation %s\n", result.TotalChunks, ingestConversation)
	if result.FailedEmbeddings > 0 {
		cmd.Printf("Warning: %d chunks stored without embeddings\n", result.FailedEmbeddings)
	}
	return nil
}
