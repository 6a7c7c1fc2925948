package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

var (
	queryConversation string
	queryTopK         int
	queryThreshold    float64
	querySource       string
	queryPage         int
	queryJSON         bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Query a conversation's ingested documents",
	Long: `Embeds the question and returns the most similar chunks from the
conversation's collection. Querying an empty conversation returns no
sources, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryConversation, "conversation", "c", "", "conversation id (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 5, "maximum number of sources")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "minimum similarity score")
	queryCmd.Flags().StringVar(&querySource, "source", "", "restrict to one source document")
	queryCmd.Flags().IntVar(&queryPage, "page", 0, "restrict to one page number")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	_ = queryCmd.MarkFlagRequired("conversation")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retriever not configured")
	}

	resp, err := retriever.QueryDocuments(cmd.Context(), domain.RAGQuery{
		Query:               args[0],
		ConversationID:      queryConversation,
		TopK:                queryTopK,
		SimilarityThreshold: queryThreshold,
		Source:              querySource,
		PageNumber:          queryPage,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if resp.Count == 0 {
		cmd.Println("No sources found.")
		return nil
	}

	cmd.Printf("Sources (%d, avg score %.3f):\n\n", resp.Count, resp.AverageScore)
	for i, src := range resp.Sources {
		cmd.Printf("  [%d] %s p.%d #%d (%.3f)\n", i+1, src.Source, src.PageNumber, src.ChunkIndex, src.Score)
		cmd.Printf("      %s\n\n", truncate(src.Content, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
