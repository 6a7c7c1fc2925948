package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage vector collections",
	RunE:  runCollectionsList,
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	RunE:  runCollectionsList,
}

var collectionsStatsCmd = &cobra.Command{
	Use:   "stats [conversation-id]",
	Short: "Show stats for a conversation's collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsStats,
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete [conversation-id]",
	Short: "Delete a conversation's collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDelete,
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsStatsCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	if collectionAdmin == nil {
		return errors.New("collection admin not configured")
	}

	collections, err := collectionAdmin.ListCollections(cmd.Context())
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if len(collections) == 0 {
		cmd.Println("No collections.")
		return nil
	}

	cmd.Println("Collections:")
	for _, col := range collections {
		cmd.Printf("  %s  size=%d  distance=%s  points=%d  status=%s\n",
			col.Name, col.VectorSize, col.Distance, col.Stats.PointsCount, col.Stats.IndexingStatus)
	}
	return nil
}

func runCollectionsStats(cmd *cobra.Command, args []string) error {
	if collectionAdmin == nil {
		return errors.New("collection admin not configured")
	}

	stats, err := collectionAdmin.GetCollectionStats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("collection stats: %w", err)
	}

	cmd.Printf("Points:   %d\n", stats.PointsCount)
	cmd.Printf("Size:     %d bytes\n", stats.SizeBytes)
	cmd.Printf("Indexing: %s\n", stats.IndexingStatus)
	return nil
}

func runCollectionsDelete(cmd *cobra.Command, args []string) error {
	if collectionAdmin == nil {
		return errors.New("collection admin not configured")
	}

	result := collectionAdmin.DeleteCollection(cmd.Context(), args[0])
	if !result.Success {
		return fmt.Errorf("delete collection: %w", result.Err)
	}
	cmd.Printf("Deleted collection for conversation %s\n", result.DeletedID)
	return nil
}
