package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"memvec"
)

var removeValue string

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove documents by metadata value",
	Long: `Remove every document whose metadata contains the given value in any
field. Matching scans all metadata values, not a specific key.

Example:
  memvec remove --value old-notes`,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVar(&removeValue, "value", "", "metadata value to match (required)")
	removeCmd.MarkFlagRequired("value")
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := memvec.Open(ctx, cfg, storeOptions()...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	removed, err := st.DeleteByMetadataValue(ctx, removeValue)
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	fmt.Printf("Removed %d documents (%d remaining).\n", removed, st.Count())
	return nil
}
