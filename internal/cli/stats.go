package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"memvec"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document count and stored size",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := memvec.Open(ctx, cfg, storeOptions()...)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		fmt.Printf("Documents: %d\n", st.Count())
		fmt.Printf("Serialized size: %.3f MB (ceiling %.3f MB)\n",
			float64(st.Size())/(1024*1024), cfg.Store.MaxStoredSizeMB)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
